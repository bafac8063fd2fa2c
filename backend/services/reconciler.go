package services

import (
	"context"
	"sync/atomic"
	"time"

	"coursemarket/backend/repository"
	"coursemarket/backend/utils"

	"golang.org/x/sync/errgroup"
)

const (
	reconcileBatch       = 100
	reconcileParallelism = 4
)

// Reconciler finds purchases whose transaction was stored without its
// progress record or enrollment and re-drives them. Such rows come from
// imports or writes made before purchases were atomic.
type Reconciler struct {
	transactions repository.TransactionRepo
	purchases    *PurchaseService
	log          *utils.Logger
}

func NewReconciler(transactions repository.TransactionRepo, purchases *PurchaseService, log *utils.Logger) *Reconciler {
	return &Reconciler{
		transactions: transactions,
		purchases:    purchases,
		log:          log.With("service", "Reconciler"),
	}
}

// RunOnce repairs one batch and reports how many purchases were completed.
// A failing purchase is logged and skipped; it is picked up again next run.
func (r *Reconciler) RunOnce(ctx context.Context) (int, error) {
	pending, err := r.transactions.FindUnreconciled(repository.Ctx(ctx), reconcileBatch)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	var repaired atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reconcileParallelism)
	for _, txn := range pending {
		txn := txn
		g.Go(func() error {
			if _, err := r.purchases.Redrive(gctx, txn); err != nil {
				r.log.Warn("reconcile purchase failed",
					"user_id", txn.UserID,
					"course_id", txn.CourseID,
					"transaction_id", txn.TransactionID,
					"error", err,
				)
				return nil
			}
			repaired.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(repaired.Load()), err
	}

	r.log.Info("reconcile pass finished", "pending", len(pending), "repaired", repaired.Load())
	return int(repaired.Load()), nil
}

// Start runs RunOnce every interval until ctx is done.
func (r *Reconciler) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
			r.log.Error("reconcile pass failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
