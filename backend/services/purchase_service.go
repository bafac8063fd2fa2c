package services

import (
	"context"
	"errors"
	"time"

	"coursemarket/backend/models"
	"coursemarket/backend/platform/payment"
	"coursemarket/backend/repository"
	"coursemarket/backend/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("coursemarket/services")

type PurchaseInput struct {
	UserID          string                 `json:"userId" validate:"required,max=128"`
	CourseID        string                 `json:"courseId" validate:"required,max=128"`
	TransactionID   string                 `json:"transactionId" validate:"required,max=255"`
	Amount          int64                  `json:"amount" validate:"gt=0"`
	PaymentProvider models.PaymentProvider `json:"paymentProvider" validate:"required,oneof=stripe"`
}

type PurchaseResult struct {
	Transaction    *models.Transaction    `json:"transaction"`
	CourseProgress *models.CourseProgress `json:"courseProgress"`
}

// PurchaseService records a completed purchase: the transaction, the learner's
// progress snapshot and the course enrollment are written in one database
// transaction. Every write is idempotent on (userId, transactionId), so the
// whole call can be re-driven safely.
type PurchaseService struct {
	db           *gorm.DB
	courses      repository.CourseRepo
	transactions repository.TransactionRepo
	progress     repository.ProgressRepo
	payments     PaymentGateway
	verify       bool
	cache        CourseCache
	log          *utils.Logger
	now          func() time.Time
}

type PurchaseDeps struct {
	DB           *gorm.DB
	Courses      repository.CourseRepo
	Transactions repository.TransactionRepo
	Progress     repository.ProgressRepo
	// Payments is consulted only when VerifyPayments is set.
	Payments       PaymentGateway
	VerifyPayments bool
	Cache          CourseCache
}

func NewPurchaseService(deps PurchaseDeps, log *utils.Logger) *PurchaseService {
	cache := deps.Cache
	if cache == nil {
		cache = nopCache{}
	}
	return &PurchaseService{
		db:           deps.DB,
		courses:      deps.Courses,
		transactions: deps.Transactions,
		progress:     deps.Progress,
		payments:     deps.Payments,
		verify:       deps.VerifyPayments && deps.Payments != nil,
		cache:        cache,
		log:          log.With("service", "PurchaseService"),
		now:          time.Now,
	}
}

func (s *PurchaseService) Complete(ctx context.Context, in PurchaseInput) (*PurchaseResult, error) {
	ctx, span := tracer.Start(ctx, "PurchaseService.Complete", trace.WithAttributes(
		attribute.String("course.id", in.CourseID),
		attribute.String("user.id", in.UserID),
		attribute.String("payment.provider", string(in.PaymentProvider)),
	))
	defer span.End()

	if err := utils.ValidateStruct(in); err != nil {
		span.SetStatus(codes.Error, "invalid input")
		return nil, err
	}

	result, err := s.complete(ctx, in, s.verify)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return result, nil
}

// Redrive finishes a purchase whose transaction is already stored. The payment
// was accepted when the transaction was first written, so it is not checked
// again.
func (s *PurchaseService) Redrive(ctx context.Context, txn models.Transaction) (*PurchaseResult, error) {
	ctx, span := tracer.Start(ctx, "PurchaseService.Redrive", trace.WithAttributes(
		attribute.String("course.id", txn.CourseID),
		attribute.String("user.id", txn.UserID),
	))
	defer span.End()

	result, err := s.complete(ctx, PurchaseInput{
		UserID:          txn.UserID,
		CourseID:        txn.CourseID,
		TransactionID:   txn.TransactionID,
		Amount:          txn.Amount,
		PaymentProvider: txn.PaymentProvider,
	}, false)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return result, err
}

func (s *PurchaseService) complete(ctx context.Context, in PurchaseInput, verify bool) (*PurchaseResult, error) {
	course, err := s.courses.Get(repository.Ctx(ctx), in.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError("Course not found")
		}
		return nil, utils.NewInternalError("Error retrieving course", err)
	}

	if verify {
		if err := s.payments.ConfirmPayment(ctx, in.TransactionID, in.Amount); err != nil {
			if errors.Is(err, payment.ErrPaymentNotSucceeded) || errors.Is(err, payment.ErrAmountMismatch) {
				return nil, utils.NewValidationError(err.Error())
			}
			return nil, utils.NewUpstreamError("Error confirming payment", err)
		}
	}

	now := s.now().UTC()
	var result PurchaseResult

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := repository.Ctx(ctx).WithTx(tx)

		stored, created, err := s.transactions.Upsert(dbc, &models.Transaction{
			UserID:          in.UserID,
			TransactionID:   in.TransactionID,
			DateTime:        now,
			CourseID:        in.CourseID,
			PaymentProvider: in.PaymentProvider,
			Amount:          in.Amount,
		})
		if err != nil {
			return err
		}
		if !created && stored.CourseID != in.CourseID {
			return utils.NewValidationError("Transaction is already recorded for a different course")
		}
		result.Transaction = stored

		progress := &models.CourseProgress{
			UserID:                in.UserID,
			CourseID:              in.CourseID,
			EnrollmentDate:        now,
			OverallProgress:       0,
			Sections:              datatypes.NewJSONType(models.NewProgressSnapshot(course.SectionList())),
			LastAccessedTimestamp: now,
		}
		fresh, err := s.progress.CreateOnce(dbc, progress)
		if err != nil {
			return err
		}
		if !fresh {
			if progress, err = s.progress.Get(dbc, in.UserID, in.CourseID); err != nil {
				return err
			}
		}
		result.CourseProgress = progress

		_, err = s.courses.AddEnrollment(dbc, &models.Enrollment{
			CourseID:      in.CourseID,
			UserID:        in.UserID,
			TransactionID: in.TransactionID,
		})
		return err
	})
	if err != nil {
		var appErr *utils.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, utils.NewInternalError("Error creating transaction and enrollment", err)
	}

	s.cache.Invalidate(ctx, in.CourseID)
	s.log.Info("purchase recorded",
		"user_id", in.UserID,
		"course_id", in.CourseID,
		"transaction_id", in.TransactionID,
		"amount", result.Transaction.Amount,
	)
	return &result, nil
}
