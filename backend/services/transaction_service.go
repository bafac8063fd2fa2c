package services

import (
	"context"
	"errors"

	"coursemarket/backend/models"
	"coursemarket/backend/platform/payment"
	"coursemarket/backend/repository"
	"coursemarket/backend/utils"
)

type PaymentIntentInput struct {
	Amount int64 `json:"amount"`
}

type TransactionService struct {
	transactions repository.TransactionRepo
	payments     PaymentGateway
	log          *utils.Logger
}

func NewTransactionService(transactions repository.TransactionRepo, payments PaymentGateway, log *utils.Logger) *TransactionService {
	return &TransactionService{
		transactions: transactions,
		payments:     payments,
		log:          log.With("service", "TransactionService"),
	}
}

// List returns the user's transactions; an empty userID lists all of them.
func (s *TransactionService) List(ctx context.Context, userID string) ([]models.Transaction, error) {
	rows, err := s.transactions.List(repository.Ctx(ctx), userID)
	if err != nil {
		return nil, utils.NewInternalError("Error retrieving transactions", err)
	}
	return rows, nil
}

// CreatePaymentIntent raises amounts below the provider minimum to it.
func (s *TransactionService) CreatePaymentIntent(ctx context.Context, in PaymentIntentInput) (*payment.Intent, error) {
	if s.payments == nil {
		return nil, utils.NewUpstreamError("Error creating stripe payment intent", errors.New("payment provider is not configured"))
	}
	amount := in.Amount
	if amount <= 0 {
		amount = payment.MinimumAmount
	}
	intent, err := s.payments.CreatePaymentIntent(ctx, amount)
	if err != nil {
		return nil, utils.NewUpstreamError("Error creating stripe payment intent", err)
	}
	return intent, nil
}
