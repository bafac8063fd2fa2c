package controllers

import (
	"coursemarket/backend/middleware"
	"coursemarket/backend/services"
	"coursemarket/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type TransactionsController struct {
	Transactions *services.TransactionService
	Purchases    *services.PurchaseService
}

func NewTransactionsController(transactions *services.TransactionService, purchases *services.PurchaseService) *TransactionsController {
	return &TransactionsController{Transactions: transactions, Purchases: purchases}
}

// ListTransactions godoc
// @Summary List transactions
// @Description Lists transactions for userId, or all of them when userId is omitted
// @Tags transactions
// @Produce json
// @Param userId query string false "Learner ID"
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /transactions [get]
func (tc *TransactionsController) ListTransactions(c *fiber.Ctx) error {
	rows, err := tc.Transactions.List(c.UserContext(), c.Query("userId"))
	if err != nil {
		return err
	}
	return utils.OK(c, "Transactions retrieved successfully", rows)
}

// CreateTransaction godoc
// @Summary Complete a purchase
// @Description Records the transaction, creates the learner's course progress and enrolls them. Safe to retry with the same transactionId
// @Tags transactions
// @Accept json
// @Produce json
// @Param request body services.PurchaseInput true "Purchase"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /transactions [post]
func (tc *TransactionsController) CreateTransaction(c *fiber.Ctx) error {
	var in services.PurchaseInput
	if err := c.BodyParser(&in); err != nil {
		return utils.NewValidationError("Invalid request body")
	}
	if in.UserID != "" && in.UserID != middleware.Session(c).UserID {
		return utils.NewForbiddenError("Cannot purchase on behalf of another user")
	}

	result, err := tc.Purchases.Complete(c.UserContext(), in)
	if err != nil {
		return err
	}
	return utils.OK(c, "Purchased Course successfully", result)
}

// CreateStripePaymentIntent godoc
// @Summary Create payment intent
// @Description Amounts below the provider minimum are raised to it
// @Tags transactions
// @Accept json
// @Produce json
// @Param request body services.PaymentIntentInput true "Amount in minor units"
// @Success 200 {object} utils.SuccessResponse
// @Failure 502 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /transactions/stripe/payment-intent [post]
func (tc *TransactionsController) CreateStripePaymentIntent(c *fiber.Ctx) error {
	var in services.PaymentIntentInput
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return utils.NewValidationError("Invalid request body")
		}
	}
	intent, err := tc.Transactions.CreatePaymentIntent(c.UserContext(), in)
	if err != nil {
		return err
	}
	return utils.OK(c, "", fiber.Map{"clientSecret": intent.ClientSecret})
}
