package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"coursemarket/backend/utils"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// MinimumAmount is the smallest charge the provider accepts, in minor units.
const MinimumAmount int64 = 50

var (
	ErrPaymentNotSucceeded = errors.New("payment has not succeeded")
	ErrAmountMismatch      = errors.New("payment amount does not match")
)

type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

type StripeClient struct {
	api      *client.API
	currency string
	log      *utils.Logger
}

func NewStripeClient(secretKey, currency string, log *utils.Logger) (*StripeClient, error) {
	return newStripeClient(secretKey, currency, nil, log)
}

// newStripeClient accepts explicit backends so tests can point the client at
// a local server; nil uses the provider's defaults.
func newStripeClient(secretKey, currency string, backends *stripe.Backends, log *utils.Logger) (*StripeClient, error) {
	if strings.TrimSpace(secretKey) == "" {
		return nil, fmt.Errorf("STRIPE_SECRET_KEY is required")
	}
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	return &StripeClient{
		api:      client.New(secretKey, backends),
		currency: strings.ToLower(currency),
		log:      log.With("service", "StripeClient"),
	}, nil
}

// CreatePaymentIntent opens an intent for card-style payments that never
// redirect; the client secret is handed to the browser to confirm the charge.
func (s *StripeClient) CreatePaymentIntent(ctx context.Context, amount int64) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(s.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	params.Context = ctx

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create payment intent: %w", err)
	}
	s.log.Debug("payment intent created", "intent_id", pi.ID, "amount", pi.Amount)

	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
	}, nil
}

// ConfirmPayment checks with the provider that intentID settled for amount.
func (s *StripeClient) ConfirmPayment(ctx context.Context, intentID string, amount int64) error {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := s.api.PaymentIntents.Get(intentID, params)
	if err != nil {
		return fmt.Errorf("stripe: get payment intent: %w", err)
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return fmt.Errorf("%w: status %s", ErrPaymentNotSucceeded, pi.Status)
	}
	if pi.Amount != amount {
		return fmt.Errorf("%w: charged %d, recorded %d", ErrAmountMismatch, pi.Amount, amount)
	}
	return nil
}
