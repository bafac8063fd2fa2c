package services

import (
	"context"

	"coursemarket/backend/models"
	"coursemarket/backend/platform/payment"
)

// PaymentGateway is the slice of the payment provider the services use.
type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, amount int64) (*payment.Intent, error)
	ConfirmPayment(ctx context.Context, intentID string, amount int64) error
}

type UploadSigner interface {
	SignUpload(ctx context.Context, objectKey, contentType string) (string, error)
	PublicURL(objectKey string) string
}

// CourseCache is best effort; implementations swallow their own failures.
type CourseCache interface {
	Get(ctx context.Context, courseID string) (*models.Course, bool)
	Set(ctx context.Context, course *models.Course)
	Invalidate(ctx context.Context, courseID string)
}

type MetadataUpdater interface {
	UpdateUserMetadata(ctx context.Context, userID string, metadata models.UserMetadata) (*models.User, error)
}

type nopCache struct{}

func (nopCache) Get(context.Context, string) (*models.Course, bool) { return nil, false }
func (nopCache) Set(context.Context, *models.Course)                {}
func (nopCache) Invalidate(context.Context, string)                 {}
