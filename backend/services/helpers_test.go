package services

import (
	"context"
	"sync"
	"testing"

	"coursemarket/backend/models"
	"coursemarket/backend/platform/payment"
	"coursemarket/backend/testutil"

	"gorm.io/gorm"
)

type fakePayments struct {
	mu        sync.Mutex
	confirmed []string
	amounts   []int64
	err       error
}

func (f *fakePayments) CreatePaymentIntent(_ context.Context, amount int64) (*payment.Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.amounts = append(f.amounts, amount)
	if f.err != nil {
		return nil, f.err
	}
	return &payment.Intent{ID: "pi_test", ClientSecret: "pi_test_secret", Amount: amount, Currency: "usd"}, nil
}

func (f *fakePayments) ConfirmPayment(_ context.Context, intentID string, _ int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmed = append(f.confirmed, intentID)
	return f.err
}

type fakeSigner struct {
	err  error
	keys []string
}

func (f *fakeSigner) SignUpload(_ context.Context, objectKey, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.keys = append(f.keys, objectKey)
	return "https://signed.test/" + objectKey + "?sig=1", nil
}

func (f *fakeSigner) PublicURL(objectKey string) string {
	return "https://cdn.test/" + objectKey
}

type mapCache struct {
	mu          sync.Mutex
	items       map[string]models.Course
	invalidated []string
}

func newMapCache() *mapCache {
	return &mapCache{items: map[string]models.Course{}}
}

func (c *mapCache) Get(_ context.Context, courseID string) (*models.Course, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	course, ok := c.items[courseID]
	if !ok {
		return nil, false
	}
	return &course, true
}

func (c *mapCache) Set(_ context.Context, course *models.Course) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[course.CourseID] = *course
}

func (c *mapCache) Invalidate(_ context.Context, courseID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, courseID)
	c.invalidated = append(c.invalidated, courseID)
}

type fakeIdentity struct {
	userID   string
	metadata models.UserMetadata
	err      error
}

func (f *fakeIdentity) UpdateUserMetadata(_ context.Context, userID string, metadata models.UserMetadata) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.userID, f.metadata = userID, metadata
	return &models.User{ID: userID, PublicMetadata: metadata}, nil
}

func newServices(t *testing.T, deps Deps) (*gorm.DB, *Services) {
	t.Helper()
	db := testutil.DB(t)
	deps.DB = db
	return db, New(deps, testutil.Logger())
}

func purchaseFor(userID, courseID, txnID string) PurchaseInput {
	return PurchaseInput{
		UserID:          userID,
		CourseID:        courseID,
		TransactionID:   txnID,
		Amount:          4900,
		PaymentProvider: models.PaymentProviderStripe,
	}
}

type writeCounts struct {
	transactions, progress, enrollments int64
}

func countWrites(t *testing.T, db *gorm.DB) writeCounts {
	t.Helper()
	return writeCounts{
		transactions: testutil.Count(t, db, &models.Transaction{}),
		progress:     testutil.Count(t, db, &models.CourseProgress{}),
		enrollments:  testutil.Count(t, db, &models.Enrollment{}),
	}
}
