package services

import (
	"context"
	"errors"
	"testing"

	"coursemarket/backend/platform/payment"
	"coursemarket/backend/testutil"
	"coursemarket/backend/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePaymentIntent(t *testing.T) {
	payments := &fakePayments{}
	_, svc := newServices(t, Deps{Payments: payments})
	ctx := context.Background()

	intent, err := svc.Transactions.CreatePaymentIntent(ctx, PaymentIntentInput{Amount: 4900})
	require.NoError(t, err)
	assert.Equal(t, "pi_test_secret", intent.ClientSecret)

	_, err = svc.Transactions.CreatePaymentIntent(ctx, PaymentIntentInput{Amount: 0})
	require.NoError(t, err)
	_, err = svc.Transactions.CreatePaymentIntent(ctx, PaymentIntentInput{Amount: -10})
	require.NoError(t, err)
	assert.Equal(t, []int64{4900, payment.MinimumAmount, payment.MinimumAmount}, payments.amounts)

	payments.err = errors.New("card_declined")
	_, err = svc.Transactions.CreatePaymentIntent(ctx, PaymentIntentInput{Amount: 100})
	assert.True(t, utils.IsKind(err, utils.KindUpstream))
}

func TestCreatePaymentIntentWithoutProvider(t *testing.T) {
	_, svc := newServices(t, Deps{})
	_, err := svc.Transactions.CreatePaymentIntent(context.Background(), PaymentIntentInput{Amount: 100})
	assert.True(t, utils.IsKind(err, utils.KindUpstream))
}

func TestListTransactions(t *testing.T) {
	db, svc := newServices(t, Deps{})
	ctx := context.Background()
	course := testutil.SeedCourse(t, db, "teacher_1")
	for _, in := range []PurchaseInput{
		purchaseFor("learner_1", course.CourseID, "pi_1"),
		purchaseFor("learner_2", course.CourseID, "pi_2"),
	} {
		_, err := svc.Purchases.Complete(ctx, in)
		require.NoError(t, err)
	}

	mine, err := svc.Transactions.List(ctx, "learner_1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "pi_1", mine[0].TransactionID)

	all, err := svc.Transactions.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCourseSales(t *testing.T) {
	db, svc := newServices(t, Deps{})
	ctx := context.Background()
	course := testutil.SeedCourse(t, db, "teacher_1")
	for _, in := range []PurchaseInput{
		purchaseFor("learner_1", course.CourseID, "pi_1"),
		purchaseFor("learner_1", course.CourseID, "pi_2"),
		purchaseFor("learner_2", course.CourseID, "pi_3"),
	} {
		_, err := svc.Purchases.Complete(ctx, in)
		require.NoError(t, err)
	}

	sales, err := svc.Sales.CourseSales(ctx, course)
	require.NoError(t, err)
	assert.Equal(t, 3, sales.Enrollments)
	assert.Equal(t, 2, sales.Learners)
	assert.Equal(t, 3, sales.Transactions)
	assert.Equal(t, int64(3*4900), sales.Revenue)
	assert.Len(t, sales.Recent, 3)
}
