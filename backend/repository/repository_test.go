package repository

import (
	"context"
	"testing"
	"time"

	"coursemarket/backend/models"
	"coursemarket/backend/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func newTxn(userID, txnID, courseID string) *models.Transaction {
	return &models.Transaction{
		UserID:          userID,
		TransactionID:   txnID,
		CourseID:        courseID,
		DateTime:        time.Now().UTC(),
		PaymentProvider: models.PaymentProviderStripe,
		Amount:          4900,
	}
}

func TestCourseRepoListFiltersByCategory(t *testing.T) {
	db := testutil.DB(t)
	repo := NewCourseRepo(db)
	dbc := Ctx(context.Background())

	testutil.SeedCourse(t, db, "teacher_1")
	other := testutil.SeedCourse(t, db, "teacher_2")
	other.Category = "Design"
	require.NoError(t, repo.Replace(dbc, other))

	all, err := repo.List(dbc, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	all, err = repo.List(dbc, "all")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	design, err := repo.List(dbc, "Design")
	require.NoError(t, err)
	require.Len(t, design, 1)
	assert.Equal(t, other.CourseID, design[0].CourseID)
}

func TestCourseRepoEnrollmentsAreAdditive(t *testing.T) {
	db := testutil.DB(t)
	repo := NewCourseRepo(db)
	dbc := Ctx(context.Background())
	course := testutil.SeedCourse(t, db, "teacher_1")

	added, err := repo.AddEnrollment(dbc, &models.Enrollment{CourseID: course.CourseID, UserID: "u1", TransactionID: "pi_1"})
	require.NoError(t, err)
	assert.True(t, added)

	added, err = repo.AddEnrollment(dbc, &models.Enrollment{CourseID: course.CourseID, UserID: "u1", TransactionID: "pi_1"})
	require.NoError(t, err)
	assert.False(t, added)

	added, err = repo.AddEnrollment(dbc, &models.Enrollment{CourseID: course.CourseID, UserID: "u2", TransactionID: "pi_2"})
	require.NoError(t, err)
	assert.True(t, added)

	// Replacing the course document leaves enrollments alone.
	course.Title = "Renamed"
	course.Enrollments = nil
	require.NoError(t, repo.Replace(dbc, course))

	got, err := repo.Get(dbc, course.CourseID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	require.Len(t, got.Enrollments, 2)
	assert.Equal(t, "u1", got.Enrollments[0].UserID)
	assert.Equal(t, "u2", got.Enrollments[1].UserID)
}

func TestCourseRepoDelete(t *testing.T) {
	db := testutil.DB(t)
	repo := NewCourseRepo(db)
	dbc := Ctx(context.Background())
	course := testutil.SeedCourse(t, db, "teacher_1")
	_, err := repo.AddEnrollment(dbc, &models.Enrollment{CourseID: course.CourseID, UserID: "u1", TransactionID: "pi_1"})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(dbc, course.CourseID))
	_, err = repo.Get(dbc, course.CourseID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Zero(t, testutil.Count(t, db, &models.Enrollment{}))

	assert.ErrorIs(t, repo.Delete(dbc, course.CourseID), gorm.ErrRecordNotFound)
}

func TestTransactionRepoUpsertKeepsFirstWrite(t *testing.T) {
	db := testutil.DB(t)
	repo := NewTransactionRepo(db)
	dbc := Ctx(context.Background())

	first, created, err := repo.Upsert(dbc, newTxn("u1", "pi_1", "c1"))
	require.NoError(t, err)
	assert.True(t, created)

	again := newTxn("u1", "pi_1", "c1")
	again.Amount = 1
	stored, created, err := repo.Upsert(dbc, again)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.Amount, stored.Amount)
	assert.Equal(t, int64(1), testutil.Count(t, db, &models.Transaction{}))
}

func TestTransactionRepoList(t *testing.T) {
	db := testutil.DB(t)
	repo := NewTransactionRepo(db)
	dbc := Ctx(context.Background())

	for _, txn := range []*models.Transaction{
		newTxn("u1", "pi_1", "c1"),
		newTxn("u1", "pi_2", "c2"),
		newTxn("u2", "pi_3", "c1"),
	} {
		_, _, err := repo.Upsert(dbc, txn)
		require.NoError(t, err)
	}

	mine, err := repo.List(dbc, "u1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	all, err := repo.List(dbc, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	sales, err := repo.ListByCourse(dbc, "c1")
	require.NoError(t, err)
	assert.Len(t, sales, 2)
}

func TestTransactionRepoFindUnreconciled(t *testing.T) {
	db := testutil.DB(t)
	txns := NewTransactionRepo(db)
	courses := NewCourseRepo(db)
	progress := NewProgressRepo(db)
	dbc := Ctx(context.Background())
	course := testutil.SeedCourse(t, db, "teacher_1")

	// complete purchase
	_, _, err := txns.Upsert(dbc, newTxn("u1", "pi_1", course.CourseID))
	require.NoError(t, err)
	_, err = progress.CreateOnce(dbc, &models.CourseProgress{UserID: "u1", CourseID: course.CourseID, EnrollmentDate: time.Now(), LastAccessedTimestamp: time.Now()})
	require.NoError(t, err)
	_, err = courses.AddEnrollment(dbc, &models.Enrollment{CourseID: course.CourseID, UserID: "u1", TransactionID: "pi_1"})
	require.NoError(t, err)

	// transaction only
	_, _, err = txns.Upsert(dbc, newTxn("u2", "pi_2", course.CourseID))
	require.NoError(t, err)

	// course no longer exists
	_, _, err = txns.Upsert(dbc, newTxn("u3", "pi_3", "gone"))
	require.NoError(t, err)

	pending, err := txns.FindUnreconciled(dbc, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "u2", pending[0].UserID)
	assert.Equal(t, "pi_2", pending[0].TransactionID)
}

func TestProgressRepoCreateOnce(t *testing.T) {
	db := testutil.DB(t)
	repo := NewProgressRepo(db)
	dbc := Ctx(context.Background())

	snapshot := models.NewProgressSnapshot(testutil.Curriculum())
	snapshot[0].Chapters[0].Completed = true
	created, err := repo.CreateOnce(dbc, &models.CourseProgress{
		UserID:                "u1",
		CourseID:              "c1",
		EnrollmentDate:        time.Now(),
		LastAccessedTimestamp: time.Now(),
		Sections:              datatypes.NewJSONType(snapshot),
	})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.CreateOnce(dbc, &models.CourseProgress{
		UserID:                "u1",
		CourseID:              "c1",
		EnrollmentDate:        time.Now(),
		LastAccessedTimestamp: time.Now(),
		Sections:              datatypes.NewJSONType(models.NewProgressSnapshot(testutil.Curriculum())),
	})
	require.NoError(t, err)
	assert.False(t, created)

	got, err := repo.Get(dbc, "u1", "c1")
	require.NoError(t, err)
	assert.True(t, got.Sections.Data()[0].Chapters[0].Completed)

	list, err := repo.ListByUser(dbc, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = repo.Get(dbc, "u1", "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestTxJoinsTransaction(t *testing.T) {
	db := testutil.DB(t)
	repo := NewTransactionRepo(db)

	err := db.Transaction(func(tx *gorm.DB) error {
		dbc := Ctx(context.Background()).WithTx(tx)
		_, _, err := repo.Upsert(dbc, newTxn("u1", "pi_1", "c1"))
		require.NoError(t, err)
		return gorm.ErrInvalidTransaction
	})
	require.Error(t, err)
	assert.Zero(t, testutil.Count(t, db, &models.Transaction{}))
}
