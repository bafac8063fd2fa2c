package repository

import (
	"coursemarket/backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TransactionRepo interface {
	Upsert(dbc DBContext, txn *models.Transaction) (*models.Transaction, bool, error)
	Get(dbc DBContext, userID, transactionID string) (*models.Transaction, error)
	List(dbc DBContext, userID string) ([]models.Transaction, error)
	ListByCourse(dbc DBContext, courseID string) ([]models.Transaction, error)
	FindUnreconciled(dbc DBContext, limit int) ([]models.Transaction, error)
}

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepo {
	return &transactionRepo{db: db}
}

// Upsert inserts the transaction unless (userId, transactionId) already
// exists. The stored row is returned either way; created reports whether this
// call wrote it.
func (r *transactionRepo) Upsert(dbc DBContext, txn *models.Transaction) (*models.Transaction, bool, error) {
	res := conn(r.db, dbc).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "transaction_id"}},
			DoNothing: true,
		}).
		Create(txn)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected > 0 {
		return txn, true, nil
	}
	existing, err := r.Get(dbc, txn.UserID, txn.TransactionID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *transactionRepo) Get(dbc DBContext, userID, transactionID string) (*models.Transaction, error) {
	var txn models.Transaction
	err := conn(r.db, dbc).
		Where("user_id = ? AND transaction_id = ?", userID, transactionID).
		First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// List returns the user's transactions, or every transaction when userID is "".
func (r *transactionRepo) List(dbc DBContext, userID string) ([]models.Transaction, error) {
	q := conn(r.db, dbc).Order("date_time DESC")
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	var rows []models.Transaction
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *transactionRepo) ListByCourse(dbc DBContext, courseID string) ([]models.Transaction, error) {
	var rows []models.Transaction
	err := conn(r.db, dbc).
		Where("course_id = ?", courseID).
		Order("date_time DESC").
		Find(&rows).Error
	return rows, err
}

// FindUnreconciled returns transactions for existing courses that are missing
// either their progress record or their enrollment row.
func (r *transactionRepo) FindUnreconciled(dbc DBContext, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []models.Transaction
	err := conn(r.db, dbc).
		Table("transactions AS t").
		Select("t.*").
		Joins("JOIN courses c ON c.course_id = t.course_id").
		Joins("LEFT JOIN course_progress p ON p.user_id = t.user_id AND p.course_id = t.course_id").
		Joins("LEFT JOIN course_enrollments e ON e.course_id = t.course_id AND e.user_id = t.user_id AND e.transaction_id = t.transaction_id").
		Where("p.user_id IS NULL OR e.id IS NULL").
		Order("t.date_time ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
