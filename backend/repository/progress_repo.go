package repository

import (
	"coursemarket/backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepo interface {
	CreateOnce(dbc DBContext, progress *models.CourseProgress) (bool, error)
	Get(dbc DBContext, userID, courseID string) (*models.CourseProgress, error)
	ListByUser(dbc DBContext, userID string) ([]models.CourseProgress, error)
	Save(dbc DBContext, progress *models.CourseProgress) error
}

type progressRepo struct {
	db *gorm.DB
}

func NewProgressRepo(db *gorm.DB) ProgressRepo {
	return &progressRepo{db: db}
}

// CreateOnce writes the record only if (userId, courseId) has none yet, so a
// repurchase never resets a learner's completion state.
func (r *progressRepo) CreateOnce(dbc DBContext, progress *models.CourseProgress) (bool, error) {
	res := conn(r.db, dbc).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
			DoNothing: true,
		}).
		Create(progress)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *progressRepo) Get(dbc DBContext, userID, courseID string) (*models.CourseProgress, error) {
	var progress models.CourseProgress
	err := conn(r.db, dbc).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&progress).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

func (r *progressRepo) ListByUser(dbc DBContext, userID string) ([]models.CourseProgress, error) {
	var rows []models.CourseProgress
	err := conn(r.db, dbc).
		Where("user_id = ?", userID).
		Order("last_accessed_timestamp DESC").
		Find(&rows).Error
	return rows, err
}

func (r *progressRepo) Save(dbc DBContext, progress *models.CourseProgress) error {
	return conn(r.db, dbc).Save(progress).Error
}
