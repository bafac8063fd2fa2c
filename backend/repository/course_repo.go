package repository

import (
	"coursemarket/backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CourseRepo interface {
	Get(dbc DBContext, courseID string) (*models.Course, error)
	GetMany(dbc DBContext, courseIDs []string) ([]models.Course, error)
	List(dbc DBContext, category string) ([]models.Course, error)
	Create(dbc DBContext, course *models.Course) error
	Replace(dbc DBContext, course *models.Course) error
	Delete(dbc DBContext, courseID string) error
	AddEnrollment(dbc DBContext, enrollment *models.Enrollment) (bool, error)
	ListEnrollments(dbc DBContext, courseID string) ([]models.Enrollment, error)
}

type courseRepo struct {
	db *gorm.DB
}

func NewCourseRepo(db *gorm.DB) CourseRepo {
	return &courseRepo{db: db}
}

// Get returns gorm.ErrRecordNotFound when the course does not exist.
func (r *courseRepo) Get(dbc DBContext, courseID string) (*models.Course, error) {
	var course models.Course
	err := conn(r.db, dbc).
		Preload("Enrollments", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("course_id = ?", courseID).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) GetMany(dbc DBContext, courseIDs []string) ([]models.Course, error) {
	if len(courseIDs) == 0 {
		return []models.Course{}, nil
	}
	var courses []models.Course
	err := conn(r.db, dbc).
		Preload("Enrollments").
		Where("course_id IN ?", courseIDs).
		Find(&courses).Error
	return courses, err
}

// List filters by category; "" and "all" return every course.
func (r *courseRepo) List(dbc DBContext, category string) ([]models.Course, error) {
	q := conn(r.db, dbc).Preload("Enrollments").Order("created_at DESC")
	if category != "" && category != "all" {
		q = q.Where("category = ?", category)
	}
	var courses []models.Course
	if err := q.Find(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepo) Create(dbc DBContext, course *models.Course) error {
	return conn(r.db, dbc).Omit(clause.Associations).Create(course).Error
}

// Replace overwrites the course document. Enrollments are never touched here;
// they only grow through AddEnrollment.
func (r *courseRepo) Replace(dbc DBContext, course *models.Course) error {
	return conn(r.db, dbc).Omit(clause.Associations).Save(course).Error
}

func (r *courseRepo) Delete(dbc DBContext, courseID string) error {
	run := func(tx *gorm.DB) error {
		if err := tx.Where("course_id = ?", courseID).Delete(&models.Enrollment{}).Error; err != nil {
			return err
		}
		res := tx.Where("course_id = ?", courseID).Delete(&models.Course{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	}
	if dbc.Tx != nil {
		return run(conn(r.db, dbc))
	}
	return conn(r.db, dbc).Transaction(run)
}

// AddEnrollment appends one access grant. It reports false when the same
// purchase was already recorded.
func (r *courseRepo) AddEnrollment(dbc DBContext, enrollment *models.Enrollment) (bool, error) {
	res := conn(r.db, dbc).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "course_id"}, {Name: "user_id"}, {Name: "transaction_id"}},
			DoNothing: true,
		}).
		Create(enrollment)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *courseRepo) ListEnrollments(dbc DBContext, courseID string) ([]models.Enrollment, error) {
	var rows []models.Enrollment
	err := conn(r.db, dbc).Where("course_id = ?", courseID).Order("id ASC").Find(&rows).Error
	return rows, err
}
