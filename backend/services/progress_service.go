package services

import (
	"context"
	"errors"
	"time"

	"coursemarket/backend/models"
	"coursemarket/backend/repository"
	"coursemarket/backend/utils"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type UpdateProgressInput struct {
	Sections []models.SectionProgress `json:"sections" validate:"required,dive"`
}

type ProgressService struct {
	progress repository.ProgressRepo
	courses  repository.CourseRepo
	log      *utils.Logger
	now      func() time.Time
}

func NewProgressService(progress repository.ProgressRepo, courses repository.CourseRepo, log *utils.Logger) *ProgressService {
	return &ProgressService{
		progress: progress,
		courses:  courses,
		log:      log.With("service", "ProgressService"),
		now:      time.Now,
	}
}

// EnrolledCourses returns the courses the user holds a progress record for.
func (s *ProgressService) EnrolledCourses(ctx context.Context, userID string) ([]models.Course, error) {
	dbc := repository.Ctx(ctx)
	records, err := s.progress.ListByUser(dbc, userID)
	if err != nil {
		return nil, utils.NewInternalError("Error retrieving enrolled courses", err)
	}
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.CourseID)
	}
	courses, err := s.courses.GetMany(dbc, ids)
	if err != nil {
		return nil, utils.NewInternalError("Error retrieving enrolled courses", err)
	}
	return courses, nil
}

func (s *ProgressService) Get(ctx context.Context, userID, courseID string) (*models.CourseProgress, error) {
	progress, err := s.progress.Get(repository.Ctx(ctx), userID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError("Course progress not found for this user")
		}
		return nil, utils.NewInternalError("Error retrieving user course progress", err)
	}
	return progress, nil
}

// Update merges chapter completion into the stored record and recomputes the
// overall percentage. Progress only exists after a purchase, so an unknown
// (user, course) pair is NotFound.
func (s *ProgressService) Update(ctx context.Context, userID, courseID string, in UpdateProgressInput) (*models.CourseProgress, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	progress, err := s.Get(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	sections := models.MergeSectionProgress(progress.Sections.Data(), in.Sections)
	progress.Sections = datatypes.NewJSONType(sections)
	progress.OverallProgress = models.CalculateOverallProgress(sections)
	progress.LastAccessedTimestamp = s.now().UTC()

	if err := s.progress.Save(repository.Ctx(ctx), progress); err != nil {
		return nil, utils.NewInternalError("Error updating user course progress", err)
	}
	return progress, nil
}
