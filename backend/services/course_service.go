package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"path"
	"strconv"
	"strings"

	"coursemarket/backend/models"
	"coursemarket/backend/repository"
	"coursemarket/backend/utils"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultCourseTitle    = "Untitled Course"
	defaultCourseCategory = "Uncategorized"

	// largest display price whose minor-unit value still fits in an int64
	maxDisplayPrice = math.MaxInt64 / 100
)

// DisplayPrice is a price in display units as sent by clients, either a JSON
// string ("49") or a number (49).
type DisplayPrice string

func (p *DisplayPrice) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = DisplayPrice(s)
		return nil
	}
	*p = DisplayPrice(data)
	return nil
}

// MinorUnits parses the price as a whole number and converts it to cents.
func (p DisplayPrice) MinorUnits() (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(string(p)), 10, 64)
	if errors.Is(err, strconv.ErrRange) {
		return 0, utils.NewValidationError("Price is too large")
	}
	if err != nil {
		return 0, utils.NewValidationError("Price must be a whole number")
	}
	if n < 0 {
		return 0, utils.NewValidationError("Price must not be negative")
	}
	if n > maxDisplayPrice {
		return 0, utils.NewValidationError("Price is too large")
	}
	return n * 100, nil
}

// SectionList accepts the curriculum as a JSON array or as a JSON-encoded
// string holding one, which is how multipart forms carry it.
type SectionList []models.Section

func (l *SectionList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		data = []byte(raw)
	}
	var sections []models.Section
	if err := json.Unmarshal(data, &sections); err != nil {
		return err
	}
	*l = sections
	return nil
}

// ExtensionMap is the free-form key/value bag on a course. Like SectionList it
// also accepts a JSON-encoded string.
type ExtensionMap map[string]string

func (m *ExtensionMap) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		data = []byte(raw)
	}
	var values map[string]string
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	*m = values
	return nil
}

type CreateCourseInput struct {
	TeacherName string `json:"teacherName" validate:"required,max=200"`
}

// UpdateCourseInput lists every field a teacher may change. Absent fields are
// left as stored; Sections replaces the curriculum wholesale.
type UpdateCourseInput struct {
	Title       *string              `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string              `json:"description" validate:"omitempty,max=5000"`
	Category    *string              `json:"category" validate:"omitempty,min=1,max=100"`
	Image       *string              `json:"image" validate:"omitempty,max=2048"`
	Price       *DisplayPrice        `json:"price"`
	Level       *models.CourseLevel  `json:"level" validate:"omitempty,oneof=Beginner Intermediate Advanced"`
	Status      *models.CourseStatus `json:"status" validate:"omitempty,oneof=draft published"`
	Sections    *SectionList         `json:"sections" validate:"omitempty,dive"`
	Extensions  ExtensionMap         `json:"extensions" validate:"omitempty,max=16,dive,keys,min=1,max=64,endkeys,max=1024"`
}

type UploadURLInput struct {
	FileName string `json:"fileName" validate:"required,max=255"`
	FileType string `json:"fileType" validate:"required,max=100"`
}

type UploadURL struct {
	UploadURL string `json:"uploadUrl"`
	VideoURL  string `json:"videoUrl"`
}

type CourseService struct {
	courses repository.CourseRepo
	cache   CourseCache
	signer  UploadSigner
	log     *utils.Logger
}

func NewCourseService(courses repository.CourseRepo, cache CourseCache, signer UploadSigner, log *utils.Logger) *CourseService {
	if cache == nil {
		cache = nopCache{}
	}
	return &CourseService{
		courses: courses,
		cache:   cache,
		signer:  signer,
		log:     log.With("service", "CourseService"),
	}
}

func (s *CourseService) List(ctx context.Context, category string) ([]models.Course, error) {
	courses, err := s.courses.List(repository.Ctx(ctx), strings.TrimSpace(category))
	if err != nil {
		return nil, utils.NewInternalError("Error retrieving courses", err)
	}
	return courses, nil
}

// Get reads through the course cache.
func (s *CourseService) Get(ctx context.Context, courseID string) (*models.Course, error) {
	if course, ok := s.cache.Get(ctx, courseID); ok {
		return course, nil
	}
	course, err := s.load(ctx, courseID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, course)
	return course, nil
}

// GetOwned loads the course from the database and checks that userID owns it.
// A missing course is NotFound; someone else's course is Forbidden.
func (s *CourseService) GetOwned(ctx context.Context, courseID, userID string) (*models.Course, error) {
	course, err := s.load(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !course.IsOwnedBy(userID) {
		return nil, utils.NewForbiddenError("Not authorized to modify this course")
	}
	return course, nil
}

func (s *CourseService) load(ctx context.Context, courseID string) (*models.Course, error) {
	if strings.TrimSpace(courseID) == "" {
		return nil, utils.NewValidationError("Course ID is required")
	}
	course, err := s.courses.Get(repository.Ctx(ctx), courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError("Course not found")
		}
		return nil, utils.NewInternalError("Error retrieving course", err)
	}
	return course, nil
}

// Create stores an empty draft owned by the calling teacher.
func (s *CourseService) Create(ctx context.Context, teacherID string, in CreateCourseInput) (*models.Course, error) {
	if teacherID == "" {
		return nil, utils.NewValidationError("Teacher ID is required")
	}
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}

	course := &models.Course{
		CourseID:    uuid.NewString(),
		TeacherID:   teacherID,
		TeacherName: strings.TrimSpace(in.TeacherName),
		Title:       defaultCourseTitle,
		Category:    defaultCourseCategory,
		Price:       0,
		Level:       models.LevelBeginner,
		Status:      models.CourseStatusDraft,
		Sections:    datatypes.NewJSONType([]models.Section{}),
		Extensions:  datatypes.NewJSONType(map[string]string{}),
		Enrollments: []models.Enrollment{},
	}
	if err := s.courses.Create(repository.Ctx(ctx), course); err != nil {
		return nil, utils.NewInternalError("Error creating course", err)
	}
	s.log.Info("course created", "course_id", course.CourseID, "teacher_id", teacherID)
	return course, nil
}

// Update applies in to an already-authorized course. Every check runs before
// the single write, so a rejected update leaves the stored course untouched.
func (s *CourseService) Update(ctx context.Context, course *models.Course, in UpdateCourseInput) (*models.Course, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}

	updated := *course
	if in.Price != nil {
		cents, err := in.Price.MinorUnits()
		if err != nil {
			return nil, err
		}
		updated.Price = cents
	}
	if in.Title != nil {
		updated.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		updated.Description = *in.Description
	}
	if in.Category != nil {
		updated.Category = strings.TrimSpace(*in.Category)
	}
	if in.Image != nil {
		updated.Image = *in.Image
	}
	if in.Level != nil {
		updated.Level = *in.Level
	}
	if in.Status != nil {
		updated.Status = *in.Status
	}
	if in.Sections != nil {
		updated.Sections = datatypes.NewJSONType(AssignCurriculumIDs(*in.Sections))
	}
	if in.Extensions != nil {
		updated.Extensions = datatypes.NewJSONType(map[string]string(in.Extensions))
	}

	if err := s.courses.Replace(repository.Ctx(ctx), &updated); err != nil {
		return nil, utils.NewInternalError("Error updating course", err)
	}
	s.cache.Invalidate(ctx, updated.CourseID)
	return &updated, nil
}

// AssignCurriculumIDs gives every section and chapter without an id a new
// UUID. Existing ids are kept as they are.
func AssignCurriculumIDs(sections []models.Section) []models.Section {
	out := make([]models.Section, len(sections))
	for i, section := range sections {
		if strings.TrimSpace(section.SectionID) == "" {
			section.SectionID = uuid.NewString()
		}
		chapters := make([]models.Chapter, len(section.Chapters))
		for j, chapter := range section.Chapters {
			if strings.TrimSpace(chapter.ChapterID) == "" {
				chapter.ChapterID = uuid.NewString()
			}
			chapters[j] = chapter
		}
		section.Chapters = chapters
		out[i] = section
	}
	return out
}

func (s *CourseService) Delete(ctx context.Context, course *models.Course) error {
	if err := s.courses.Delete(repository.Ctx(ctx), course.CourseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NewNotFoundError("Course not found")
		}
		return utils.NewInternalError("Error deleting course", err)
	}
	s.cache.Invalidate(ctx, course.CourseID)
	s.log.Info("course deleted", "course_id", course.CourseID)
	return nil
}

// UploadURL signs a one-off upload for a chapter video. Only the resulting
// public URL is ever stored on the course.
func (s *CourseService) UploadURL(ctx context.Context, course *models.Course, sectionID, chapterID string, in UploadURLInput) (*UploadURL, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	if !course.FindChapter(sectionID, chapterID) {
		return nil, utils.NewNotFoundError("Chapter not found")
	}
	if s.signer == nil {
		return nil, utils.NewUpstreamError("Error generating upload URL", errors.New("object storage is not configured"))
	}

	key := fmt.Sprintf("videos/%s/%s", uuid.NewString(), path.Base(in.FileName))
	signed, err := s.signer.SignUpload(ctx, key, in.FileType)
	if err != nil {
		return nil, utils.NewUpstreamError("Error generating upload URL", err)
	}
	return &UploadURL{UploadURL: signed, VideoURL: s.signer.PublicURL(key)}, nil
}
