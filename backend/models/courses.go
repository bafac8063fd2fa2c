package models

import (
	"time"

	"gorm.io/datatypes"
)

type CourseStatus string

const (
	CourseStatusDraft     CourseStatus = "draft"
	CourseStatusPublished CourseStatus = "published"
)

type CourseLevel string

const (
	LevelBeginner     CourseLevel = "Beginner"
	LevelIntermediate CourseLevel = "Intermediate"
	LevelAdvanced     CourseLevel = "Advanced"
)

type ChapterType string

const (
	ChapterText  ChapterType = "Text"
	ChapterQuiz  ChapterType = "Quiz"
	ChapterVideo ChapterType = "Video"
)

// Course is owned by its teacher. Sections are stored as one JSON document so a
// curriculum update replaces them wholesale; enrollments live in their own table
// and are only ever appended.
type Course struct {
	CourseID    string                                `gorm:"column:course_id;primaryKey" json:"courseId"`
	TeacherID   string                                `gorm:"index;not null" json:"teacherId"`
	TeacherName string                                `gorm:"not null" json:"teacherName"`
	Title       string                                `gorm:"not null" json:"title"`
	Description string                                `json:"description"`
	Category    string                                `gorm:"index;not null" json:"category"`
	Image       string                                `json:"image"`
	Price       int64                                 `gorm:"not null;default:0" json:"price"`
	Level       CourseLevel                           `gorm:"not null" json:"level"`
	Status      CourseStatus                          `gorm:"not null;default:'draft'" json:"status"`
	Sections    datatypes.JSONType[[]Section]         `json:"sections"`
	Extensions  datatypes.JSONType[map[string]string] `json:"extensions"`
	Enrollments []Enrollment                          `gorm:"foreignKey:CourseID;references:CourseID;constraint:OnDelete:CASCADE" json:"enrollments"`
	CreatedAt   time.Time                             `json:"createdAt"`
	UpdatedAt   time.Time                             `json:"updatedAt"`
}

type Section struct {
	SectionID          string    `json:"sectionId"`
	SectionTitle       string    `json:"sectionTitle" validate:"required"`
	SectionDescription string    `json:"sectionDescription,omitempty"`
	Chapters           []Chapter `json:"chapters" validate:"dive"`
}

type Chapter struct {
	ChapterID string      `json:"chapterId"`
	Type      ChapterType `json:"type" validate:"required,oneof=Text Quiz Video"`
	Title     string      `json:"title" validate:"required"`
	Content   string      `json:"content"`
	Video     string      `json:"video,omitempty"`
}

// Enrollment is one access grant. Rows are unique per purchase, so re-driving the
// same purchase is a no-op while a second purchase appends a second row.
type Enrollment struct {
	ID            uint      `gorm:"primaryKey" json:"-"`
	CourseID      string    `gorm:"not null;uniqueIndex:idx_enrollment_purchase" json:"-"`
	UserID        string    `gorm:"not null;uniqueIndex:idx_enrollment_purchase" json:"userId"`
	TransactionID string    `gorm:"not null;uniqueIndex:idx_enrollment_purchase" json:"-"`
	CreatedAt     time.Time `json:"-"`
}

func (Enrollment) TableName() string {
	return "course_enrollments"
}

// SectionList returns the curriculum, never nil.
func (c *Course) SectionList() []Section {
	sections := c.Sections.Data()
	if sections == nil {
		return []Section{}
	}
	return sections
}

func (c *Course) IsOwnedBy(userID string) bool {
	return userID != "" && c.TeacherID == userID
}

func (c *Course) HasLearner(userID string) bool {
	for _, e := range c.Enrollments {
		if e.UserID == userID {
			return true
		}
	}
	return false
}

// FindChapter reports whether the chapter exists under the given section.
func (c *Course) FindChapter(sectionID, chapterID string) bool {
	for _, s := range c.SectionList() {
		if s.SectionID != sectionID {
			continue
		}
		for _, ch := range s.Chapters {
			if ch.ChapterID == chapterID {
				return true
			}
		}
	}
	return false
}
