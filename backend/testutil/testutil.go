// Package testutil wires an in-memory database and fixtures for package tests.
package testutil

import (
	"testing"
	"time"

	"coursemarket/backend/models"
	"coursemarket/backend/utils"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const TestSecret = "test-session-secret"

// DB opens a fresh in-memory SQLite database with the full schema. A single
// connection is kept so concurrent transactions serialize like row locks would.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("failed to open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := utils.Migrate(db); err != nil {
		tb.Fatalf("failed to migrate test db: %v", err)
	}
	tb.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func Logger() *utils.Logger {
	return utils.NewNopLogger()
}

// Curriculum is two sections holding three and two chapters.
func Curriculum() []models.Section {
	return []models.Section{
		{SectionID: "sec-1", SectionTitle: "Getting started", Chapters: []models.Chapter{
			{ChapterID: "ch-1", Type: models.ChapterText, Title: "Welcome", Content: "Hello"},
			{ChapterID: "ch-2", Type: models.ChapterVideo, Title: "Tour", Video: "https://cdn.test/tour.mp4"},
			{ChapterID: "ch-3", Type: models.ChapterQuiz, Title: "Check yourself"},
		}},
		{SectionID: "sec-2", SectionTitle: "Fundamentals", Chapters: []models.Chapter{
			{ChapterID: "ch-4", Type: models.ChapterText, Title: "Vocabulary"},
			{ChapterID: "ch-5", Type: models.ChapterVideo, Title: "Walkthrough"},
		}},
	}
}

// SeedCourse stores a published course owned by teacherID with Curriculum().
func SeedCourse(tb testing.TB, db *gorm.DB, teacherID string) *models.Course {
	tb.Helper()
	course := &models.Course{
		CourseID:    uuid.NewString(),
		TeacherID:   teacherID,
		TeacherName: "Grace Hopper",
		Title:       "Compilers 101",
		Description: "From source to machine code",
		Category:    "Programming",
		Price:       4900,
		Level:       models.LevelBeginner,
		Status:      models.CourseStatusPublished,
		Sections:    datatypes.NewJSONType(Curriculum()),
		Extensions:  datatypes.NewJSONType(map[string]string{}),
	}
	if err := db.Create(course).Error; err != nil {
		tb.Fatalf("failed to seed course: %v", err)
	}
	return course
}

func Count(tb testing.TB, db *gorm.DB, model interface{}) int64 {
	tb.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		tb.Fatalf("count failed: %v", err)
	}
	return n
}

// SessionToken signs an HS256 session for userID with the given role.
func SessionToken(tb testing.TB, userID string, role models.UserType) string {
	tb.Helper()
	token, err := utils.GenerateSessionToken(userID, role, TestSecret, time.Hour)
	if err != nil {
		tb.Fatalf("failed to sign token: %v", err)
	}
	return token
}
