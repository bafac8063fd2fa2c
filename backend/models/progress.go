package models

import (
	"math"
	"time"

	"gorm.io/datatypes"
)

type CourseProgress struct {
	UserID                string                                `gorm:"primaryKey" json:"userId"`
	CourseID              string                                `gorm:"primaryKey" json:"courseId"`
	EnrollmentDate        time.Time                             `gorm:"not null" json:"enrollmentDate"`
	OverallProgress       float64                               `gorm:"not null;default:0" json:"overallProgress"`
	Sections              datatypes.JSONType[[]SectionProgress] `json:"sections"`
	LastAccessedTimestamp time.Time                             `gorm:"not null" json:"lastAccessedTimestamp"`
}

func (CourseProgress) TableName() string {
	return "course_progress"
}

type SectionProgress struct {
	SectionID string            `json:"sectionId" validate:"required"`
	Chapters  []ChapterProgress `json:"chapters" validate:"dive"`
}

type ChapterProgress struct {
	ChapterID string `json:"chapterId" validate:"required"`
	Completed bool   `json:"completed"`
}

// NewProgressSnapshot mirrors the curriculum with every chapter incomplete. The
// result shares nothing with sections, so later course edits do not leak in.
func NewProgressSnapshot(sections []Section) []SectionProgress {
	snapshot := make([]SectionProgress, 0, len(sections))
	for _, s := range sections {
		chapters := make([]ChapterProgress, 0, len(s.Chapters))
		for _, ch := range s.Chapters {
			chapters = append(chapters, ChapterProgress{ChapterID: ch.ChapterID})
		}
		snapshot = append(snapshot, SectionProgress{SectionID: s.SectionID, Chapters: chapters})
	}
	return snapshot
}

// CalculateOverallProgress returns the completed share of chapters in [0, 100].
func CalculateOverallProgress(sections []SectionProgress) float64 {
	var total, completed int
	for _, s := range sections {
		for _, ch := range s.Chapters {
			total++
			if ch.Completed {
				completed++
			}
		}
	}
	if total == 0 {
		return 0
	}
	pct := float64(completed) / float64(total) * 100
	return math.Round(pct*100) / 100
}

// MergeSectionProgress applies updates onto current by section and chapter id.
// Sections or chapters unknown to current are appended.
func MergeSectionProgress(current, updates []SectionProgress) []SectionProgress {
	merged := make([]SectionProgress, len(current))
	index := make(map[string]int, len(current))
	for i, s := range current {
		merged[i] = SectionProgress{
			SectionID: s.SectionID,
			Chapters:  append([]ChapterProgress(nil), s.Chapters...),
		}
		index[s.SectionID] = i
	}

	for _, upd := range updates {
		i, ok := index[upd.SectionID]
		if !ok {
			merged = append(merged, SectionProgress{
				SectionID: upd.SectionID,
				Chapters:  append([]ChapterProgress(nil), upd.Chapters...),
			})
			index[upd.SectionID] = len(merged) - 1
			continue
		}
		for _, ch := range upd.Chapters {
			found := false
			for j := range merged[i].Chapters {
				if merged[i].Chapters[j].ChapterID == ch.ChapterID {
					merged[i].Chapters[j].Completed = ch.Completed
					found = true
					break
				}
			}
			if !found {
				merged[i].Chapters = append(merged[i].Chapters, ch)
			}
		}
	}
	return merged
}
