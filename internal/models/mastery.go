package models

import (
	"strings"
	"time"
)

// MasteryLevel grades how well a student has internalised an ayah range.
type MasteryLevel string

const (
	MasteryNotStarted MasteryLevel = "not_started"
	MasteryLearning   MasteryLevel = "learning"
	MasteryProficient MasteryLevel = "proficient"
	MasteryMastered   MasteryLevel = "mastered"
)

// ParseMasteryLevel normalises a raw level string, returning false for values
// outside the closed set.
func ParseMasteryLevel(raw string) (MasteryLevel, bool) {
	level := MasteryLevel(strings.ToLower(strings.TrimSpace(raw)))
	switch level {
	case MasteryNotStarted, MasteryLearning, MasteryProficient, MasteryMastered:
		return level, true
	default:
		return "", false
	}
}

// Rank orders mastery levels from not_started (0) to mastered (3). Heatmap
// scores are built from these ranks.
func (l MasteryLevel) Rank() int {
	switch l {
	case MasteryLearning:
		return 1
	case MasteryProficient:
		return 2
	case MasteryMastered:
		return 3
	default:
		return 0
	}
}

// MasteryRecord tracks one student's mastery of a contiguous ayah range.
type MasteryRecord struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	SchoolID  uint         `gorm:"not null;index" json:"school_id"`
	StudentID uint         `gorm:"not null;index" json:"student_id"`
	Surah     int          `gorm:"not null" json:"surah"`
	AyahFrom  int          `gorm:"not null" json:"ayah_from"`
	AyahTo    int          `gorm:"not null" json:"ayah_to"`
	Level     MasteryLevel `gorm:"size:16;not null" json:"level"`
	UpdatedBy uint         `gorm:"not null" json:"updated_by"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
