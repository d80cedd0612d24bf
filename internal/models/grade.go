package models

import "time"

// Grade scores one criterion of one assignment for one student. The
// (assignment, student, criterion) tuple is unique; repeat grading upserts.
type Grade struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SchoolID     uint      `gorm:"not null;index" json:"school_id"`
	AssignmentID uint      `gorm:"not null;uniqueIndex:idx_grade_tuple" json:"assignment_id"`
	StudentID    uint      `gorm:"not null;uniqueIndex:idx_grade_tuple" json:"student_id"`
	CriterionID  uint      `gorm:"not null;uniqueIndex:idx_grade_tuple" json:"criterion_id"`
	Score        float64   `gorm:"not null" json:"score"`
	MaxScore     float64   `gorm:"not null" json:"max_score"`
	Comments     string    `gorm:"type:text" json:"comments"`
	GradedBy     uint      `gorm:"not null" json:"graded_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
