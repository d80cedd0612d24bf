package models

import "time"

// Assignment represents a memorisation or study task given to one student.
type Assignment struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	SchoolID    uint             `gorm:"not null;index" json:"school_id"`
	StudentID   uint             `gorm:"not null;index" json:"student_id"`
	TeacherID   uint             `gorm:"not null" json:"teacher_id"`
	Title       string           `gorm:"size:255;not null" json:"title"`
	Description string           `gorm:"type:text" json:"description"`
	DueAt       time.Time        `gorm:"not null" json:"due_at"`
	Status      AssignmentStatus `gorm:"size:32;not null;default:assigned" json:"status"`
	Late        bool             `gorm:"not null;default:false" json:"late"`
	ReopenCount int              `gorm:"not null;default:0" json:"reopen_count"`
	RubricID    *uint            `gorm:"index" json:"rubric_id"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// IsPastDue returns true when the reference time falls after the deadline.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return reference.After(a.DueAt)
}
