package models

import (
	"time"

	"gorm.io/datatypes"
)

// Attachment describes one file uploaded alongside a submission.
type Attachment struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	FileName string `json:"file_name"`
	Size     int64  `json:"size"`
}

// Submission holds the body a student turned in for an assignment. At most one
// submission per assignment is active; a resubmission after reopening marks
// the prior row superseded but keeps it for history.
type Submission struct {
	ID           uint                            `gorm:"primaryKey" json:"id"`
	SchoolID     uint                            `gorm:"not null;index" json:"school_id"`
	AssignmentID uint                            `gorm:"not null;index" json:"assignment_id"`
	StudentID    uint                            `gorm:"not null" json:"student_id"`
	Text         string                          `gorm:"type:text" json:"text"`
	Attachments  datatypes.JSONSlice[Attachment] `gorm:"type:json" json:"attachments"`
	Superseded   bool                            `gorm:"not null;default:false" json:"superseded"`
	CreatedAt    time.Time                       `json:"created_at"`
}
