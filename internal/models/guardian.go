package models

import "time"

// GuardianLink connects a parent account to one of their children. Parent
// gradebook reads are scoped to linked children only.
type GuardianLink struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SchoolID  uint      `gorm:"not null;index" json:"school_id"`
	ParentID  uint      `gorm:"not null;uniqueIndex:idx_guardian_pair" json:"parent_id"`
	StudentID uint      `gorm:"not null;uniqueIndex:idx_guardian_pair" json:"student_id"`
	CreatedAt time.Time `json:"created_at"`
}
