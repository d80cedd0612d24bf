package models

import (
	"strings"
	"time"
)

// AttendanceStatus marks a student's presence for one class session.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceExcused AttendanceStatus = "excused"
)

// ParseAttendanceStatus normalises a raw attendance status, returning false
// for values outside the closed set.
func ParseAttendanceStatus(raw string) (AttendanceStatus, bool) {
	status := AttendanceStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch status {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused:
		return status, true
	default:
		return "", false
	}
}

// AttendanceRecord captures one student's presence at one class session.
type AttendanceRecord struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	SchoolID       uint             `gorm:"not null;index" json:"school_id"`
	ClassSessionID uint             `gorm:"not null;uniqueIndex:idx_attendance_session" json:"class_session_id"`
	StudentID      uint             `gorm:"not null;uniqueIndex:idx_attendance_session" json:"student_id"`
	Status         AttendanceStatus `gorm:"size:16;not null" json:"status"`
	Note           string           `gorm:"type:text" json:"note"`
	RecordedBy     uint             `gorm:"not null" json:"recorded_by"`
	CreatedAt      time.Time        `json:"created_at"`
}
