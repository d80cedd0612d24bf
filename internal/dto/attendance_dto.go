package dto

import (
	"time"

	"github.com/quranakh/quranakh-api/internal/models"
)

// AttendanceRecordRequest describes the payload for marking attendance.
type AttendanceRecordRequest struct {
	ClassSessionID uint   `json:"class_session_id" validate:"required"`
	StudentID      uint   `json:"student_id" validate:"required"`
	Status         string `json:"status" validate:"required"`
	Note           string `json:"note" validate:"omitempty,max=1000"`
}

// AttendanceRecordResponse serializes one attendance record.
type AttendanceRecordResponse struct {
	ID             uint      `json:"id"`
	ClassSessionID uint      `json:"class_session_id"`
	StudentID      uint      `json:"student_id"`
	Status         string    `json:"status"`
	Note           string    `json:"note,omitempty"`
	RecordedBy     uint      `json:"recorded_by"`
	CreatedAt      time.Time `json:"created_at"`
}

// AttendanceSummary aggregates one student's attendance records.
type AttendanceSummary struct {
	StudentID      uint    `json:"student_id"`
	TotalSessions  int     `json:"total_sessions"`
	Present        int     `json:"present"`
	Absent         int     `json:"absent"`
	Late           int     `json:"late"`
	Excused        int     `json:"excused"`
	AttendanceRate float64 `json:"attendance_rate"`
}

// NewAttendanceRecordResponse converts a model into a DTO.
func NewAttendanceRecordResponse(model models.AttendanceRecord) AttendanceRecordResponse {
	return AttendanceRecordResponse{
		ID:             model.ID,
		ClassSessionID: model.ClassSessionID,
		StudentID:      model.StudentID,
		Status:         string(model.Status),
		Note:           model.Note,
		RecordedBy:     model.RecordedBy,
		CreatedAt:      model.CreatedAt,
	}
}
