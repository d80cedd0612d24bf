package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/quranakh/quranakh-api/internal/dto"
	"github.com/quranakh/quranakh-api/internal/models"
	"github.com/quranakh/quranakh-api/internal/repository"
)

// ErrUnknownAttendanceStatus indicates the status value is outside the closed set.
var ErrUnknownAttendanceStatus = errors.New("unknown attendance status")

// AttendanceService records class-session attendance and summarises it.
type AttendanceService interface {
	Record(ctx context.Context, schoolID uint, actor Actor, payload dto.AttendanceRecordRequest) (dto.AttendanceRecordResponse, error)
	Summary(ctx context.Context, schoolID, studentID uint) (dto.AttendanceSummary, error)
}

type attendanceService struct {
	records   repository.AttendanceRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAttendanceService builds the attendance service.
func NewAttendanceService(records repository.AttendanceRepository, validate *validator.Validate, logger zerolog.Logger) AttendanceService {
	return &attendanceService{
		records:   records,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "attendance_service").Logger(),
		now:       time.Now,
	}
}

func (s *attendanceService) Record(ctx context.Context, schoolID uint, actor Actor, payload dto.AttendanceRecordRequest) (dto.AttendanceRecordResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AttendanceRecordResponse{}, err
	}

	if !actor.Role.IsStaff() {
		return dto.AttendanceRecordResponse{}, ErrForbidden
	}

	status, ok := models.ParseAttendanceStatus(payload.Status)
	if !ok {
		return dto.AttendanceRecordResponse{}, fmt.Errorf("%w: %q", ErrUnknownAttendanceStatus, payload.Status)
	}

	record := models.AttendanceRecord{
		SchoolID:       schoolID,
		ClassSessionID: payload.ClassSessionID,
		StudentID:      payload.StudentID,
		Status:         status,
		Note:           strings.TrimSpace(s.sanitizer.Sanitize(payload.Note)),
		RecordedBy:     actor.ID,
	}

	if err := s.records.Record(ctx, &record); err != nil {
		return dto.AttendanceRecordResponse{}, err
	}

	s.logger.Info().
		Uint("class_session_id", record.ClassSessionID).
		Uint("student_id", record.StudentID).
		Str("status", string(record.Status)).
		Msg("attendance recorded")

	return dto.NewAttendanceRecordResponse(record), nil
}

func (s *attendanceService) Summary(ctx context.Context, schoolID, studentID uint) (dto.AttendanceSummary, error) {
	records, err := s.records.ListForStudent(ctx, schoolID, studentID)
	if err != nil {
		return dto.AttendanceSummary{}, err
	}

	summary := dto.AttendanceSummary{
		StudentID:     studentID,
		TotalSessions: len(records),
	}

	for _, record := range records {
		switch record.Status {
		case models.AttendancePresent:
			summary.Present++
		case models.AttendanceAbsent:
			summary.Absent++
		case models.AttendanceLate:
			summary.Late++
		case models.AttendanceExcused:
			summary.Excused++
		}
	}

	// Late arrivals still count as attended; excused absences do not count
	// against the student.
	if counted := summary.TotalSessions - summary.Excused; counted > 0 {
		summary.AttendanceRate = roundOneDecimal(float64(summary.Present+summary.Late) / float64(counted) * 100)
	}

	return summary, nil
}
