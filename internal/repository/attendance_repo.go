package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/quranakh/quranakh-api/internal/models"
)

// AttendanceRepository persists per-session attendance records.
type AttendanceRepository interface {
	// Record inserts the attendance row or replaces the status for the same
	// (class session, student) pair when the teacher corrects a mark.
	Record(ctx context.Context, record *models.AttendanceRecord) error
	ListForStudent(ctx context.Context, schoolID, studentID uint) ([]models.AttendanceRecord, error)
}

type attendanceRepository struct {
	db *gorm.DB
}

// NewAttendanceRepository instantiates the repository.
func NewAttendanceRepository(db *gorm.DB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

func (r *attendanceRepository) Record(ctx context.Context, record *models.AttendanceRecord) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "class_session_id"},
			{Name: "student_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"status", "note", "recorded_by"}),
	}).Create(record).Error
}

func (r *attendanceRepository) ListForStudent(ctx context.Context, schoolID, studentID uint) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	if err := r.db.WithContext(ctx).
		Where("school_id = ? AND student_id = ?", schoolID, studentID).
		Order("created_at ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}
