package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/quranakh/quranakh-api/internal/models"
)

// GradeRepository defines data operations for grades.
type GradeRepository interface {
	// Upsert inserts the grade or updates the existing row for the same
	// (assignment, student, criterion) tuple.
	Upsert(ctx context.Context, grade *models.Grade) error
	ListForAssignmentStudent(ctx context.Context, schoolID, assignmentID, studentID uint) ([]models.Grade, error)
	ListForStudent(ctx context.Context, schoolID, studentID uint) ([]models.Grade, error)
	CountForAssignment(ctx context.Context, schoolID, assignmentID uint) (int64, error)
}

type gradeRepository struct {
	db *gorm.DB
}

// NewGradeRepository instantiates the repository.
func NewGradeRepository(db *gorm.DB) GradeRepository {
	return &gradeRepository{db: db}
}

func (r *gradeRepository) Upsert(ctx context.Context, grade *models.Grade) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "assignment_id"},
			{Name: "student_id"},
			{Name: "criterion_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"score", "max_score", "comments", "graded_by", "updated_at"}),
	}).Create(grade).Error
}

func (r *gradeRepository) ListForAssignmentStudent(ctx context.Context, schoolID, assignmentID, studentID uint) ([]models.Grade, error) {
	var grades []models.Grade
	if err := r.db.WithContext(ctx).
		Where("school_id = ? AND assignment_id = ? AND student_id = ?", schoolID, assignmentID, studentID).
		Order("criterion_id ASC").
		Find(&grades).Error; err != nil {
		return nil, err
	}

	return grades, nil
}

func (r *gradeRepository) ListForStudent(ctx context.Context, schoolID, studentID uint) ([]models.Grade, error) {
	var grades []models.Grade
	if err := r.db.WithContext(ctx).
		Where("school_id = ? AND student_id = ?", schoolID, studentID).
		Order("assignment_id ASC, criterion_id ASC").
		Find(&grades).Error; err != nil {
		return nil, err
	}

	return grades, nil
}

func (r *gradeRepository) CountForAssignment(ctx context.Context, schoolID, assignmentID uint) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Grade{}).
		Where("school_id = ? AND assignment_id = ?", schoolID, assignmentID).
		Count(&total).Error; err != nil {
		return 0, err
	}

	return total, nil
}
