package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/quranakh/quranakh-api/internal/models"
)

// ErrStaleStatus indicates a guarded status write lost an optimistic race: the
// assignment's persisted status no longer matches the status it was validated
// against.
var ErrStaleStatus = errors.New("assignment status changed since read")

// AssignmentFilter narrows assignment queries.
type AssignmentFilter struct {
	StudentID *uint
	TeacherID *uint
	Status    *models.AssignmentStatus
}

// AssignmentRepository defines persistence operations for assignments. Every
// read is scoped to a school; callers supply the tenant boundary.
type AssignmentRepository interface {
	// CreateWithEvent persists a new assignment and its creation event in one
	// database transaction so the event log never diverges from the status.
	CreateWithEvent(ctx context.Context, assignment *models.Assignment, event *models.TransitionEvent) error
	GetByID(ctx context.Context, schoolID, id uint) (models.Assignment, error)
	List(ctx context.Context, schoolID uint, filter AssignmentFilter) ([]models.Assignment, error)
	Update(ctx context.Context, assignment *models.Assignment) error
	// Transition applies the already-validated status change guarded by the
	// status the caller read, appending the transition event in the same
	// database transaction. Returns ErrStaleStatus when the guard fails;
	// neither write applies in that case.
	Transition(ctx context.Context, assignment *models.Assignment, from models.AssignmentStatus, event *models.TransitionEvent) error
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository instantiates a GORM-backed repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) CreateWithEvent(ctx context.Context, assignment *models.Assignment, event *models.TransitionEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(assignment).Error; err != nil {
			return err
		}

		event.AssignmentID = assignment.ID
		return tx.Create(event).Error
	})
}

func (r *assignmentRepository) GetByID(ctx context.Context, schoolID, id uint) (models.Assignment, error) {
	var assignment models.Assignment
	if err := r.db.WithContext(ctx).
		Where("school_id = ?", schoolID).
		First(&assignment, id).Error; err != nil {
		return models.Assignment{}, err
	}

	return assignment, nil
}

func (r *assignmentRepository) List(ctx context.Context, schoolID uint, filter AssignmentFilter) ([]models.Assignment, error) {
	query := r.db.WithContext(ctx).Model(&models.Assignment{}).Where("school_id = ?", schoolID)

	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}

	if filter.TeacherID != nil {
		query = query.Where("teacher_id = ?", *filter.TeacherID)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var assignments []models.Assignment
	if err := query.Order("due_at ASC").Find(&assignments).Error; err != nil {
		return nil, err
	}

	return assignments, nil
}

func (r *assignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Save(assignment).Error
}

func (r *assignmentRepository) Transition(ctx context.Context, assignment *models.Assignment, from models.AssignmentStatus, event *models.TransitionEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Assignment{}).
			Where("id = ? AND school_id = ? AND status = ?", assignment.ID, assignment.SchoolID, from).
			Updates(map[string]interface{}{
				"status":       assignment.Status,
				"late":         assignment.Late,
				"reopen_count": assignment.ReopenCount,
				"updated_at":   assignment.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStaleStatus
		}

		return tx.Create(event).Error
	})
}
