package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/quranakh/quranakh-api/internal/models"
)

// SubmissionRepository defines data operations for submissions.
type SubmissionRepository interface {
	GetActive(ctx context.Context, schoolID, assignmentID uint) (models.Submission, error)
	ListForAssignment(ctx context.Context, schoolID, assignmentID uint) ([]models.Submission, error)
	// CreateWithTransition persists the submission, supersedes any prior
	// active submission, and applies the viewed -> submitted status change
	// plus its event as one database transaction. If any write fails nothing
	// applies; a lost status race returns ErrStaleStatus.
	CreateWithTransition(ctx context.Context, submission *models.Submission, assignment *models.Assignment, from models.AssignmentStatus, event *models.TransitionEvent) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) GetActive(ctx context.Context, schoolID, assignmentID uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).
		Where("school_id = ? AND assignment_id = ? AND superseded = ?", schoolID, assignmentID, false).
		Order("created_at DESC").
		First(&submission).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) ListForAssignment(ctx context.Context, schoolID, assignmentID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.db.WithContext(ctx).
		Where("school_id = ? AND assignment_id = ?", schoolID, assignmentID).
		Order("created_at ASC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) CreateWithTransition(ctx context.Context, submission *models.Submission, assignment *models.Assignment, from models.AssignmentStatus, event *models.TransitionEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Submission{}).
			Where("assignment_id = ? AND superseded = ?", assignment.ID, false).
			Update("superseded", true).Error; err != nil {
			return err
		}

		if err := tx.Create(submission).Error; err != nil {
			return err
		}

		result := tx.Model(&models.Assignment{}).
			Where("id = ? AND school_id = ? AND status = ?", assignment.ID, assignment.SchoolID, from).
			Updates(map[string]interface{}{
				"status":     assignment.Status,
				"late":       assignment.Late,
				"updated_at": assignment.UpdatedAt,
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
