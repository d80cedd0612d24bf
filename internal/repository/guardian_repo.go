package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/quranakh/quranakh-api/internal/models"
)

// GuardianRepository resolves parent-to-child links.
type GuardianRepository interface {
	Link(ctx context.Context, link *models.GuardianLink) error
	ListChildren(ctx context.Context, schoolID, parentID uint) ([]uint, error)
	IsLinked(ctx context.Context, schoolID, parentID, studentID uint) (bool, error)
}

type guardianRepository struct {
	db *gorm.DB
}

// NewGuardianRepository instantiates the repository.
func NewGuardianRepository(db *gorm.DB) GuardianRepository {
	return &guardianRepository{db: db}
}

func (r *guardianRepository) Link(ctx context.Context, link *models.GuardianLink) error {
	return r.db.WithContext(ctx).Create(link).Error
}

func (r *guardianRepository) ListChildren(ctx context.Context, schoolID, parentID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.GuardianLink{}).
		Where("school_id = ? AND parent_id = ?", schoolID, parentID).
		Order("student_id ASC").
		Pluck("student_id", &ids).Error; err != nil {
		return nil, err
	}

	return ids, nil
}

func (r *guardianRepository) IsLinked(ctx context.Context, schoolID, parentID, studentID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.GuardianLink{}).
		Where("school_id = ? AND parent_id = ? AND student_id = ?", schoolID, parentID, studentID).
		Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}
