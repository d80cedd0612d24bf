package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/quranakh/quranakh-api/internal/models"
)

// RubricRepository defines persistence operations for rubrics and criteria.
type RubricRepository interface {
	Create(ctx context.Context, rubric *models.Rubric) error
	GetByID(ctx context.Context, schoolID, id uint) (models.Rubric, error)
	GetCriterion(ctx context.Context, rubricID, criterionID uint) (models.Criterion, error)
}

type rubricRepository struct {
	db *gorm.DB
}

// NewRubricRepository instantiates the repository.
func NewRubricRepository(db *gorm.DB) RubricRepository {
	return &rubricRepository{db: db}
}

func (r *rubricRepository) Create(ctx context.Context, rubric *models.Rubric) error {
	return r.db.WithContext(ctx).Create(rubric).Error
}

func (r *rubricRepository) GetByID(ctx context.Context, schoolID, id uint) (models.Rubric, error) {
	var rubric models.Rubric
	if err := r.db.WithContext(ctx).
		Preload("Criteria", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("school_id = ?", schoolID).
		First(&rubric, id).Error; err != nil {
		return models.Rubric{}, err
	}

	return rubric, nil
}

func (r *rubricRepository) GetCriterion(ctx context.Context, rubricID, criterionID uint) (models.Criterion, error) {
	var criterion models.Criterion
	if err := r.db.WithContext(ctx).
		Where("rubric_id = ?", rubricID).
		First(&criterion, criterionID).Error; err != nil {
		return models.Criterion{}, err
	}

	return criterion, nil
}
