package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/quranakh/quranakh-api/internal/models"
)

// MasteryRepository persists per-ayah-range mastery records.
type MasteryRepository interface {
	FindRange(ctx context.Context, schoolID, studentID uint, surah, ayahFrom, ayahTo int) (models.MasteryRecord, error)
	Create(ctx context.Context, record *models.MasteryRecord) error
	Update(ctx context.Context, record *models.MasteryRecord) error
	ListForStudent(ctx context.Context, schoolID, studentID uint) ([]models.MasteryRecord, error)
}

type masteryRepository struct {
	db *gorm.DB
}

// NewMasteryRepository instantiates the repository.
func NewMasteryRepository(db *gorm.DB) MasteryRepository {
	return &masteryRepository{db: db}
}

func (r *masteryRepository) FindRange(ctx context.Context, schoolID, studentID uint, surah, ayahFrom, ayahTo int) (models.MasteryRecord, error) {
	var record models.MasteryRecord
	if err := r.db.WithContext(ctx).
		Where("school_id = ? AND student_id = ? AND surah = ? AND ayah_from = ? AND ayah_to = ?",
			schoolID, studentID, surah, ayahFrom, ayahTo).
		First(&record).Error; err != nil {
		return models.MasteryRecord{}, err
	}

	return record, nil
}

func (r *masteryRepository) Create(ctx context.Context, record *models.MasteryRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *masteryRepository) Update(ctx context.Context, record *models.MasteryRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

func (r *masteryRepository) ListForStudent(ctx context.Context, schoolID, studentID uint) ([]models.MasteryRecord, error) {
	var records []models.MasteryRecord
	if err := r.db.WithContext(ctx).
		Where("school_id = ? AND student_id = ?", schoolID, studentID).
		Order("surah ASC, ayah_from ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}
