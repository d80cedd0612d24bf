package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/quranakh/quranakh-api/internal/models"
)

// EventRepository persists the append-only lifecycle history. No update or
// delete operation exists; events are immutable once appended.
type EventRepository interface {
	Append(ctx context.Context, event *models.TransitionEvent) error
	ListForAssignment(ctx context.Context, schoolID, assignmentID uint) ([]models.TransitionEvent, error)
}

type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository constructs the event log repository.
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Append(ctx context.Context, event *models.TransitionEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *eventRepository) ListForAssignment(ctx context.Context, schoolID, assignmentID uint) ([]models.TransitionEvent, error) {
	var events []models.TransitionEvent
	if err := r.db.WithContext(ctx).
		Where("school_id = ? AND assignment_id = ?", schoolID, assignmentID).
		Order("created_at ASC, id ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}

	return events, nil
}
