package dto

import (
	"time"

	"github.com/quranakh/quranakh-api/internal/models"
)

// CriterionRequest describes one criterion of a rubric being created.
type CriterionRequest struct {
	Name        string  `json:"name" validate:"required,min=1"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight" validate:"min=0,max=100"`
	MaxScore    float64 `json:"max_score" validate:"required,gt=0"`
}

// RubricCreateRequest describes the payload for creating a rubric.
type RubricCreateRequest struct {
	Name        string             `json:"name" validate:"required,min=1"`
	Description string             `json:"description"`
	Criteria    []CriterionRequest `json:"criteria" validate:"required,min=1,dive"`
}

// RubricAttachRequest identifies the rubric to attach to an assignment.
type RubricAttachRequest struct {
	RubricID uint `json:"rubric_id" validate:"required"`
}

// CriterionResponse serializes one criterion.
type CriterionResponse struct {
	ID          uint    `json:"id"`
	Position    int     `json:"position"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
	MaxScore    float64 `json:"max_score"`
}

// RubricResponse is the serialized representation of a rubric.
type RubricResponse struct {
	ID          uint                `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Criteria    []CriterionResponse `json:"criteria"`
	CreatedAt   time.Time           `json:"created_at"`
}

// NewRubricResponse converts a model into a DTO.
func NewRubricResponse(model models.Rubric) RubricResponse {
	criteria := make([]CriterionResponse, 0, len(model.Criteria))
	for _, criterion := range model.Criteria {
		criteria = append(criteria, CriterionResponse{
			ID:          criterion.ID,
			Position:    criterion.Position,
			Name:        criterion.Name,
			Description: criterion.Description,
			Weight:      criterion.Weight,
			MaxScore:    criterion.MaxScore,
		})
	}

	return RubricResponse{
		ID:          model.ID,
		Name:        model.Name,
		Description: model.Description,
		Criteria:    criteria,
		CreatedAt:   model.CreatedAt,
	}
}
