package dto

import (
	"time"

	"github.com/quranakh/quranakh-api/internal/models"
)

// GradeSubmitRequest describes the payload for recording a criterion grade.
type GradeSubmitRequest struct {
	StudentID   uint    `json:"student_id" validate:"required"`
	CriterionID uint    `json:"criterion_id" validate:"required"`
	Score       float64 `json:"score"`
	MaxScore    float64 `json:"max_score" validate:"required,gt=0"`
	Comments    string  `json:"comments" validate:"omitempty,max=2000"`
}

// GradeResponse is the serialized representation of one grade.
type GradeResponse struct {
	ID           uint      `json:"id"`
	AssignmentID uint      `json:"assignment_id"`
	StudentID    uint      `json:"student_id"`
	CriterionID  uint      `json:"criterion_id"`
	Score        float64   `json:"score"`
	MaxScore     float64   `json:"max_score"`
	Comments     string    `json:"comments,omitempty"`
	GradedBy     uint      `json:"graded_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// GradeProgress reports per-student grading completion for an assignment.
type GradeProgress struct {
	GradedCriteria int     `json:"graded_criteria"`
	TotalCriteria  int     `json:"total_criteria"`
	Percentage     float64 `json:"percentage"`
}

// GradeSubmitResponse pairs the persisted grade with updated progress.
type GradeSubmitResponse struct {
	Grade    GradeResponse `json:"grade"`
	Progress GradeProgress `json:"progress"`
}

// NewGradeResponse converts a model into a DTO.
func NewGradeResponse(model models.Grade) GradeResponse {
	return GradeResponse{
		ID:           model.ID,
		AssignmentID: model.AssignmentID,
		StudentID:    model.StudentID,
		CriterionID:  model.CriterionID,
		Score:        model.Score,
		MaxScore:     model.MaxScore,
		Comments:     model.Comments,
		GradedBy:     model.GradedBy,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}
