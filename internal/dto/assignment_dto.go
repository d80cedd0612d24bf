package dto

import (
	"time"

	"github.com/quranakh/quranakh-api/internal/models"
)

// AssignmentCreateRequest describes the payload for creating a new assignment.
type AssignmentCreateRequest struct {
	StudentID   uint   `json:"student_id" validate:"required"`
	Title       string `json:"title" validate:"required,min=3"`
	Description string `json:"description" validate:"omitempty,min=3"`
	DueAt       string `json:"due_at" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
}

// TransitionRequest describes a lifecycle transition attempt.
type TransitionRequest struct {
	ToStatus string `json:"to_status" validate:"required"`
	Reason   string `json:"reason" validate:"omitempty,max=2000"`
}

// AssignmentResponse is the serialized representation returned to API clients.
type AssignmentResponse struct {
	ID          uint      `json:"id"`
	StudentID   uint      `json:"student_id"`
	TeacherID   uint      `json:"teacher_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueAt       time.Time `json:"due_at"`
	Status      string    `json:"status"`
	Late        bool      `json:"late"`
	ReopenCount int       `json:"reopen_count"`
	RubricID    *uint     `json:"rubric_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TransitionEventResponse serializes one lifecycle event.
type TransitionEventResponse struct {
	ID         uint      `json:"id"`
	EventType  string    `json:"event_type"`
	FromStatus *string   `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	ActorID    uint      `json:"actor_id"`
	ActorRole  string    `json:"actor_role"`
	Reason     string    `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// AssignmentAggregateResponse composes the assignment with its ordered event
// history and active submission, if any.
type AssignmentAggregateResponse struct {
	Assignment AssignmentResponse        `json:"assignment"`
	Events     []TransitionEventResponse `json:"events"`
	Submission *SubmissionResponse       `json:"submission"`
}

// NewAssignmentResponse converts a model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:          model.ID,
		StudentID:   model.StudentID,
		TeacherID:   model.TeacherID,
		Title:       model.Title,
		Description: model.Description,
		DueAt:       model.DueAt,
		Status:      model.Status.String(),
		Late:        model.Late,
		ReopenCount: model.ReopenCount,
		RubricID:    model.RubricID,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewTransitionEventResponse converts a model into a DTO.
func NewTransitionEventResponse(model models.TransitionEvent) TransitionEventResponse {
	var from *string
	if model.FromStatus != nil {
		value := model.FromStatus.String()
		from = &value
	}

	return TransitionEventResponse{
		ID:         model.ID,
		EventType:  model.EventType,
		FromStatus: from,
		ToStatus:   model.ToStatus.String(),
		ActorID:    model.ActorID,
		ActorRole:  model.ActorRole.String(),
		Reason:     model.Reason,
		CreatedAt:  model.CreatedAt,
	}
}

// NewTransitionEventResponseSlice converts a slice of models into DTOs.
func NewTransitionEventResponseSlice(events []models.TransitionEvent) []TransitionEventResponse {
	responses := make([]TransitionEventResponse, 0, len(events))
	for _, event := range events {
		responses = append(responses, NewTransitionEventResponse(event))
	}

	return responses
}
