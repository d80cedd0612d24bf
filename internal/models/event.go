package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// Event type wire formats. Status transitions use transition_to_<status>;
// grading actions use grade_recorded.
const (
	EventTypeGradeRecorded = "grade_recorded"
)

// TransitionEventType builds the wire format for a status transition event.
func TransitionEventType(to AssignmentStatus) string {
	return fmt.Sprintf("transition_to_%s", to)
}

// TransitionEvent is one immutable entry in an assignment's lifecycle history.
// Rows are append-only: the repository exposes no update or delete.
type TransitionEvent struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	SchoolID     uint              `gorm:"not null;index" json:"school_id"`
	AssignmentID uint              `gorm:"not null;index" json:"assignment_id"`
	EventType    string            `gorm:"size:64;not null" json:"event_type"`
	FromStatus   *AssignmentStatus `gorm:"size:32" json:"from_status"`
	ToStatus     AssignmentStatus  `gorm:"size:32;not null" json:"to_status"`
	ActorID      uint              `gorm:"not null" json:"actor_id"`
	ActorRole    Role              `gorm:"size:32;not null" json:"actor_role"`
	Reason       string            `gorm:"type:text" json:"reason"`
	Metadata     datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt    time.Time         `json:"created_at"`
}
