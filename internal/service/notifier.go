package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/quranakh/quranakh-api/internal/models"
)

// TransitionNotice is the payload published for every accepted transition.
// Dashboard and notification consumers subscribe to these.
type TransitionNotice struct {
	SchoolID     uint      `json:"school_id"`
	AssignmentID uint      `json:"assignment_id"`
	StudentID    uint      `json:"student_id"`
	TeacherID    uint      `json:"teacher_id"`
	EventType    string    `json:"event_type"`
	FromStatus   *string   `json:"from_status"`
	ToStatus     string    `json:"to_status"`
	ActorID      uint      `json:"actor_id"`
	ActorRole    string    `json:"actor_role"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// TransitionNotifier publishes accepted transitions to downstream consumers.
type TransitionNotifier interface {
	TransitionAccepted(ctx context.Context, assignment models.Assignment, event models.TransitionEvent) error
}

type natsTransitionNotifier struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
	now     func() time.Time
}

// NewNATSTransitionNotifier publishes transition notices on the given subject.
func NewNATSTransitionNotifier(conn *nats.Conn, subject string, logger zerolog.Logger) TransitionNotifier {
	return &natsTransitionNotifier{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "transition_notifier").Logger(),
		now:     time.Now,
	}
}

func (n *natsTransitionNotifier) TransitionAccepted(_ context.Context, assignment models.Assignment, event models.TransitionEvent) error {
	if n.conn == nil || n.subject == "" {
		return nil
	}

	notice := TransitionNotice{
		SchoolID:     assignment.SchoolID,
		AssignmentID: assignment.ID,
		StudentID:    assignment.StudentID,
		TeacherID:    assignment.TeacherID,
		EventType:    event.EventType,
		ToStatus:     event.ToStatus.String(),
		ActorID:      event.ActorID,
		ActorRole:    event.ActorRole.String(),
		OccurredAt:   n.now().UTC(),
	}
	if event.FromStatus != nil {
		from := event.FromStatus.String()
		notice.FromStatus = &from
	}

	payload, err := json.Marshal(notice)
	if err != nil {
		return err
	}

	if err := n.conn.Publish(n.subject, payload); err != nil {
		return err
	}

	n.logger.Debug().
		Uint("assignment_id", assignment.ID).
		Str("event_type", event.EventType).
		Msg("transition notice published")

	return nil
}
