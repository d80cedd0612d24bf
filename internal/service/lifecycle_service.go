package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/quranakh/quranakh-api/internal/dto"
	"github.com/quranakh/quranakh-api/internal/models"
	"github.com/quranakh/quranakh-api/internal/observability"
	"github.com/quranakh/quranakh-api/internal/repository"
)

// ErrAssignmentNotFound indicates the requested assignment does not exist
// within the caller's school.
var ErrAssignmentNotFound = errors.New("assignment not found")

// ErrIllegalTransition indicates the attempted edge does not exist in the
// lifecycle graph from the assignment's current status.
var ErrIllegalTransition = errors.New("illegal status transition")

// ErrForbidden indicates the actor's role is not authorised for the edge.
var ErrForbidden = errors.New("actor not authorised for this transition")

// ErrConcurrencyConflict indicates an optimistic status write lost a race;
// the caller should re-read and retry.
var ErrConcurrencyConflict = errors.New("assignment was modified concurrently")

// ErrSubmissionRequired indicates a transition to submitted was attempted
// without a submission; work is turned in through the submissions endpoint.
var ErrSubmissionRequired = errors.New("transition to submitted requires a submission")

// Actor identifies the authenticated caller driving an operation.
type Actor struct {
	ID   uint
	Role models.Role
}

// LifecycleService drives the assignment status state machine.
type LifecycleService interface {
	Create(ctx context.Context, schoolID uint, actor Actor, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error)
	Transition(ctx context.Context, schoolID, assignmentID uint, actor Actor, payload dto.TransitionRequest) (dto.AssignmentResponse, error)
	GetAggregate(ctx context.Context, schoolID, assignmentID uint) (dto.AssignmentAggregateResponse, error)
}

type lifecycleService struct {
	assignments repository.AssignmentRepository
	events      repository.EventRepository
	submissions repository.SubmissionRepository
	notifier    TransitionNotifier
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	now         func() time.Time
}

// NewLifecycleService builds the lifecycle service.
func NewLifecycleService(assignments repository.AssignmentRepository, events repository.EventRepository, submissions repository.SubmissionRepository, notifier TransitionNotifier, validate *validator.Validate, logger zerolog.Logger) LifecycleService {
	return &lifecycleService{
		assignments: assignments,
		events:      events,
		submissions: submissions,
		notifier:    notifier,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "lifecycle_service").Logger(),
		now:         time.Now,
	}
}

func (s *lifecycleService) Create(ctx context.Context, schoolID uint, actor Actor, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	if !actor.Role.IsStaff() {
		return dto.AssignmentResponse{}, ErrForbidden
	}

	dueAt, err := time.Parse(time.RFC3339, payload.DueAt)
	if err != nil {
		return dto.AssignmentResponse{}, fmt.Errorf("invalid due date: %w", err)
	}

	if !dueAt.After(s.now()) {
		return dto.AssignmentResponse{}, fmt.Errorf("due date must be in the future")
	}

	assignment := models.Assignment{
		SchoolID:    schoolID,
		StudentID:   payload.StudentID,
		TeacherID:   actor.ID,
		Title:       payload.Title,
		Description: payload.Description,
		DueAt:       dueAt,
		Status:      models.StatusAssigned,
	}

	event := models.TransitionEvent{
		SchoolID:  schoolID,
		EventType: models.TransitionEventType(models.StatusAssigned),
		ToStatus:  models.StatusAssigned,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
	}

	if err := s.assignments.CreateWithEvent(ctx, &assignment, &event); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Uint("student_id", assignment.StudentID).Msg("assignment created")

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *lifecycleService) Transition(ctx context.Context, schoolID, assignmentID uint, actor Actor, payload dto.TransitionRequest) (dto.AssignmentResponse, error) {
	tracer := otel.Tracer("github.com/quranakh/quranakh-api/internal/service/lifecycle")
	ctx, span := tracer.Start(ctx, "lifecycle.transition")
	span.SetAttributes(
		attribute.Int64("assignment.id", int64(assignmentID)),
		attribute.Int64("actor.id", int64(actor.ID)),
		attribute.String("actor.role", actor.Role.String()),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.AssignmentResponse{}, err
	}

	toStatus, ok := models.ParseAssignmentStatus(payload.ToStatus)
	if !ok {
		span.SetStatus(codes.Error, "unknown_status")
		return dto.AssignmentResponse{}, fmt.Errorf("%w: unknown status %q", ErrIllegalTransition, payload.ToStatus)
	}

	assignment, err := s.assignments.GetByID(ctx, schoolID, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "assignment_not_found")
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		span.RecordError(err)
		return dto.AssignmentResponse{}, err
	}

	from := assignment.Status
	span.SetAttributes(
		attribute.String("transition.from", from.String()),
		attribute.String("transition.to", toStatus.String()),
	)

	if !models.LegalTransition(from, toStatus) {
		span.SetStatus(codes.Error, "illegal_transition")
		return dto.AssignmentResponse{}, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, toStatus)
	}

	// Work is turned in via the submissions endpoint so the submission write
	// and the status change stay one atomic unit.
	if toStatus == models.StatusSubmitted {
		span.SetStatus(codes.Error, "submission_required")
		return dto.AssignmentResponse{}, ErrSubmissionRequired
	}

	if !models.CanTransition(actor.Role, from, toStatus) {
		span.SetStatus(codes.Error, "forbidden")
		return dto.AssignmentResponse{}, ErrForbidden
	}

	if actor.Role == models.RoleStudent && actor.ID != assignment.StudentID {
		span.SetStatus(codes.Error, "forbidden")
		return dto.AssignmentResponse{}, ErrForbidden
	}

	now := s.now()
	assignment.Status = toStatus
	assignment.UpdatedAt = now

	metadata := datatypes.JSONMap{}
	if from == models.StatusCompleted && toStatus == models.StatusReopened {
		assignment.ReopenCount++
		metadata["reopen_count"] = assignment.ReopenCount
	}
	if toStatus == models.StatusCompleted {
		assignment.Late = assignment.Late || assignment.IsPastDue(now)
	}

	event := models.TransitionEvent{
		SchoolID:     schoolID,
		AssignmentID: assignment.ID,
		EventType:    models.TransitionEventType(toStatus),
		FromStatus:   &from,
		ToStatus:     toStatus,
		ActorID:      actor.ID,
		ActorRole:    actor.Role,
		Reason:       strings.TrimSpace(s.sanitizer.Sanitize(payload.Reason)),
		Metadata:     metadata,
	}

	if err := s.assignments.Transition(ctx, &assignment, from, &event); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			span.SetStatus(codes.Error, "concurrency_conflict")
			return dto.AssignmentResponse{}, ErrConcurrencyConflict
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "transition_write_failed")
		return dto.AssignmentResponse{}, err
	}

	observability.TransitionsTotal().WithLabelValues(from.String(), toStatus.String()).Inc()

	if s.notifier != nil {
		if err := s.notifier.TransitionAccepted(ctx, assignment, event); err != nil {
			s.logger.Warn().Err(err).Uint("assignment_id", assignment.ID).Msg("failed to publish transition notice")
		}
	}

	s.logger.Info().
		Uint("assignment_id", assignment.ID).
		Str("from", from.String()).
		Str("to", toStatus.String()).
		Msg("assignment transitioned")

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *lifecycleService) GetAggregate(ctx context.Context, schoolID, assignmentID uint) (dto.AssignmentAggregateResponse, error) {
	assignment, err := s.assignments.GetByID(ctx, schoolID, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentAggregateResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentAggregateResponse{}, err
	}

	events, err := s.events.ListForAssignment(ctx, schoolID, assignmentID)
	if err != nil {
		return dto.AssignmentAggregateResponse{}, err
	}

	aggregate := dto.AssignmentAggregateResponse{
		Assignment: dto.NewAssignmentResponse(assignment),
		Events:     dto.NewTransitionEventResponseSlice(events),
	}

	submission, err := s.submissions.GetActive(ctx, schoolID, assignmentID)
	switch {
	case err == nil:
		response := dto.NewSubmissionResponse(submission)
		aggregate.Submission = &response
	case errors.Is(err, gorm.ErrRecordNotFound):
		// No submission yet.
	default:
		return dto.AssignmentAggregateResponse{}, err
	}

	return aggregate, nil
}
