package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
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

// ErrScoreOutOfRange indicates the grade score violates 0 <= score <= max.
var ErrScoreOutOfRange = errors.New("score out of range")

// ErrNoRubricAttached indicates grading was attempted before a rubric was
// attached to the assignment.
var ErrNoRubricAttached = errors.New("assignment has no rubric attached")

// ErrCriterionNotFound indicates the criterion does not belong to the
// assignment's rubric.
var ErrCriterionNotFound = errors.New("criterion not found in attached rubric")

// ErrMaxScoreMismatch indicates the submitted max score disagrees with the
// criterion definition.
var ErrMaxScoreMismatch = errors.New("max score does not match criterion")

// GradingService records criterion grades and reports grading progress.
type GradingService interface {
	SubmitGrade(ctx context.Context, schoolID, assignmentID uint, actor Actor, payload dto.GradeSubmitRequest) (dto.GradeSubmitResponse, error)
}

type gradingService struct {
	grades      repository.GradeRepository
	assignments repository.AssignmentRepository
	rubrics     repository.RubricRepository
	events      repository.EventRepository
	cache       *redis.Client
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	now         func() time.Time
}

// NewGradingService constructs the grading service. The cache client is used
// to invalidate gradebook aggregates on grade writes and may be nil.
func NewGradingService(grades repository.GradeRepository, assignments repository.AssignmentRepository, rubrics repository.RubricRepository, events repository.EventRepository, cache *redis.Client, validate *validator.Validate, logger zerolog.Logger) GradingService {
	return &gradingService{
		grades:      grades,
		assignments: assignments,
		rubrics:     rubrics,
		events:      events,
		cache:       cache,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "grading_service").Logger(),
		now:         time.Now,
	}
}

func (s *gradingService) SubmitGrade(ctx context.Context, schoolID, assignmentID uint, actor Actor, payload dto.GradeSubmitRequest) (dto.GradeSubmitResponse, error) {
	tracer := otel.Tracer("github.com/quranakh/quranakh-api/internal/service/grading")
	ctx, span := tracer.Start(ctx, "grading.submit")
	span.SetAttributes(
		attribute.Int64("grading.assignment_id", int64(assignmentID)),
		attribute.Int64("grading.criterion_id", int64(payload.CriterionID)),
		attribute.Int64("grading.actor_id", int64(actor.ID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.GradeSubmitResponse{}, err
	}

	if !actor.Role.IsStaff() {
		span.SetStatus(codes.Error, "forbidden")
		return dto.GradeSubmitResponse{}, ErrForbidden
	}

	if payload.Score < 0 || payload.Score > payload.MaxScore {
		span.SetStatus(codes.Error, "score_out_of_range")
		return dto.GradeSubmitResponse{}, fmt.Errorf("%w: %.2f not in [0, %.2f]", ErrScoreOutOfRange, payload.Score, payload.MaxScore)
	}

	assignment, err := s.assignments.GetByID(ctx, schoolID, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "assignment_not_found")
			return dto.GradeSubmitResponse{}, ErrAssignmentNotFound
		}
		span.RecordError(err)
		return dto.GradeSubmitResponse{}, err
	}

	if assignment.RubricID == nil {
		span.SetStatus(codes.Error, "no_rubric")
		return dto.GradeSubmitResponse{}, ErrNoRubricAttached
	}

	rubric, err := s.rubrics.GetByID(ctx, schoolID, *assignment.RubricID)
	if err != nil {
		span.RecordError(err)
		return dto.GradeSubmitResponse{}, err
	}

	var criterion *models.Criterion
	for i := range rubric.Criteria {
		if rubric.Criteria[i].ID == payload.CriterionID {
			criterion = &rubric.Criteria[i]
			break
		}
	}
	if criterion == nil {
		span.SetStatus(codes.Error, "criterion_not_found")
		return dto.GradeSubmitResponse{}, ErrCriterionNotFound
	}

	if math.Abs(criterion.MaxScore-payload.MaxScore) > 1e-9 {
		span.SetStatus(codes.Error, "max_score_mismatch")
		return dto.GradeSubmitResponse{}, fmt.Errorf("%w: got %.2f, criterion defines %.2f", ErrMaxScoreMismatch, payload.MaxScore, criterion.MaxScore)
	}

	grade := models.Grade{
		SchoolID:     schoolID,
		AssignmentID: assignmentID,
		StudentID:    payload.StudentID,
		CriterionID:  payload.CriterionID,
		Score:        payload.Score,
		MaxScore:     payload.MaxScore,
		Comments:     strings.TrimSpace(s.sanitizer.Sanitize(payload.Comments)),
		GradedBy:     actor.ID,
	}

	if err := s.grades.Upsert(ctx, &grade); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "grade_write_failed")
		return dto.GradeSubmitResponse{}, err
	}

	status := assignment.Status
	event := models.TransitionEvent{
		SchoolID:     schoolID,
		AssignmentID: assignmentID,
		EventType:    models.EventTypeGradeRecorded,
		FromStatus:   &status,
		ToStatus:     status,
		ActorID:      actor.ID,
		ActorRole:    actor.Role,
		Metadata: datatypes.JSONMap{
			"criterion_id": payload.CriterionID,
			"student_id":   payload.StudentID,
			"score":        payload.Score,
		},
	}
	if err := s.events.Append(ctx, &event); err != nil {
		s.logger.Warn().Err(err).Uint("assignment_id", assignmentID).Msg("failed to append grade event")
		span.RecordError(err)
	}

	graded, err := s.grades.ListForAssignmentStudent(ctx, schoolID, assignmentID, payload.StudentID)
	if err != nil {
		span.RecordError(err)
		return dto.GradeSubmitResponse{}, err
	}

	progress := buildProgress(len(graded), len(rubric.Criteria))
	s.invalidateGradebook(ctx, schoolID, payload.StudentID)

	observability.GradesRecorded().Inc()
	span.SetAttributes(
		attribute.Float64("grading.score", payload.Score),
		attribute.Float64("grading.percentage", progress.Percentage),
	)

	s.logger.Info().
		Uint("assignment_id", assignmentID).
		Uint("criterion_id", payload.CriterionID).
		Uint("student_id", payload.StudentID).
		Float64("score", payload.Score).
		Msg("grade recorded")

	return dto.GradeSubmitResponse{
		Grade:    dto.NewGradeResponse(grade),
		Progress: progress,
	}, nil
}

func (s *gradingService) invalidateGradebook(ctx context.Context, schoolID, studentID uint) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Del(ctx, gradebookCacheKey(schoolID, studentID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("student_id", studentID).Msg("failed to invalidate gradebook cache")
	}
}

func buildProgress(graded, total int) dto.GradeProgress {
	progress := dto.GradeProgress{
		GradedCriteria: graded,
		TotalCriteria:  total,
	}
	if total > 0 {
		progress.Percentage = roundOneDecimal(float64(graded) / float64(total) * 100)
	}
	return progress
}

func roundOneDecimal(value float64) float64 {
	return math.Round(value*10) / 10
}
