package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/quranakh/quranakh-api/internal/dto"
	"github.com/quranakh/quranakh-api/internal/models"
	"github.com/quranakh/quranakh-api/internal/repository"
)

// weightTolerance is the rounding slack permitted when criterion weights are
// checked against 100.
const weightTolerance = 0.01

// ErrRubricNotFound indicates the requested rubric does not exist within the
// caller's school.
var ErrRubricNotFound = errors.New("rubric not found")

// ErrInvalidRubric indicates the rubric definition failed validation.
var ErrInvalidRubric = errors.New("invalid rubric definition")

// ErrRubricConflict indicates a different rubric is already attached and
// grades exist against it.
var ErrRubricConflict = errors.New("assignment already graded against a different rubric")

// RubricService manages rubric definitions and their attachment to
// assignments.
type RubricService interface {
	CreateRubric(ctx context.Context, schoolID uint, actor Actor, payload dto.RubricCreateRequest) (dto.RubricResponse, error)
	GetRubric(ctx context.Context, schoolID, rubricID uint) (dto.RubricResponse, error)
	AttachRubric(ctx context.Context, schoolID, assignmentID uint, actor Actor, payload dto.RubricAttachRequest) error
}

type rubricService struct {
	rubrics     repository.RubricRepository
	assignments repository.AssignmentRepository
	grades      repository.GradeRepository
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewRubricService builds the rubric service.
func NewRubricService(rubrics repository.RubricRepository, assignments repository.AssignmentRepository, grades repository.GradeRepository, validate *validator.Validate, logger zerolog.Logger) RubricService {
	return &rubricService{
		rubrics:     rubrics,
		assignments: assignments,
		grades:      grades,
		validator:   validate,
		logger:      logger.With().Str("component", "rubric_service").Logger(),
		now:         time.Now,
	}
}

func (s *rubricService) CreateRubric(ctx context.Context, schoolID uint, actor Actor, payload dto.RubricCreateRequest) (dto.RubricResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RubricResponse{}, err
	}

	if !actor.Role.IsStaff() {
		return dto.RubricResponse{}, ErrForbidden
	}

	var weightSum float64
	for _, criterion := range payload.Criteria {
		if criterion.Weight < 0 {
			return dto.RubricResponse{}, fmt.Errorf("%w: criterion %q has negative weight", ErrInvalidRubric, criterion.Name)
		}
		if criterion.MaxScore <= 0 {
			return dto.RubricResponse{}, fmt.Errorf("%w: criterion %q max score must be positive", ErrInvalidRubric, criterion.Name)
		}
		weightSum += criterion.Weight
	}

	if math.Abs(weightSum-100) > weightTolerance {
		return dto.RubricResponse{}, fmt.Errorf("%w: criterion weights sum to %.2f, expected 100", ErrInvalidRubric, weightSum)
	}

	rubric := models.Rubric{
		SchoolID:    schoolID,
		Name:        payload.Name,
		Description: payload.Description,
		Criteria:    make([]models.Criterion, 0, len(payload.Criteria)),
	}

	for i, criterion := range payload.Criteria {
		rubric.Criteria = append(rubric.Criteria, models.Criterion{
			Position:    i + 1,
			Name:        criterion.Name,
			Description: criterion.Description,
			Weight:      criterion.Weight,
			MaxScore:    criterion.MaxScore,
		})
	}

	if err := s.rubrics.Create(ctx, &rubric); err != nil {
		return dto.RubricResponse{}, err
	}

	s.logger.Info().Uint("rubric_id", rubric.ID).Int("criteria", len(rubric.Criteria)).Msg("rubric created")

	return dto.NewRubricResponse(rubric), nil
}

func (s *rubricService) GetRubric(ctx context.Context, schoolID, rubricID uint) (dto.RubricResponse, error) {
	rubric, err := s.rubrics.GetByID(ctx, schoolID, rubricID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RubricResponse{}, ErrRubricNotFound
		}
		return dto.RubricResponse{}, err
	}

	return dto.NewRubricResponse(rubric), nil
}

func (s *rubricService) AttachRubric(ctx context.Context, schoolID, assignmentID uint, actor Actor, payload dto.RubricAttachRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	if !actor.Role.IsStaff() {
		return ErrForbidden
	}

	assignment, err := s.assignments.GetByID(ctx, schoolID, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}

	if _, err := s.rubrics.GetByID(ctx, schoolID, payload.RubricID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRubricNotFound
		}
		return err
	}

	if assignment.RubricID != nil && *assignment.RubricID != payload.RubricID {
		graded, err := s.grades.CountForAssignment(ctx, schoolID, assignmentID)
		if err != nil {
			return err
		}
		if graded > 0 {
			return ErrRubricConflict
		}
	}

	rubricID := payload.RubricID
	assignment.RubricID = &rubricID
	assignment.UpdatedAt = s.now()

	if err := s.assignments.Update(ctx, &assignment); err != nil {
		return err
	}

	s.logger.Info().Uint("assignment_id", assignmentID).Uint("rubric_id", rubricID).Msg("rubric attached")

	return nil
}
