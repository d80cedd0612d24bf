package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/quranakh/quranakh-api/internal/dto"
	"github.com/quranakh/quranakh-api/internal/models"
	"github.com/quranakh/quranakh-api/internal/observability"
	"github.com/quranakh/quranakh-api/internal/repository"
)

// ErrChildNotLinked indicates the requested child is not linked to the parent.
var ErrChildNotLinked = errors.New("student is not linked to this parent")

// GradebookService rolls grades up into per-student summaries.
type GradebookService interface {
	StudentGradebook(ctx context.Context, schoolID, studentID uint) (dto.GradebookResponse, error)
	ParentGradebook(ctx context.Context, schoolID, parentID uint, childID *uint) ([]dto.GradebookResponse, error)
}

type gradebookService struct {
	assignments repository.AssignmentRepository
	grades      repository.GradeRepository
	rubrics     repository.RubricRepository
	guardians   repository.GuardianRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
}

// NewGradebookService builds the gradebook aggregator.
func NewGradebookService(assignments repository.AssignmentRepository, grades repository.GradeRepository, rubrics repository.RubricRepository, guardians repository.GuardianRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) GradebookService {
	return &gradebookService{
		assignments: assignments,
		grades:      grades,
		rubrics:     rubrics,
		guardians:   guardians,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "gradebook_service").Logger(),
	}
}

func gradebookCacheKey(schoolID, studentID uint) string {
	return fmt.Sprintf("gradebook:school:%d:student:%d", schoolID, studentID)
}

func (s *gradebookService) StudentGradebook(ctx context.Context, schoolID, studentID uint) (dto.GradebookResponse, error) {
	cacheKey := gradebookCacheKey(schoolID, studentID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.GradebookResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				observability.GradebookCacheHits().Inc()
				s.logger.Debug().Uint("student_id", studentID).Msg("gradebook cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read gradebook cache")
		}
		observability.GradebookCacheMisses().Inc()
	}

	response, err := s.buildGradebook(ctx, schoolID, studentID)
	if err != nil {
		return dto.GradebookResponse{}, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store gradebook cache")
			}
		}
	}

	return response, nil
}

func (s *gradebookService) ParentGradebook(ctx context.Context, schoolID, parentID uint, childID *uint) ([]dto.GradebookResponse, error) {
	children, err := s.guardians.ListChildren(ctx, schoolID, parentID)
	if err != nil {
		return nil, err
	}

	if childID != nil {
		linked := false
		for _, id := range children {
			if id == *childID {
				linked = true
				break
			}
		}
		if !linked {
			return nil, ErrChildNotLinked
		}
		children = []uint{*childID}
	}

	responses := make([]dto.GradebookResponse, 0, len(children))
	for _, id := range children {
		gradebook, err := s.StudentGradebook(ctx, schoolID, id)
		if err != nil {
			return nil, err
		}
		responses = append(responses, gradebook)
	}

	return responses, nil
}

func (s *gradebookService) buildGradebook(ctx context.Context, schoolID, studentID uint) (dto.GradebookResponse, error) {
	grades, err := s.grades.ListForStudent(ctx, schoolID, studentID)
	if err != nil {
		return dto.GradebookResponse{}, err
	}

	byAssignment := make(map[uint][]models.Grade)
	for _, grade := range grades {
		byAssignment[grade.AssignmentID] = append(byAssignment[grade.AssignmentID], grade)
	}

	filter := repository.AssignmentFilter{StudentID: &studentID}
	assignments, err := s.assignments.List(ctx, schoolID, filter)
	if err != nil {
		return dto.GradebookResponse{}, err
	}

	response := dto.GradebookResponse{
		StudentID: studentID,
		Entries:   make([]dto.GradebookEntry, 0, len(assignments)),
	}

	for _, assignment := range assignments {
		assignmentGrades := byAssignment[assignment.ID]
		if assignment.RubricID == nil || len(assignmentGrades) == 0 {
			continue
		}

		rubric, err := s.rubrics.GetByID(ctx, schoolID, *assignment.RubricID)
		if err != nil {
			return dto.GradebookResponse{}, err
		}

		response.Entries = append(response.Entries, buildEntry(assignment, rubric, assignmentGrades))
	}

	return response, nil
}

// buildEntry computes the weighted score and completion for one assignment.
// Zero criteria yields zeroes rather than an error.
func buildEntry(assignment models.Assignment, rubric models.Rubric, grades []models.Grade) dto.GradebookEntry {
	byCriterion := make(map[uint]models.Grade, len(grades))
	for _, grade := range grades {
		byCriterion[grade.CriterionID] = grade
	}

	entry := dto.GradebookEntry{
		AssignmentID:    assignment.ID,
		AssignmentTitle: assignment.Title,
		RubricID:        rubric.ID,
		RubricName:      rubric.Name,
		TotalCriteria:   len(rubric.Criteria),
	}

	var weighted float64
	for _, criterion := range rubric.Criteria {
		grade, ok := byCriterion[criterion.ID]
		if !ok {
			continue
		}
		entry.GradedCriteria++
		if grade.MaxScore > 0 {
			weighted += grade.Score / grade.MaxScore * criterion.Weight
		}
	}

	if entry.TotalCriteria > 0 {
		entry.Completion = roundOneDecimal(float64(entry.GradedCriteria) / float64(entry.TotalCriteria) * 100)
	}
	entry.WeightedScore = roundOneDecimal(weighted)

	return entry
}
