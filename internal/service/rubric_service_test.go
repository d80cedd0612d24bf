package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/quranakh/quranakh-api/internal/dto"
	"github.com/quranakh/quranakh-api/internal/models"
)

type memoryRubricRepo struct {
	rubrics         map[uint]models.Rubric
	nextID          uint
	nextCriterionID uint
}

func newMemoryRubricRepo() *memoryRubricRepo {
	return &memoryRubricRepo{
		rubrics:         make(map[uint]models.Rubric),
		nextID:          1,
		nextCriterionID: 1,
	}
}

func (m *memoryRubricRepo) Create(_ context.Context, rubric *models.Rubric) error {
	rubric.ID = m.nextID
	rubric.CreatedAt = time.Now()
	m.nextID++
	for i := range rubric.Criteria {
		rubric.Criteria[i].ID = m.nextCriterionID
		rubric.Criteria[i].RubricID = rubric.ID
		m.nextCriterionID++
	}
	m.rubrics[rubric.ID] = *rubric
	return nil
}

func (m *memoryRubricRepo) GetByID(_ context.Context, schoolID, id uint) (models.Rubric, error) {
	rubric, ok := m.rubrics[id]
	if !ok || rubric.SchoolID != schoolID {
		return models.Rubric{}, gorm.ErrRecordNotFound
	}
	return rubric, nil
}

func (m *memoryRubricRepo) GetCriterion(_ context.Context, rubricID, criterionID uint) (models.Criterion, error) {
	rubric, ok := m.rubrics[rubricID]
	if !ok {
		return models.Criterion{}, gorm.ErrRecordNotFound
	}
	for _, criterion := range rubric.Criteria {
		if criterion.ID == criterionID {
			return criterion, nil
		}
	}
	return models.Criterion{}, gorm.ErrRecordNotFound
}

type memoryGradeRepo struct {
	grades map[string]models.Grade
	nextID uint
}

func newMemoryGradeRepo() *memoryGradeRepo {
	return &memoryGradeRepo{grades: make(map[string]models.Grade), nextID: 1}
}

func (m *memoryGradeRepo) key(grade models.Grade) string {
	return fmt.Sprintf("%d:%d:%d", grade.AssignmentID, grade.StudentID, grade.CriterionID)
}

func (m *memoryGradeRepo) Upsert(_ context.Context, grade *models.Grade) error {
	key := m.key(*grade)
	if existing, ok := m.grades[key]; ok {
		grade.ID = existing.ID
		grade.CreatedAt = existing.CreatedAt
	} else {
		grade.ID = m.nextID
		grade.CreatedAt = time.Now()
		m.nextID++
	}
	grade.UpdatedAt = time.Now()
	m.grades[key] = *grade
	return nil
}

func (m *memoryGradeRepo) ListForAssignmentStudent(_ context.Context, schoolID, assignmentID, studentID uint) ([]models.Grade, error) {
	results := make([]models.Grade, 0, len(m.grades))
	for _, grade := range m.grades {
		if grade.SchoolID == schoolID && grade.AssignmentID == assignmentID && grade.StudentID == studentID {
			results = append(results, grade)
		}
	}
	return results, nil
}

func (m *memoryGradeRepo) ListForStudent(_ context.Context, schoolID, studentID uint) ([]models.Grade, error) {
	results := make([]models.Grade, 0, len(m.grades))
	for _, grade := range m.grades {
		if grade.SchoolID == schoolID && grade.StudentID == studentID {
			results = append(results, grade)
		}
	}
	return results, nil
}

func (m *memoryGradeRepo) CountForAssignment(_ context.Context, schoolID, assignmentID uint) (int64, error) {
	var count int64
	for _, grade := range m.grades {
		if grade.SchoolID == schoolID && grade.AssignmentID == assignmentID {
			count++
		}
	}
	return count, nil
}

func newRubricFixture() (*memoryAssignmentRepo, *memoryRubricRepo, *memoryGradeRepo, RubricService) {
	store := newMemoryAssignmentRepo()
	rubrics := newMemoryRubricRepo()
	grades := newMemoryGradeRepo()
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewRubricService(rubrics, store, grades, validate, zerolog.Nop())
	return store, rubrics, grades, svc
}

func tajwidRubricRequest() dto.RubricCreateRequest {
	return dto.RubricCreateRequest{
		Name: "Tajwid rubric",
		Criteria: []dto.CriterionRequest{
			{Name: "Makharij", Weight: 60, MaxScore: 10},
			{Name: "Fluency", Weight: 40, MaxScore: 20},
		},
	}
}

func TestCreateRubricAssignsPositions(t *testing.T) {
	_, _, _, svc := newRubricFixture()

	rubric, err := svc.CreateRubric(context.Background(), 1, Actor{ID: 3, Role: models.RoleTeacher}, tajwidRubricRequest())
	require.NoError(t, err)
	require.Len(t, rubric.Criteria, 2)
	require.Equal(t, 1, rubric.Criteria[0].Position)
	require.Equal(t, 2, rubric.Criteria[1].Position)
}

func TestCreateRubricRejectsBadWeights(t *testing.T) {
	_, _, _, svc := newRubricFixture()
	teacher := Actor{ID: 3, Role: models.RoleTeacher}

	_, err := svc.CreateRubric(context.Background(), 1, teacher, dto.RubricCreateRequest{
		Name: "Underweight",
		Criteria: []dto.CriterionRequest{
			{Name: "Only half", Weight: 50, MaxScore: 10},
			{Name: "Not enough", Weight: 40, MaxScore: 10},
		},
	})
	require.ErrorIs(t, err, ErrInvalidRubric)

	// Floating point weights that round to 100 are accepted.
	_, err = svc.CreateRubric(context.Background(), 1, teacher, dto.RubricCreateRequest{
		Name: "Thirds",
		Criteria: []dto.CriterionRequest{
			{Name: "A", Weight: 33.33, MaxScore: 10},
			{Name: "B", Weight: 33.33, MaxScore: 10},
			{Name: "C", Weight: 33.34, MaxScore: 10},
		},
	})
	require.NoError(t, err)
}

func TestCreateRubricRequiresStaff(t *testing.T) {
	_, _, _, svc := newRubricFixture()

	_, err := svc.CreateRubric(context.Background(), 1, Actor{ID: 12, Role: models.RoleStudent}, tajwidRubricRequest())
	require.ErrorIs(t, err, ErrForbidden)
}

func TestAttachRubricToAssignment(t *testing.T) {
	store, _, _, svc := newRubricFixture()
	assignment := seedAssignment(store, models.StatusAssigned, time.Now().UTC().Add(24*time.Hour))
	teacher := Actor{ID: 3, Role: models.RoleTeacher}

	rubric, err := svc.CreateRubric(context.Background(), 1, teacher, tajwidRubricRequest())
	require.NoError(t, err)

	require.NoError(t, svc.AttachRubric(context.Background(), 1, assignment.ID, teacher, dto.RubricAttachRequest{RubricID: rubric.ID}))

	stored := store.assignments[assignment.ID]
	require.NotNil(t, stored.RubricID)
	require.Equal(t, rubric.ID, *stored.RubricID)
}

func TestReattachDifferentRubricBlockedOnceGraded(t *testing.T) {
	store, _, grades, svc := newRubricFixture()
	assignment := seedAssignment(store, models.StatusSubmitted, time.Now().UTC().Add(24*time.Hour))
	teacher := Actor{ID: 3, Role: models.RoleTeacher}

	first, err := svc.CreateRubric(context.Background(), 1, teacher, tajwidRubricRequest())
	require.NoError(t, err)
	second, err := svc.CreateRubric(context.Background(), 1, teacher, tajwidRubricRequest())
	require.NoError(t, err)

	require.NoError(t, svc.AttachRubric(context.Background(), 1, assignment.ID, teacher, dto.RubricAttachRequest{RubricID: first.ID}))

	// Swapping rubrics is fine while nothing is graded.
	require.NoError(t, svc.AttachRubric(context.Background(), 1, assignment.ID, teacher, dto.RubricAttachRequest{RubricID: second.ID}))

	require.NoError(t, grades.Upsert(context.Background(), &models.Grade{
		SchoolID:     1,
		AssignmentID: assignment.ID,
		StudentID:    12,
		CriterionID:  second.Criteria[0].ID,
		Score:        8,
		MaxScore:     10,
		GradedBy:     3,
	}))

	err = svc.AttachRubric(context.Background(), 1, assignment.ID, teacher, dto.RubricAttachRequest{RubricID: first.ID})
	require.ErrorIs(t, err, ErrRubricConflict)

	// Re-attaching the same rubric stays idempotent.
	require.NoError(t, svc.AttachRubric(context.Background(), 1, assignment.ID, teacher, dto.RubricAttachRequest{RubricID: second.ID}))
}

func TestAttachRubricUnknownTargets(t *testing.T) {
	store, _, _, svc := newRubricFixture()
	teacher := Actor{ID: 3, Role: models.RoleTeacher}

	err := svc.AttachRubric(context.Background(), 1, 404, teacher, dto.RubricAttachRequest{RubricID: 1})
	require.ErrorIs(t, err, ErrAssignmentNotFound)

	assignment := seedAssignment(store, models.StatusAssigned, time.Now().UTC().Add(24*time.Hour))
	err = svc.AttachRubric(context.Background(), 1, assignment.ID, teacher, dto.RubricAttachRequest{RubricID: 404})
	require.ErrorIs(t, err, ErrRubricNotFound)
}
