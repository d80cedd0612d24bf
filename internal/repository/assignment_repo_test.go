package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/quranakh/quranakh-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Assignment{}, &models.TransitionEvent{}, &models.Submission{},
		&models.Rubric{}, &models.Criterion{}, &models.Grade{},
	))
	return db
}

func newTestAssignment(status models.AssignmentStatus) models.Assignment {
	return models.Assignment{
		SchoolID:  1,
		StudentID: 12,
		TeacherID: 3,
		Title:     "Surah Al-Mulk recitation",
		DueAt:     time.Now().UTC().Add(48 * time.Hour),
		Status:    status,
	}
}

func creationEvent(schoolID uint) models.TransitionEvent {
	return models.TransitionEvent{
		SchoolID:  schoolID,
		EventType: models.TransitionEventType(models.StatusAssigned),
		ToStatus:  models.StatusAssigned,
		ActorID:   3,
		ActorRole: models.RoleTeacher,
	}
}

func TestCreateWithEventWritesBoth(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssignmentRepository(db)

	assignment := newTestAssignment(models.StatusAssigned)
	event := creationEvent(1)
	require.NoError(t, repo.CreateWithEvent(context.Background(), &assignment, &event))
	require.NotZero(t, assignment.ID)
	require.Equal(t, assignment.ID, event.AssignmentID)

	var count int64
	require.NoError(t, db.Model(&models.TransitionEvent{}).Where("assignment_id = ?", assignment.ID).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestGetByIDScopedToSchool(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssignmentRepository(db)

	assignment := newTestAssignment(models.StatusAssigned)
	event := creationEvent(1)
	require.NoError(t, repo.CreateWithEvent(context.Background(), &assignment, &event))

	found, err := repo.GetByID(context.Background(), 1, assignment.ID)
	require.NoError(t, err)
	require.Equal(t, assignment.ID, found.ID)

	_, err = repo.GetByID(context.Background(), 2, assignment.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestTransitionGuardsOnReadStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssignmentRepository(db)

	assignment := newTestAssignment(models.StatusAssigned)
	event := creationEvent(1)
	require.NoError(t, repo.CreateWithEvent(context.Background(), &assignment, &event))

	from := models.StatusAssigned
	assignment.Status = models.StatusViewed
	viewedEvent := models.TransitionEvent{
		SchoolID:     1,
		AssignmentID: assignment.ID,
		EventType:    models.TransitionEventType(models.StatusViewed),
		FromStatus:   &from,
		ToStatus:     models.StatusViewed,
		ActorID:      12,
		ActorRole:    models.RoleStudent,
	}
	require.NoError(t, repo.Transition(context.Background(), &assignment, from, &viewedEvent))

	// Replaying the same guarded write loses: the row is no longer assigned.
	stale := assignment
	stale.Status = models.StatusViewed
	staleEvent := viewedEvent
	staleEvent.ID = 0
	err := repo.Transition(context.Background(), &stale, models.StatusAssigned, &staleEvent)
	require.ErrorIs(t, err, ErrStaleStatus)

	// The losing attempt must not leave a stray event behind.
	var count int64
	require.NoError(t, db.Model(&models.TransitionEvent{}).Where("assignment_id = ?", assignment.ID).Count(&count).Error)
	require.Equal(t, int64(2), count)

	found, err := repo.GetByID(context.Background(), 1, assignment.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusViewed, found.Status)
}

func TestTransitionPersistsLateAndReopenCount(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssignmentRepository(db)

	assignment := newTestAssignment(models.StatusCompleted)
	event := creationEvent(1)
	require.NoError(t, repo.CreateWithEvent(context.Background(), &assignment, &event))

	from := models.StatusCompleted
	assignment.Status = models.StatusReopened
	assignment.ReopenCount = 1
	assignment.Late = true
	reopenEvent := models.TransitionEvent{
		SchoolID:     1,
		AssignmentID: assignment.ID,
		EventType:    models.TransitionEventType(models.StatusReopened),
		FromStatus:   &from,
		ToStatus:     models.StatusReopened,
		ActorID:      3,
		ActorRole:    models.RoleTeacher,
	}
	require.NoError(t, repo.Transition(context.Background(), &assignment, from, &reopenEvent))

	found, err := repo.GetByID(context.Background(), 1, assignment.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusReopened, found.Status)
	require.Equal(t, 1, found.ReopenCount)
	require.True(t, found.Late)
}

func TestEventRepositoryOrdersChronologically(t *testing.T) {
	db := setupTestDB(t)
	assignments := NewAssignmentRepository(db)
	events := NewEventRepository(db)

	assignment := newTestAssignment(models.StatusAssigned)
	event := creationEvent(1)
	require.NoError(t, assignments.CreateWithEvent(context.Background(), &assignment, &event))

	base := time.Now().UTC()
	for i, status := range []models.AssignmentStatus{models.StatusViewed, models.StatusSubmitted} {
		next := models.TransitionEvent{
			SchoolID:     1,
			AssignmentID: assignment.ID,
			EventType:    models.TransitionEventType(status),
			ToStatus:     status,
			ActorID:      12,
			ActorRole:    models.RoleStudent,
			CreatedAt:    base.Add(time.Duration(i+1) * time.Second),
		}
		require.NoError(t, events.Append(context.Background(), &next))
	}

	history, err := events.ListForAssignment(context.Background(), 1, assignment.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	require.Equal(t, "transition_to_assigned", history[0].EventType)
	require.Equal(t, "transition_to_viewed", history[1].EventType)
	require.Equal(t, "transition_to_submitted", history[2].EventType)
}
