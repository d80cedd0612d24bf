package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/quranakh/quranakh-api/internal/dto"
	"github.com/quranakh/quranakh-api/internal/models"
)

func seedAssignment(store *memoryAssignmentRepo, status models.AssignmentStatus, dueAt time.Time) models.Assignment {
	assignment := models.Assignment{
		ID:        store.nextID,
		SchoolID:  1,
		StudentID: 12,
		TeacherID: 3,
		Title:     "Surah Ya-Sin recitation",
		DueAt:     dueAt,
		Status:    status,
	}
	store.assignments[assignment.ID] = assignment
	store.nextID++
	return assignment
}

func newSubmissionFixture() (*memoryAssignmentRepo, *memorySubmissionRepo, *recordingNotifier, SubmissionService) {
	store := newMemoryAssignmentRepo()
	subs := newMemorySubmissionRepo(store)
	notifier := &recordingNotifier{}
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewSubmissionService(subs, store, notifier, validate, nil, zerolog.Nop())
	return store, subs, notifier, svc
}

func TestSubmitTransitionsViewedToSubmitted(t *testing.T) {
	store, subs, notifier, svc := newSubmissionFixture()
	assignment := seedAssignment(store, models.StatusViewed, time.Now().UTC().Add(24*time.Hour))

	response, err := svc.Submit(context.Background(), 1, assignment.ID, Actor{ID: 12, Role: models.RoleStudent}, dto.SubmissionCreateRequest{
		Text: "Recitation recorded this morning.",
	}, nil)
	require.NoError(t, err)
	require.Equal(t, assignment.ID, response.AssignmentID)
	require.False(t, response.Superseded)

	stored := store.assignments[assignment.ID]
	require.Equal(t, models.StatusSubmitted, stored.Status)
	require.False(t, stored.Late)

	events := store.eventsFor(assignment.ID)
	require.Len(t, events, 1)
	require.Equal(t, "transition_to_submitted", events[0].EventType)

	require.Len(t, notifier.notices, 1)

	active, err := subs.GetActive(context.Background(), 1, assignment.ID)
	require.NoError(t, err)
	require.Equal(t, response.ID, active.ID)
}

func TestSubmitRejectedOutsideViewedState(t *testing.T) {
	store, _, _, svc := newSubmissionFixture()

	for _, status := range []models.AssignmentStatus{
		models.StatusAssigned,
		models.StatusSubmitted,
		models.StatusReviewed,
		models.StatusCompleted,
		models.StatusReopened,
	} {
		assignment := seedAssignment(store, status, time.Now().UTC().Add(24*time.Hour))
		_, err := svc.Submit(context.Background(), 1, assignment.ID, Actor{ID: 12, Role: models.RoleStudent}, dto.SubmissionCreateRequest{
			Text: "Too early or too late.",
		}, nil)
		require.ErrorIs(t, err, ErrInvalidState, "status %s should reject submission", status)
	}
}

func TestSubmitOnlyByAssignedStudent(t *testing.T) {
	store, _, _, svc := newSubmissionFixture()
	assignment := seedAssignment(store, models.StatusViewed, time.Now().UTC().Add(24*time.Hour))

	_, err := svc.Submit(context.Background(), 1, assignment.ID, Actor{ID: 99, Role: models.RoleStudent}, dto.SubmissionCreateRequest{
		Text: "Not my assignment.",
	}, nil)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestSubmitAfterDueDateMarksLate(t *testing.T) {
	store, _, _, svc := newSubmissionFixture()
	assignment := seedAssignment(store, models.StatusViewed, time.Now().UTC().Add(-time.Hour))

	_, err := svc.Submit(context.Background(), 1, assignment.ID, Actor{ID: 12, Role: models.RoleStudent}, dto.SubmissionCreateRequest{
		Text: "Better late than never.",
	}, nil)
	require.NoError(t, err)

	stored := store.assignments[assignment.ID]
	require.True(t, stored.Late)
}

func TestResubmissionSupersedesPriorActive(t *testing.T) {
	store, subs, _, svc := newSubmissionFixture()
	assignment := seedAssignment(store, models.StatusViewed, time.Now().UTC().Add(24*time.Hour))
	student := Actor{ID: 12, Role: models.RoleStudent}

	first, err := svc.Submit(context.Background(), 1, assignment.ID, student, dto.SubmissionCreateRequest{
		Text: "First attempt.",
	}, nil)
	require.NoError(t, err)

	// Reopen cycle puts the assignment back in the student's hands.
	reopened := store.assignments[assignment.ID]
	reopened.Status = models.StatusViewed
	store.assignments[assignment.ID] = reopened

	second, err := svc.Submit(context.Background(), 1, assignment.ID, student, dto.SubmissionCreateRequest{
		Text: "Second attempt after feedback.",
	}, nil)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	active, err := subs.GetActive(context.Background(), 1, assignment.ID)
	require.NoError(t, err)
	require.Equal(t, second.ID, active.ID)

	all, err := subs.ListForAssignment(context.Background(), 1, assignment.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.True(t, all[0].Superseded)
	require.False(t, all[1].Superseded)
}

func TestSubmitSanitizesText(t *testing.T) {
	store, subs, _, svc := newSubmissionFixture()
	assignment := seedAssignment(store, models.StatusViewed, time.Now().UTC().Add(24*time.Hour))

	_, err := svc.Submit(context.Background(), 1, assignment.ID, Actor{ID: 12, Role: models.RoleStudent}, dto.SubmissionCreateRequest{
		Text: `<script>alert("x")</script>Reading attached.`,
	}, nil)
	require.NoError(t, err)

	active, err := subs.GetActive(context.Background(), 1, assignment.ID)
	require.NoError(t, err)
	require.Equal(t, "Reading attached.", active.Text)
}
