package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quranakh/quranakh-api/internal/models"
)

func submittedEvent(assignmentID uint, from models.AssignmentStatus) models.TransitionEvent {
	return models.TransitionEvent{
		SchoolID:     1,
		AssignmentID: assignmentID,
		EventType:    models.TransitionEventType(models.StatusSubmitted),
		FromStatus:   &from,
		ToStatus:     models.StatusSubmitted,
		ActorID:      12,
		ActorRole:    models.RoleStudent,
	}
}

func TestCreateWithTransitionIsAtomic(t *testing.T) {
	db := setupTestDB(t)
	assignments := NewAssignmentRepository(db)
	submissions := NewSubmissionRepository(db)

	assignment := newTestAssignment(models.StatusViewed)
	event := creationEvent(1)
	require.NoError(t, assignments.CreateWithEvent(context.Background(), &assignment, &event))

	submission := models.Submission{
		SchoolID:     1,
		AssignmentID: assignment.ID,
		StudentID:    12,
		Text:         "First recitation.",
	}
	from := assignment.Status
	assignment.Status = models.StatusSubmitted
	assignment.UpdatedAt = time.Now().UTC()

	transEvent := submittedEvent(assignment.ID, from)
	require.NoError(t, submissions.CreateWithTransition(context.Background(), &submission, &assignment, from, &transEvent))

	found, err := assignments.GetByID(context.Background(), 1, assignment.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusSubmitted, found.Status)

	active, err := submissions.GetActive(context.Background(), 1, assignment.ID)
	require.NoError(t, err)
	require.Equal(t, submission.ID, active.ID)
}

func TestCreateWithTransitionRollsBackOnStaleStatus(t *testing.T) {
	db := setupTestDB(t)
	assignments := NewAssignmentRepository(db)
	submissions := NewSubmissionRepository(db)

	// Already submitted; a second writer raced us to the status change.
	assignment := newTestAssignment(models.StatusSubmitted)
	event := creationEvent(1)
	require.NoError(t, assignments.CreateWithEvent(context.Background(), &assignment, &event))

	submission := models.Submission{
		SchoolID:     1,
		AssignmentID: assignment.ID,
		StudentID:    12,
		Text:         "Raced submission.",
	}
	losing := assignment
	losing.Status = models.StatusSubmitted

	transEvent := submittedEvent(assignment.ID, models.StatusViewed)
	err := submissions.CreateWithTransition(context.Background(), &submission, &losing, models.StatusViewed, &transEvent)
	require.ErrorIs(t, err, ErrStaleStatus)

	// The whole transaction rolled back: no submission row survives.
	var count int64
	require.NoError(t, db.Model(&models.Submission{}).Where("assignment_id = ?", assignment.ID).Count(&count).Error)
	require.Equal(t, int64(0), count)
}

func TestCreateWithTransitionSupersedesPrior(t *testing.T) {
	db := setupTestDB(t)
	assignments := NewAssignmentRepository(db)
	submissions := NewSubmissionRepository(db)

	assignment := newTestAssignment(models.StatusViewed)
	event := creationEvent(1)
	require.NoError(t, assignments.CreateWithEvent(context.Background(), &assignment, &event))

	first := models.Submission{SchoolID: 1, AssignmentID: assignment.ID, StudentID: 12, Text: "First."}
	from := models.StatusViewed
	working := assignment
	working.Status = models.StatusSubmitted
	firstEvent := submittedEvent(assignment.ID, from)
	require.NoError(t, submissions.CreateWithTransition(context.Background(), &first, &working, from, &firstEvent))

	// Reopen cycle returns the assignment to viewed.
	require.NoError(t, db.Model(&models.Assignment{}).Where("id = ?", assignment.ID).Update("status", models.StatusViewed).Error)

	second := models.Submission{SchoolID: 1, AssignmentID: assignment.ID, StudentID: 12, Text: "Second.", CreatedAt: time.Now().Add(time.Second)}
	working.Status = models.StatusSubmitted
	secondEvent := submittedEvent(assignment.ID, from)
	require.NoError(t, submissions.CreateWithTransition(context.Background(), &second, &working, from, &secondEvent))

	active, err := submissions.GetActive(context.Background(), 1, assignment.ID)
	require.NoError(t, err)
	require.Equal(t, second.ID, active.ID)

	all, err := submissions.ListForAssignment(context.Background(), 1, assignment.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.True(t, all[0].Superseded)
	require.False(t, all[1].Superseded)
}

func TestGradeUpsertReplacesOnTuple(t *testing.T) {
	db := setupTestDB(t)
	grades := NewGradeRepository(db)

	grade := models.Grade{
		SchoolID:     1,
		AssignmentID: 7,
		StudentID:    12,
		CriterionID:  2,
		Score:        7,
		MaxScore:     10,
		GradedBy:     3,
	}
	require.NoError(t, grades.Upsert(context.Background(), &grade))

	regrade := models.Grade{
		SchoolID:     1,
		AssignmentID: 7,
		StudentID:    12,
		CriterionID:  2,
		Score:        9,
		MaxScore:     10,
		Comments:     "Much improved.",
		GradedBy:     3,
	}
	require.NoError(t, grades.Upsert(context.Background(), &regrade))

	listed, err := grades.ListForAssignmentStudent(context.Background(), 1, 7, 12)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.InDelta(t, 9, listed[0].Score, 0.001)
	require.Equal(t, "Much improved.", listed[0].Comments)

	// A different criterion is a separate row.
	other := models.Grade{
		SchoolID:     1,
		AssignmentID: 7,
		StudentID:    12,
		CriterionID:  3,
		Score:        18,
		MaxScore:     20,
		GradedBy:     3,
	}
	require.NoError(t, grades.Upsert(context.Background(), &other))

	count, err := grades.CountForAssignment(context.Background(), 1, 7)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)
}
