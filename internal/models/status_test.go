package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAssignmentStatus(t *testing.T) {
	status, ok := ParseAssignmentStatus("  Reopened ")
	require.True(t, ok)
	require.Equal(t, StatusReopened, status)

	_, ok = ParseAssignmentStatus("archived")
	require.False(t, ok)

	_, ok = ParseAssignmentStatus("")
	require.False(t, ok)
}

func TestLegalTransitionGraph(t *testing.T) {
	legal := map[AssignmentStatus][]AssignmentStatus{
		StatusAssigned:  {StatusViewed},
		StatusViewed:    {StatusSubmitted},
		StatusSubmitted: {StatusReviewed},
		StatusReviewed:  {StatusCompleted},
		StatusCompleted: {StatusReopened},
		StatusReopened:  {StatusViewed},
	}

	for _, from := range AssignmentStatuses() {
		for _, to := range AssignmentStatuses() {
			expected := false
			for _, allowed := range legal[from] {
				if allowed == to {
					expected = true
				}
			}
			require.Equal(t, expected, LegalTransition(from, to), "edge %s -> %s", from, to)
		}
	}
}

func TestReopenedCannotSkipViewed(t *testing.T) {
	require.False(t, LegalTransition(StatusReopened, StatusSubmitted))
	require.True(t, LegalTransition(StatusReopened, StatusViewed))
}

func TestCanTransitionMatrix(t *testing.T) {
	studentEdges := map[transitionEdge]struct{}{
		{StatusAssigned, StatusViewed}:  {},
		{StatusViewed, StatusSubmitted}: {},
		{StatusReopened, StatusViewed}:  {},
	}
	teacherEdges := map[transitionEdge]struct{}{
		{StatusSubmitted, StatusReviewed}: {},
		{StatusReviewed, StatusCompleted}: {},
		{StatusCompleted, StatusReopened}: {},
	}

	for _, role := range Roles() {
		for _, from := range AssignmentStatuses() {
			for _, to := range AssignmentStatuses() {
				edge := transitionEdge{from, to}
				expected := false
				if _, ok := studentEdges[edge]; ok {
					expected = role == RoleStudent
				}
				if _, ok := teacherEdges[edge]; ok {
					expected = role.IsStaff()
				}
				require.Equal(t, expected, CanTransition(role, from, to), "role=%s edge %s -> %s", role, from, to)
			}
		}
	}
}

func TestParentsNeverTransition(t *testing.T) {
	for _, from := range AssignmentStatuses() {
		for _, to := range AssignmentStatuses() {
			require.False(t, CanTransition(RoleParent, from, to))
		}
	}
}

func TestAllowedTransitions(t *testing.T) {
	require.Equal(t, []AssignmentStatus{StatusViewed}, AllowedTransitions(StatusAssigned))
	require.Equal(t, []AssignmentStatus{StatusViewed}, AllowedTransitions(StatusReopened))
	require.Equal(t, []AssignmentStatus{StatusReopened}, AllowedTransitions(StatusCompleted))
}

func TestParseRole(t *testing.T) {
	role, ok := ParseRole(" Teacher ")
	require.True(t, ok)
	require.Equal(t, RoleTeacher, role)

	_, ok = ParseRole("superuser")
	require.False(t, ok)

	require.True(t, RoleOwner.IsStaff())
	require.True(t, RoleAdmin.IsStaff())
	require.True(t, RoleTeacher.IsStaff())
	require.False(t, RoleStudent.IsStaff())
	require.False(t, RoleParent.IsStaff())
}
