package models

import "strings"

// AssignmentStatus is the lifecycle state of an assignment.
type AssignmentStatus string

const (
	StatusAssigned  AssignmentStatus = "assigned"
	StatusViewed    AssignmentStatus = "viewed"
	StatusSubmitted AssignmentStatus = "submitted"
	StatusReviewed  AssignmentStatus = "reviewed"
	StatusCompleted AssignmentStatus = "completed"
	StatusReopened  AssignmentStatus = "reopened"
)

// AssignmentStatuses lists every lifecycle state in graph order.
func AssignmentStatuses() []AssignmentStatus {
	return []AssignmentStatus{
		StatusAssigned,
		StatusViewed,
		StatusSubmitted,
		StatusReviewed,
		StatusCompleted,
		StatusReopened,
	}
}

// ParseAssignmentStatus normalises a raw status string, returning false when
// the value is not a member of the state set.
func ParseAssignmentStatus(raw string) (AssignmentStatus, bool) {
	status := AssignmentStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch status {
	case StatusAssigned, StatusViewed, StatusSubmitted, StatusReviewed, StatusCompleted, StatusReopened:
		return status, true
	default:
		return "", false
	}
}

func (s AssignmentStatus) String() string {
	return string(s)
}

// transitionEdge identifies one directed edge in the lifecycle graph.
type transitionEdge struct {
	from AssignmentStatus
	to   AssignmentStatus
}

// transitionActors maps each legal edge to the role allowed to drive it.
// A reopened assignment must be re-viewed by the student before resubmission;
// reopened -> submitted directly is not a legal edge.
var transitionActors = map[transitionEdge]Role{
	{StatusAssigned, StatusViewed}:    RoleStudent,
	{StatusViewed, StatusSubmitted}:   RoleStudent,
	{StatusSubmitted, StatusReviewed}: RoleTeacher,
	{StatusReviewed, StatusCompleted}: RoleTeacher,
	{StatusCompleted, StatusReopened}: RoleTeacher,
	{StatusReopened, StatusViewed}:    RoleStudent,
}

// LegalTransition reports whether the edge from -> to exists in the lifecycle
// graph, regardless of actor.
func LegalTransition(from, to AssignmentStatus) bool {
	_, ok := transitionActors[transitionEdge{from, to}]
	return ok
}

// CanTransition reports whether the given role is authorised to drive the
// from -> to edge. Owners and admins may drive any teacher edge; student edges
// belong to the student alone.
func CanTransition(role Role, from, to AssignmentStatus) bool {
	actor, ok := transitionActors[transitionEdge{from, to}]
	if !ok {
		return false
	}

	if actor == RoleTeacher {
		return role.IsStaff()
	}

	return role == actor
}

// AllowedTransitions returns the set of statuses reachable from the given
// status, in graph order.
func AllowedTransitions(from AssignmentStatus) []AssignmentStatus {
	allowed := make([]AssignmentStatus, 0, 2)
	for _, to := range AssignmentStatuses() {
		if LegalTransition(from, to) {
			allowed = append(allowed, to)
		}
	}
	return allowed
}
