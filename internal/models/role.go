package models

import "strings"

// Role identifies the authenticated actor's position within a school.
type Role string

const (
	RoleOwner   Role = "owner"
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
	RoleParent  Role = "parent"
)

// Roles lists every recognised role.
func Roles() []Role {
	return []Role{RoleOwner, RoleAdmin, RoleTeacher, RoleStudent, RoleParent}
}

// ParseRole normalises a raw role string into a Role, returning false when the
// value is not a member of the closed set.
func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	switch role {
	case RoleOwner, RoleAdmin, RoleTeacher, RoleStudent, RoleParent:
		return role, true
	default:
		return "", false
	}
}

// IsStaff reports whether the role carries teacher-side privileges.
func (r Role) IsStaff() bool {
	return r == RoleOwner || r == RoleAdmin || r == RoleTeacher
}

func (r Role) String() string {
	return string(r)
}
