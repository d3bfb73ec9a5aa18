// Package constants provides shared constants for the custodia application
package constants

import "fmt"

// MemberRole represents a user's role inside a family
type MemberRole string

const (
	// RoleParent can be assigned custody in rotations and events
	RoleParent MemberRole = "parent"
	// RoleGuardian can edit schedules but is not a custody parent
	RoleGuardian MemberRole = "guardian"
	// RoleViewer can only read the family calendar
	RoleViewer MemberRole = "viewer"
)

// IsValid checks if the member role value is valid
func (r MemberRole) IsValid() bool {
	return r == RoleParent || r == RoleGuardian || r == RoleViewer
}

// IsParenting reports whether the role can hold custody assignments
func (r MemberRole) IsParenting() bool {
	return r == RoleParent
}

// String returns the string representation of the member role
func (r MemberRole) String() string {
	return string(r)
}

// ParseMemberRole parses a string into a MemberRole type
// Returns an error if the value is invalid
func ParseMemberRole(s string) (MemberRole, error) {
	role := MemberRole(s)
	if !role.IsValid() {
		return "", fmt.Errorf("invalid member role: %s (must be 'parent', 'guardian' or 'viewer')", s)
	}
	return role, nil
}
