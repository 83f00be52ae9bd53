package auth

import (
	"fmt"
	"strings"
)

// RoleMatcher decides whether the role claim satisfies the role an endpoint requires.
type RoleMatcher func(expected, actual string) bool

// Role match strategy names accepted by ParseRoleMatcher.
const (
	RoleMatchSubstring = "substring"
	RoleMatchExact     = "exact"
)

// SubstringRoleMatch accepts any role claim that contains the expected role.
//
// INSECURE: "superadmin", "administrator" and "user;admin" all satisfy "admin".
// Kept as the reference behavior for security training builds.
func SubstringRoleMatch(expected, actual string) bool {
	return strings.Contains(actual, expected)
}

// ExactRoleMatch accepts only a role claim equal to the expected role.
func ExactRoleMatch(expected, actual string) bool {
	return actual == expected
}

// ParseRoleMatcher resolves a strategy name to its matcher.
func ParseRoleMatcher(name string) (RoleMatcher, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case RoleMatchSubstring:
		return SubstringRoleMatch, nil
	case RoleMatchExact:
		return ExactRoleMatch, nil
	default:
		return nil, fmt.Errorf("unknown role match strategy %q", name)
	}
}
