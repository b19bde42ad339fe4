package domain

// RoleName enumerates the closed set of role identifiers.
type RoleName string

const (
	RoleAdmin  RoleName = "ADMIN"
	RoleMember RoleName = "MEMBER"
)

// Role is a named permission grouping attached to users.
// Roles are seeded by migration; the service only ever reads them.
type Role struct {
	ID   string
	Name RoleName
}
