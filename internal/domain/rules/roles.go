// Package rules holds the business rules of the platform as plain functions:
// role ordering, permissions, password strength, the assessment workflow and
// score computation. Nothing here touches the database or HTTP.
package rules

import "strings"

// Role is a user's role. Roles are ordered: superadmin > admin > inspector > user.
type Role string

const (
	RoleSuperadmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleInspector  Role = "inspector"
	RoleUser       Role = "user"
)

var roleRank = map[Role]int{
	RoleSuperadmin: 4,
	RoleAdmin:      3,
	RoleInspector:  2,
	RoleUser:       1,
}

// Rank returns the position of the role, 0 for unknown roles
func (r Role) Rank() int {
	return roleRank[r]
}

// Valid reports whether r is one of the four known roles
func (r Role) Valid() bool {
	return r.Rank() > 0
}

// AtLeast reports whether r ranks at or above min
func (r Role) AtLeast(min Role) bool {
	return r.Valid() && r.Rank() >= min.Rank()
}

// ParseRole converts a string to a Role
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// AllRoles lists roles from highest to lowest
func AllRoles() []Role {
	return []Role{RoleSuperadmin, RoleAdmin, RoleInspector, RoleUser}
}

// Actor is the authenticated caller of a use case
type Actor struct {
	ID   uint
	Role Role
}

// IsSuperadmin reports whether the actor bypasses scoped checks
func (a Actor) IsSuperadmin() bool {
	return a.Role == RoleSuperadmin
}
