package identity

import "fmt"

// Role is the closed set of tenant roles. Comparing raw strings at call
// sites is how typo bugs slip in, so every consumer goes through this type.
type Role string

const (
	// RoleClient is the lowest-privilege tier and the default for
	// lazily provisioned accounts.
	RoleClient        Role = "client"
	RoleDietitianTeam Role = "dietitian_team_member"
	RoleDietitian     Role = "dietitian"
	RoleAdmin         Role = "admin"
	RoleSuperadmin    Role = "superadmin"
)

// ParseRole validates a raw role string, e.g. one carried in a token claim.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleClient, RoleDietitianTeam, RoleDietitian, RoleAdmin, RoleSuperadmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) String() string { return string(r) }

// In reports whether r is a member of the given allow-list.
func (r Role) In(allowed []Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}
