package gemauth

// Role identifies what a user is allowed to do in the marketplace.
type Role string

const (
	// RoleUser is a regular buyer account.
	RoleUser Role = "user"
	// RoleAdmin can manage any resource and bypasses ownership checks.
	RoleAdmin Role = "admin"
	// RoleDealer is a professional gemstone dealer.
	RoleDealer Role = "dealer"
	// RoleCutter is a professional gemstone cutter.
	RoleCutter Role = "cutter"
	// RoleAppraiser is a professional gemstone appraiser.
	RoleAppraiser Role = "appraiser"
)

// Roles lists every role the system knows about.
var Roles = []Role{RoleUser, RoleAdmin, RoleDealer, RoleCutter, RoleAppraiser}

// ProfessionalRoles are the roles that require a professional profile.
var ProfessionalRoles = []Role{RoleDealer, RoleCutter, RoleAppraiser}

// ParseRole returns the Role matching s, or false when s names no
// known role. Matching is exact, roles are stored lowercase.
func ParseRole(s string) (Role, bool) {
	role := Role(s)
	if role.IsValid() {
		return role, true
	}
	return "", false
}

// IsValid reports whether r is one of the defined roles.
func (r Role) IsValid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// IsProfessional reports whether r requires a professional profile.
func (r Role) IsProfessional() bool {
	for _, p := range ProfessionalRoles {
		if r == p {
			return true
		}
	}
	return false
}

func (r Role) String() string {
	return string(r)
}
