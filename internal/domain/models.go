package domain

type Role string

const (
	RoleStandard Role = "standard"
	RoleAdmin    Role = "admin"
)

// Normalize maps empty or unrecognized stored roles to RoleStandard.
func (r Role) Normalize() Role {
	if r == RoleAdmin {
		return RoleAdmin
	}
	return RoleStandard
}

func (r Role) IsAdmin() bool { return r == RoleAdmin }

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleStandard, RoleAdmin:
		return Role(s), true
	}
	return "", false
}
