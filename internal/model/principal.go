package model

import "github.com/google/uuid"

type UserRole string

const (
	UserRoleCustomer   UserRole = "customer"
	UserRoleAdmin      UserRole = "admin"
	UserRoleTechnician UserRole = "technician"
)

func (r UserRole) Valid() bool {
	switch r {
	case UserRoleCustomer, UserRoleAdmin, UserRoleTechnician:
		return true
	}
	return false
}

// Principal is the caller identity taken from the access token. Roles are
// disjoint identity spaces: the same UserID under two roles is two actors.
type Principal struct {
	UserID uuid.UUID
	Role   UserRole
}

func (p Principal) IsCustomer() bool {
	return p.Role == UserRoleCustomer
}

func (p Principal) IsAdmin() bool {
	return p.Role == UserRoleAdmin
}

func (p Principal) IsTechnician() bool {
	return p.Role == UserRoleTechnician
}
