package model

import (
	"errors"

	"github.com/google/uuid"
)

var ErrScopeUnsupported = errors.New("principal role is not allowed")

type ScopeType string

const (
	ScopeAll      ScopeType = "ALL"
	ScopeOwner    ScopeType = "OWNER"
	ScopeAssigned ScopeType = "ASSIGNED"
)

// Scope restricts which complaints a principal can see: customers their
// own, technicians those currently assigned to them, admins everything.
type Scope struct {
	Type   ScopeType
	UserID uuid.UUID
}

func ScopeFor(principal Principal) (Scope, error) {
	switch {
	case principal.IsAdmin():
		return Scope{Type: ScopeAll, UserID: principal.UserID}, nil
	case principal.IsCustomer():
		return Scope{Type: ScopeOwner, UserID: principal.UserID}, nil
	case principal.IsTechnician():
		return Scope{Type: ScopeAssigned, UserID: principal.UserID}, nil
	default:
		return Scope{}, ErrScopeUnsupported
	}
}

func (s Scope) AllowsComplaint(c *Complaint) bool {
	switch s.Type {
	case ScopeAll:
		return true
	case ScopeOwner:
		return c.IsOwnedBy(s.UserID)
	case ScopeAssigned:
		return c.IsAssignedTo(s.UserID)
	default:
		return false
	}
}
