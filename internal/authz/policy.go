// Package authz implements the pure authorization policy consulted before
// every resource query and mutation. The policy has no internal state and is
// evaluated fresh on each request; decisions are never cached.
package authz

import (
	"errors"

	"github.com/campushq/campus-api/internal/models"
)

// ErrForbidden is returned for every denied access decision.
var ErrForbidden = errors.New("forbidden")

// Actor is the immutable identity of the caller, resolved from the session
// credential by the JWT middleware. ChildIDs is populated for parent accounts
// from their parent links before owner checks are made.
type Actor struct {
	UserID   uint
	Role     models.Role
	CentreID uint
	ChildIDs []uint
}

// Owns reports whether the actor owns a record held by ownerID, either
// directly or through a linked child.
func (a Actor) Owns(ownerID uint) bool {
	if a.UserID == ownerID {
		return true
	}
	for _, child := range a.ChildIDs {
		if child == ownerID {
			return true
		}
	}
	return false
}

// Resource describes the record being accessed.
type Resource struct {
	CentreID uint
	OwnerID  uint
}

// Decide applies the platform access rules:
//
//   - super_admin bypasses tenant scoping entirely;
//   - every other role is confined to its own centre;
//   - students and parents are further confined to records they own
//     (self, or a linked child for parents);
//   - staff roles may act on any record within their centre. Route-level
//     role allowlists are enforced separately by middleware.
func Decide(actor Actor, res Resource) error {
	if actor.Role == models.RoleSuperAdmin {
		return nil
	}

	if actor.CentreID != res.CentreID {
		return ErrForbidden
	}

	if actor.Role.IsStaff() {
		return nil
	}

	if !actor.Owns(res.OwnerID) {
		return ErrForbidden
	}

	return nil
}

// DecideTenant checks tenant confinement only, for resources that have no
// individual owner (classes, courses, audit pages).
func DecideTenant(actor Actor, centreID uint) error {
	if actor.Role == models.RoleSuperAdmin {
		return nil
	}
	if actor.CentreID != centreID {
		return ErrForbidden
	}
	return nil
}
