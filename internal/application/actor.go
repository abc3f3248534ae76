package application

import (
	"github.com/google/uuid"

	"github.com/swiftbus/service-reservation/pkg/auth"
)

// Actor identifies who is performing an operation. Capability checks take
// the role explicitly instead of reading ambient session state, so the
// caller always states on whose authority it acts.
type Actor struct {
	UserID uuid.UUID
	Role   auth.Role
}

// IsAdmin reports whether the actor has the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == auth.RoleAdmin
}

// CanAccess reports whether the actor may read or modify a resource owned
// by the given user.
func (a Actor) CanAccess(ownerID uuid.UUID) bool {
	return a.IsAdmin() || a.UserID == ownerID
}

// CanReserve reports whether the actor may create reservations.
// Drivers operate buses; they do not hold customer bookings.
func (a Actor) CanReserve() bool {
	return a.Role == auth.RoleCustomer || a.Role == auth.RoleAdmin
}
