package auth

import "github.com/google/uuid"

// Roles mirror the staff directory owned by the auth collaborator.
const (
	RoleSystemAdmin  = "SYSTEM_ADMIN"
	RoleSaccoManager = "SACCO_MANAGER"
	RoleSaccoStaff   = "SACCO_STAFF"
)

// Actor is the authenticated caller as asserted by the auth gateway.
// Session handling itself lives outside this service; we only consume the
// resolved identity.
type Actor struct {
	ID      string
	Role    string
	SaccoID *uuid.UUID
}

func (a Actor) IsSystemAdmin() bool {
	return a.Role == RoleSystemAdmin
}

// ResolveScope picks the tenant a request acts on: system admins may name
// any SACCO, everyone else is pinned to their own.
func (a Actor) ResolveScope(requested *uuid.UUID) *uuid.UUID {
	if a.IsSystemAdmin() {
		if requested != nil {
			return requested
		}
		return a.SaccoID
	}
	return a.SaccoID
}

func (a Actor) CanImportStatements(saccoID uuid.UUID) bool {
	return a.hasStaffAccess(saccoID)
}

func (a Actor) CanReconcilePayments(saccoID uuid.UUID) bool {
	return a.hasStaffAccess(saccoID)
}

func (a Actor) hasStaffAccess(saccoID uuid.UUID) bool {
	if a.IsSystemAdmin() {
		return true
	}
	if a.Role != RoleSaccoManager && a.Role != RoleSaccoStaff {
		return false
	}
	return a.SaccoID != nil && *a.SaccoID == saccoID
}
