package rules

import (
	"accessible-env-backend/internal/error/apperr"
	"accessible-env-backend/internal/error/code"
)

// Subject is the user a rule is applied to
type Subject struct {
	ID   uint
	Role Role
}

// ValidateInspectorAssignment enforces who may assign whom as inspector:
// only a superadmin assigns, only admin-role users are assigned, and nobody
// assigns themself.
func ValidateInspectorAssignment(actor Actor, target Subject) error {
	if !actor.IsSuperadmin() {
		return apperr.Forbidden(code.ErrForbidden, "only a superadmin can assign inspectors")
	}
	if actor.ID == target.ID {
		return apperr.Forbidden(code.ErrInvalidInspector, "you cannot assign yourself as inspector")
	}
	if target.Role != RoleAdmin {
		return apperr.Validation(code.ErrInvalidInspector, "only admin users can be assigned as inspectors")
	}
	return nil
}

// ValidateInspectorRemoval allows only a superadmin to remove assignments
func ValidateInspectorRemoval(actor Actor) error {
	if !actor.IsSuperadmin() {
		return apperr.Forbidden(code.ErrForbidden, "only a superadmin can remove inspectors")
	}
	return nil
}

// ValidateRoleChange guards role updates
func ValidateRoleChange(actor Actor, target Subject, newRole Role) error {
	if !newRole.Valid() {
		return apperr.Validation(code.ErrValidation, "unknown role")
	}
	if err := RequirePermission(actor.Role, PermUserManageRoles); err != nil {
		return err
	}
	if target.Role == RoleSuperadmin {
		return apperr.Forbidden(code.ErrForbidden, "cannot change role of a superadmin")
	}
	if target.ID == actor.ID {
		return apperr.Forbidden(code.ErrForbidden, "you cannot change your own role")
	}
	if newRole == RoleSuperadmin && !actor.IsSuperadmin() {
		return apperr.Forbidden(code.ErrForbidden, "only superadmins can promote to superadmin")
	}
	return nil
}

// ValidateBan guards banning and unbanning
func ValidateBan(actor Actor, target Subject) error {
	if err := RequirePermission(actor.Role, PermUserBan); err != nil {
		return err
	}
	if target.Role == RoleSuperadmin {
		return apperr.Forbidden(code.ErrForbidden, "cannot ban a superadmin")
	}
	if target.ID == actor.ID {
		return apperr.Forbidden(code.ErrForbidden, "you cannot ban yourself")
	}
	if target.Role == RoleAdmin && !actor.IsSuperadmin() {
		return apperr.Forbidden(code.ErrForbidden, "only superadmins can ban admins")
	}
	return nil
}

// CanModifyOwned reports whether actor may write an entity owned by ownerID.
// Owners always may; inspectors, admins and superadmins override.
func CanModifyOwned(actor Actor, ownerID uint) bool {
	return actor.ID == ownerID || actor.Role.AtLeast(RoleInspector)
}
