package rules

import (
	"accessible-env-backend/internal/error/apperr"
	"accessible-env-backend/internal/error/code"
)

// Permission names an operation
type Permission string

const (
	PermAll Permission = "*"

	PermLocationRead    Permission = "location:read"
	PermLocationCreate  Permission = "location:create"
	PermLocationUpdate  Permission = "location:update"
	PermLocationArchive Permission = "location:archive"
	PermInspectorManage Permission = "inspector:manage"

	PermAssessmentCreate Permission = "assessment:create"
	PermAssessmentRead   Permission = "assessment:read"
	PermAssessmentVerify Permission = "assessment:verify"
	PermAssessmentDelete Permission = "assessment:delete"

	PermCriteriaManage Permission = "criteria:manage"
	PermSetManage      Permission = "set:manage"
	PermCatalogManage  Permission = "catalog:manage"

	PermUserRead        Permission = "user:read"
	PermUserManageRoles Permission = "user:manage_roles"
	PermUserBan         Permission = "user:ban"

	PermImageUpload      Permission = "image:upload"
	PermReviewCreate     Permission = "review:create"
	PermNotificationRead Permission = "notification:read"
	PermStatisticsRead   Permission = "statistics:read"
	PermAuditRead        Permission = "audit:read"
)

var basePermissions = []Permission{
	PermLocationRead,
	PermLocationCreate,
	PermAssessmentCreate,
	PermAssessmentRead,
	PermImageUpload,
	PermReviewCreate,
	PermNotificationRead,
}

var permissionTable = map[Role][]Permission{
	RoleSuperadmin: {PermAll},
	RoleAdmin: append([]Permission{
		PermLocationUpdate,
		PermLocationArchive,
		PermAssessmentVerify,
		PermCriteriaManage,
		PermSetManage,
		PermCatalogManage,
		PermUserRead,
		PermUserManageRoles,
		PermUserBan,
		PermStatisticsRead,
	}, basePermissions...),
	RoleInspector: append([]Permission{
		PermLocationUpdate,
	}, basePermissions...),
	RoleUser: basePermissions,
}

// HasPermission looks up the static table for role
func HasPermission(role Role, perm Permission) bool {
	for _, p := range permissionTable[role] {
		if p == PermAll || p == perm {
			return true
		}
	}
	return false
}

// RequirePermission returns a forbidden error when role lacks perm
func RequirePermission(role Role, perm Permission) error {
	if HasPermission(role, perm) {
		return nil
	}
	return apperr.Forbidden(code.ErrForbidden, "permission denied: "+string(perm))
}
