package authorization

import "encoding/json"

type RoleResponse struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsSystem    bool   `json:"is_system"`
}

type RolesResponse struct {
	Roles []RoleResponse `json:"roles"`
}

func (r *Role) ToResponse() RoleResponse {
	return RoleResponse{
		ID:          r.ID,
		Code:        r.Code,
		Name:        r.Name,
		Description: r.Description,
		IsSystem:    r.IsSystem,
	}
}

// SetBusinessPermissionsDTO replaces a role's business permission set in
// full; an empty list clears every grant.
type SetBusinessPermissionsDTO struct {
	PermissionIDs []int64 `json:"permission_ids"`
}

// SetMenuGrantDTO carries the authoritative flag set plus the opaque
// extra-permissions document, stored as-is.
type SetMenuGrantDTO struct {
	Flags            PermissionFlags `json:"flags"`
	ExtraPermissions json.RawMessage `json:"extra_permissions,omitempty"`
}

type AssignRoleDTO struct {
	UserID int64 `json:"user_id"`
}
