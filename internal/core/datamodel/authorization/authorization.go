package authorization

import "time"

// Role is tenant-scoped; (tenant_id, code) is unique. IsSystem marks roles
// seeded by template application; template application never overwrites an
// existing role's name or description.
type Role struct {
	ID          int64     `gorm:"primaryKey"`
	TenantID    string    `gorm:"column:tenant_id;not null;uniqueIndex:ux_tenant_role_code"`
	Code        string    `gorm:"column:code;not null;uniqueIndex:ux_tenant_role_code"`
	Name        string    `gorm:"column:name;not null"`
	Description string    `gorm:"column:description"`
	IsSystem    bool      `gorm:"column:is_system;default:false"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Role) TableName() string { return "roles" }

// UserRoleAssignment links a tenant user to a role, with the same
// active/expiration rule as module activations.
type UserRoleAssignment struct {
	ID        int64      `gorm:"primaryKey"`
	TenantID  string     `gorm:"column:tenant_id;not null;uniqueIndex:ux_tenant_user_role"`
	UserID    int64      `gorm:"column:user_id;not null;uniqueIndex:ux_tenant_user_role"`
	RoleID    int64      `gorm:"column:role_id;not null;uniqueIndex:ux_tenant_user_role"`
	IsActive  bool       `gorm:"column:is_active;default:true"`
	ExpiresAt *time.Time `gorm:"column:expires_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (UserRoleAssignment) TableName() string { return "user_role_assignments" }

// RoleMenuGrant holds the seven action flags for one role on one menu item,
// plus an opaque extra-permissions JSON payload. (tenant_id, role_id, menu_id)
// is unique so concurrent upserts collapse into merges.
type RoleMenuGrant struct {
	ID               int64     `gorm:"primaryKey"`
	TenantID         string    `gorm:"column:tenant_id;not null;uniqueIndex:ux_tenant_role_menu"`
	RoleID           int64     `gorm:"column:role_id;not null;uniqueIndex:ux_tenant_role_menu"`
	MenuID           int64     `gorm:"column:menu_id;not null;uniqueIndex:ux_tenant_role_menu"`
	CanView          bool      `gorm:"column:can_view;default:false"`
	CanCreate        bool      `gorm:"column:can_create;default:false"`
	CanEdit          bool      `gorm:"column:can_edit;default:false"`
	CanDelete        bool      `gorm:"column:can_delete;default:false"`
	CanExport        bool      `gorm:"column:can_export;default:false"`
	CanPrint         bool      `gorm:"column:can_print;default:false"`
	CanApprove       bool      `gorm:"column:can_approve;default:false"`
	ExtraPermissions string    `gorm:"column:extra_permissions;type:text"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (RoleMenuGrant) TableName() string { return "role_menu_grants" }

// RoleBusinessPermissionGrant is simple membership of a role in a business
// permission; no flags.
type RoleBusinessPermissionGrant struct {
	ID           int64     `gorm:"primaryKey"`
	TenantID     string    `gorm:"column:tenant_id;not null;uniqueIndex:ux_tenant_role_permission"`
	RoleID       int64     `gorm:"column:role_id;not null;uniqueIndex:ux_tenant_role_permission"`
	PermissionID int64     `gorm:"column:permission_id;not null;uniqueIndex:ux_tenant_role_permission"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (RoleBusinessPermissionGrant) TableName() string { return "role_business_permission_grants" }

// TenantUser is a tenant's user record in the authorization store. The
// resolver uses it for existence checks; authentication itself lives outside
// this service.
type TenantUser struct {
	ID           int64     `gorm:"primaryKey"`
	TenantID     string    `gorm:"column:tenant_id;not null;uniqueIndex:ux_tenant_user_email"`
	Email        string    `gorm:"column:email;not null;uniqueIndex:ux_tenant_user_email"`
	Name         string    `gorm:"column:name;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	IsActive     bool      `gorm:"column:is_active;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (TenantUser) TableName() string { return "tenant_users" }
