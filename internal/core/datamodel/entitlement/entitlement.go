package entitlement

import "time"

// TenantModuleActivation records that a tenant has licensed a module.
// (tenant_id, module_id) is unique; "active" for resolution purposes means
// IsActive and not past ExpiresAt.
type TenantModuleActivation struct {
	ID        int64      `gorm:"primaryKey"`
	TenantID  string     `gorm:"column:tenant_id;not null;uniqueIndex:ux_tenant_module"`
	ModuleID  int64      `gorm:"column:module_id;not null;uniqueIndex:ux_tenant_module"`
	IsActive  bool       `gorm:"column:is_active;default:true"`
	ExpiresAt *time.Time `gorm:"column:expires_at"`
	MaxUsers  *int       `gorm:"column:max_users"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (TenantModuleActivation) TableName() string { return "tenant_module_activations" }

// Tenant is the entitlement store's record of a customer account. The
// resolver uses it only for existence checks.
type Tenant struct {
	ID        string    `gorm:"primaryKey;column:id"`
	Name      string    `gorm:"column:name;not null"`
	IsActive  bool      `gorm:"column:is_active;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Tenant) TableName() string { return "tenants" }
