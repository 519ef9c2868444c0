package catalog

import "time"

// Module is a licensable feature bundle. Rows are owned by platform
// administration; this service only ever reads them.
type Module struct {
	ID        int64     `gorm:"primaryKey"`
	Code      string    `gorm:"column:code;uniqueIndex;not null"`
	Name      string    `gorm:"column:name;not null"`
	IsActive  bool      `gorm:"column:is_active;default:true"`
	SortOrder int       `gorm:"column:sort_order;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Module) TableName() string { return "modules" }

// ModuleDependency declares that a module requires another module (by code)
// to be active for the same tenant before it can be activated.
type ModuleDependency struct {
	ID           int64  `gorm:"primaryKey"`
	ModuleID     int64  `gorm:"column:module_id;not null;index"`
	RequiresCode string `gorm:"column:requires_code;not null"`
}

func (ModuleDependency) TableName() string { return "module_dependencies" }

// Section is an optional grouping layer between a module and its menus.
type Section struct {
	ID        int64  `gorm:"primaryKey"`
	ModuleID  int64  `gorm:"column:module_id;not null;index"`
	Name      string `gorm:"column:name;not null"`
	SortOrder int    `gorm:"column:sort_order;default:0"`
}

func (Section) TableName() string { return "sections" }

// MenuItem is one node of a module's navigation tree. ParentID self-references
// menu_items; Level is 1 for roots and parent.Level+1 below, max depth 3.
// TenantID nil means the item is visible to every tenant.
type MenuItem struct {
	ID        int64     `gorm:"primaryKey"`
	ModuleID  int64     `gorm:"column:module_id;not null;index"`
	SectionID *int64    `gorm:"column:section_id;index"`
	ParentID  *int64    `gorm:"column:parent_id;index"`
	Code      string    `gorm:"column:code;uniqueIndex;not null"`
	Name      string    `gorm:"column:name;not null"`
	Route     string    `gorm:"column:route"`
	Icon      string    `gorm:"column:icon"`
	Level     int       `gorm:"column:level;default:1"`
	SortOrder int       `gorm:"column:sort_order;default:0"`
	IsActive  bool      `gorm:"column:is_active;default:true"`
	IsVisible bool      `gorm:"column:is_visible;default:true"`
	TenantID  *string   `gorm:"column:tenant_id;index"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (MenuItem) TableName() string { return "menu_items" }

// Permission is a catalog entry for one business action. Code follows
// module.resource.action and is immutable once a grant references it.
type Permission struct {
	ID          int64     `gorm:"primaryKey"`
	Code        string    `gorm:"column:code;uniqueIndex;not null"`
	Name        string    `gorm:"column:name;not null"`
	Description string    `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Permission) TableName() string { return "permissions" }

// RoleTemplate is a module-defined blueprint of default grants applied when a
// tenant activates the module. Blueprint is a JSON document; see the catalog
// package for its parsed form.
type RoleTemplate struct {
	ID          int64     `gorm:"primaryKey"`
	ModuleID    int64     `gorm:"column:module_id;not null;index"`
	RoleCode    string    `gorm:"column:role_code;not null"`
	RoleName    string    `gorm:"column:role_name;not null"`
	Description string    `gorm:"column:description"`
	SortOrder   int       `gorm:"column:sort_order;default:0"`
	IsActive    bool      `gorm:"column:is_active;default:true"`
	Blueprint   string    `gorm:"column:blueprint;type:text;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (RoleTemplate) TableName() string { return "role_templates" }
