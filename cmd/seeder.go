package cmd

import (
	"fmt"
	"log"

	authDatamodel "github.com/frahmantamala/access-management/internal/core/datamodel/authorization"
	catalogDatamodel "github.com/frahmantamala/access-management/internal/core/datamodel/catalog"
	entitlementDatamodel "github.com/frahmantamala/access-management/internal/core/datamodel/entitlement"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the stores with sample data",
	Long:  `Seed the catalog and tenant stores with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		_, catalogGorm, err := initDB(cfg.CatalogDB)
		if err != nil {
			log.Fatalf("failed to init catalog store: %v", err)
		}
		_, tenantGorm, err := initDB(cfg.TenantDB)
		if err != nil {
			log.Fatalf("failed to init tenant store: %v", err)
		}

		if clearData {
			clearStores(catalogGorm, tenantGorm)
		}

		seedCatalog(catalogGorm)
		seedTenant(tenantGorm, cfg.Security.BCryptCost)
	},
}

func clearStores(catalogDB, tenantDB *gorm.DB) {
	tenantTables := []string{
		"role_business_permission_grants", "role_menu_grants",
		"user_role_assignments", "roles", "tenant_users",
		"tenant_module_activations", "tenants",
	}
	for _, table := range tenantTables {
		if err := tenantDB.Exec("DELETE FROM " + table).Error; err != nil {
			log.Fatalf("failed to clear %s: %v", table, err)
		}
	}

	catalogTables := []string{
		"role_templates", "permissions", "menu_items",
		"sections", "module_dependencies", "modules",
	}
	for _, table := range catalogTables {
		if err := catalogDB.Exec("DELETE FROM " + table).Error; err != nil {
			log.Fatalf("failed to clear %s: %v", table, err)
		}
	}
	fmt.Println("Cleared existing data")
}

// seedCatalog loads a small but complete catalog: two modules with a
// dependency between them, sections, a three-level menu tree, business
// permissions and one role template per module.
func seedCatalog(db *gorm.DB) {
	modules := []catalogDatamodel.Module{
		{Code: "core", Name: "Core Platform", IsActive: true, SortOrder: 1},
		{Code: "inventory", Name: "Inventory", IsActive: true, SortOrder: 2},
	}
	for i := range modules {
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoNothing: true,
		}).Create(&modules[i]).Error; err != nil {
			log.Fatalf("failed to seed module %s: %v", modules[i].Code, err)
		}
		if err := db.Where("code = ?", modules[i].Code).First(&modules[i]).Error; err != nil {
			log.Fatalf("failed to read back module %s: %v", modules[i].Code, err)
		}
	}
	core, inventory := modules[0], modules[1]

	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&catalogDatamodel.ModuleDependency{
		ModuleID:     inventory.ID,
		RequiresCode: "core",
	}).Error; err != nil {
		log.Fatalf("failed to seed module dependency: %v", err)
	}

	section := catalogDatamodel.Section{ModuleID: inventory.ID, Name: "Warehouse", SortOrder: 1}
	if err := db.Where("module_id = ? AND name = ?", section.ModuleID, section.Name).
		FirstOrCreate(&section).Error; err != nil {
		log.Fatalf("failed to seed section: %v", err)
	}

	menus := []catalogDatamodel.MenuItem{
		{ModuleID: core.ID, Code: "core.dashboard", Name: "Dashboard", Route: "/dashboard", Icon: "home", Level: 1, SortOrder: 1, IsActive: true, IsVisible: true},
		{ModuleID: core.ID, Code: "core.settings", Name: "Settings", Route: "/settings", Icon: "gear", Level: 1, SortOrder: 2, IsActive: true, IsVisible: true},
		{ModuleID: inventory.ID, SectionID: &section.ID, Code: "inventory.items", Name: "Items", Route: "/inventory/items", Icon: "box", Level: 1, SortOrder: 1, IsActive: true, IsVisible: true},
		{ModuleID: inventory.ID, SectionID: &section.ID, Code: "inventory.stock", Name: "Stock", Route: "/inventory/stock", Icon: "layers", Level: 1, SortOrder: 2, IsActive: true, IsVisible: true},
	}
	for i := range menus {
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoNothing: true,
		}).Create(&menus[i]).Error; err != nil {
			log.Fatalf("failed to seed menu %s: %v", menus[i].Code, err)
		}
		if err := db.Where("code = ?", menus[i].Code).First(&menus[i]).Error; err != nil {
			log.Fatalf("failed to read back menu %s: %v", menus[i].Code, err)
		}
	}

	// Nested child under inventory.stock to exercise multi-level resolution.
	stockAdjust := catalogDatamodel.MenuItem{
		ModuleID: inventory.ID, SectionID: &section.ID, ParentID: &menus[3].ID,
		Code: "inventory.stock.adjustments", Name: "Adjustments", Route: "/inventory/stock/adjustments",
		Level: 2, SortOrder: 1, IsActive: true, IsVisible: true,
	}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoNothing: true,
	}).Create(&stockAdjust).Error; err != nil {
		log.Fatalf("failed to seed menu %s: %v", stockAdjust.Code, err)
	}

	permissions := []catalogDatamodel.Permission{
		{Code: "inventory.items.adjust_cost", Name: "Adjust item cost"},
		{Code: "inventory.stock.writeoff", Name: "Write off stock"},
	}
	for i := range permissions {
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoNothing: true,
		}).Create(&permissions[i]).Error; err != nil {
			log.Fatalf("failed to seed permission %s: %v", permissions[i].Code, err)
		}
	}

	templates := []catalogDatamodel.RoleTemplate{
		{
			ModuleID: core.ID, RoleCode: "core_user", RoleName: "Core User", SortOrder: 1, IsActive: true,
			Blueprint: `{"menus":[{"menu":"core.dashboard","flags":{"view":true}},{"menu":"core.settings","flags":{"view":true,"edit":true}}]}`,
		},
		{
			ModuleID: inventory.ID, RoleCode: "inventory_manager", RoleName: "Inventory Manager", SortOrder: 1, IsActive: true,
			Blueprint: `{"menus":[{"menu":"inventory.items","flags":{"view":true,"create":true,"edit":true,"delete":true}},{"menu":"inventory.stock","flags":{"view":true,"edit":true},"extra":{"max_adjustment":100}},{"menu":"inventory.stock.adjustments","flags":{"view":true,"create":true}}],"permissions":["inventory.items.adjust_cost","inventory.stock.writeoff"]}`,
		},
	}
	for i := range templates {
		var existing int64
		db.Model(&catalogDatamodel.RoleTemplate{}).
			Where("module_id = ? AND role_code = ?", templates[i].ModuleID, templates[i].RoleCode).
			Count(&existing)
		if existing > 0 {
			continue
		}
		if err := db.Create(&templates[i]).Error; err != nil {
			log.Fatalf("failed to seed role template %s: %v", templates[i].RoleCode, err)
		}
	}

	fmt.Println("Seeded catalog: 2 modules, 5 menus, 2 permissions, 2 role templates")
}

// seedTenant creates a demo tenant with two users and activates the core
// module. Role provisioning happens through the activation endpoint, not
// here, so the seeded state matches what the real flow produces.
func seedTenant(db *gorm.DB, bcryptCost int) {
	tenant := entitlementDatamodel.Tenant{ID: "acme", Name: "Acme Corp", IsActive: true}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&tenant).Error; err != nil {
		log.Fatalf("failed to seed tenant: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcryptCost)
	if err != nil {
		log.Fatalf("failed to hash seed password: %v", err)
	}

	users := []authDatamodel.TenantUser{
		{TenantID: tenant.ID, Email: "owner@acme.test", Name: "Acme Owner", PasswordHash: string(hash), IsActive: true},
		{TenantID: tenant.ID, Email: "clerk@acme.test", Name: "Acme Clerk", PasswordHash: string(hash), IsActive: true},
	}
	for i := range users {
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "email"}},
			DoNothing: true,
		}).Create(&users[i]).Error; err != nil {
			log.Fatalf("failed to seed user %s: %v", users[i].Email, err)
		}
	}

	fmt.Println("Seeded tenant:", tenant.ID, "with", len(users), "users")
}
