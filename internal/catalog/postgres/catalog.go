package postgres

import (
	"context"

	"github.com/frahmantamala/access-management/internal/catalog"
	catalogDatamodel "github.com/frahmantamala/access-management/internal/core/datamodel/catalog"
	"gorm.io/gorm"
)

type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) catalog.RepositoryAPI {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) GetModuleByID(ctx context.Context, id int64) (*catalogDatamodel.Module, error) {
	var module catalogDatamodel.Module
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&module).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &module, nil
}

func (r *CatalogRepository) GetAllModules(ctx context.Context) ([]*catalogDatamodel.Module, error) {
	var modules []*catalogDatamodel.Module
	err := r.db.WithContext(ctx).Order("sort_order ASC, code ASC").Find(&modules).Error
	return modules, err
}

func (r *CatalogRepository) GetModuleDependencies(ctx context.Context, moduleID int64) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).
		Model(&catalogDatamodel.ModuleDependency{}).
		Where("module_id = ?", moduleID).
		Order("requires_code ASC").
		Pluck("requires_code", &codes).Error
	return codes, err
}

// GetMenuRowsForModules joins menu items with their module and section
// ordering columns, filtered the way the resolver needs them: item active and
// visible, module in the given set, and either tenant-global or scoped to the
// given tenant.
func (r *CatalogRepository) GetMenuRowsForModules(ctx context.Context, tenantID string, moduleIDs []int64) ([]catalog.MenuRow, error) {
	query := `SELECT mi.id, mi.code, mi.name, mi.route, mi.icon, mi.level, mi.sort_order,
	                 mi.parent_id, mi.module_id,
	                 m.code AS module_code, m.name AS module_name, m.sort_order AS module_sort_order,
	                 mi.section_id, COALESCE(s.name, '') AS section_name, COALESCE(s.sort_order, 0) AS section_sort_order
	          FROM menu_items mi
	          JOIN modules m ON m.id = mi.module_id
	          LEFT JOIN sections s ON s.id = mi.section_id
	          WHERE mi.module_id IN ? AND mi.is_active = true AND mi.is_visible = true
	            AND (mi.tenant_id IS NULL OR mi.tenant_id = ?)`

	rows, err := r.db.WithContext(ctx).Raw(query, moduleIDs, tenantID).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []catalog.MenuRow
	for rows.Next() {
		var row catalog.MenuRow
		if err := rows.Scan(
			&row.ID, &row.Code, &row.Name, &row.Route, &row.Icon, &row.Level, &row.SortOrder,
			&row.ParentID, &row.ModuleID,
			&row.ModuleCode, &row.ModuleName, &row.ModuleSortOrder,
			&row.SectionID, &row.SectionName, &row.SectionSortOrder,
		); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *CatalogRepository) GetRoleTemplates(ctx context.Context, moduleID int64) ([]*catalogDatamodel.RoleTemplate, error) {
	var templates []*catalogDatamodel.RoleTemplate
	err := r.db.WithContext(ctx).
		Where("module_id = ? AND is_active = true", moduleID).
		Order("sort_order ASC, id ASC").
		Find(&templates).Error
	return templates, err
}

func (r *CatalogRepository) GetPermissionsByCodes(ctx context.Context, codes []string) ([]*catalogDatamodel.Permission, error) {
	var permissions []*catalogDatamodel.Permission
	err := r.db.WithContext(ctx).Where("code IN ?", codes).Find(&permissions).Error
	return permissions, err
}

func (r *CatalogRepository) GetMenuItemsByCodes(ctx context.Context, codes []string) ([]*catalogDatamodel.MenuItem, error) {
	var items []*catalogDatamodel.MenuItem
	err := r.db.WithContext(ctx).Where("code IN ?", codes).Find(&items).Error
	return items, err
}
