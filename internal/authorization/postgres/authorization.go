package postgres

import (
	"context"
	"time"

	"github.com/frahmantamala/access-management/internal/authorization"
	authDatamodel "github.com/frahmantamala/access-management/internal/core/datamodel/authorization"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AuthorizationRepository struct {
	db *gorm.DB
}

func NewAuthorizationRepository(db *gorm.DB) authorization.RepositoryAPI {
	return &AuthorizationRepository{db: db}
}

func (r *AuthorizationRepository) GetUserByID(ctx context.Context, tenantID string, userID int64) (*authDatamodel.TenantUser, error) {
	var user authDatamodel.TenantUser
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ? AND is_active = true", tenantID, userID).
		First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *AuthorizationRepository) GetActiveUserRoles(ctx context.Context, tenantID string, userID int64) ([]*authDatamodel.UserRoleAssignment, error) {
	var assignments []*authDatamodel.UserRoleAssignment
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ? AND is_active = true AND (expires_at IS NULL OR expires_at > ?)",
			tenantID, userID, time.Now()).
		Find(&assignments).Error
	return assignments, err
}

func (r *AuthorizationRepository) GetRoleByID(ctx context.Context, tenantID string, roleID int64) (*authDatamodel.Role, error) {
	var role authDatamodel.Role
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, roleID).
		First(&role).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &role, nil
}

func (r *AuthorizationRepository) GetRolesByTenant(ctx context.Context, tenantID string) ([]*authDatamodel.Role, error) {
	var roles []*authDatamodel.Role
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("code ASC").
		Find(&roles).Error
	return roles, err
}

func (r *AuthorizationRepository) GetRoleMenuGrants(ctx context.Context, tenantID string, roleIDs, menuIDs []int64) ([]*authDatamodel.RoleMenuGrant, error) {
	if len(roleIDs) == 0 || len(menuIDs) == 0 {
		return nil, nil
	}
	var grants []*authDatamodel.RoleMenuGrant
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND role_id IN ? AND menu_id IN ?", tenantID, roleIDs, menuIDs).
		Find(&grants).Error
	return grants, err
}

func (r *AuthorizationRepository) GetRoleBusinessGrants(ctx context.Context, tenantID string, roleID int64) ([]*authDatamodel.RoleBusinessPermissionGrant, error) {
	var grants []*authDatamodel.RoleBusinessPermissionGrant
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND role_id = ?", tenantID, roleID).
		Order("permission_id ASC").
		Find(&grants).Error
	return grants, err
}

// UpsertRole inserts the role if no row holds (tenant_id, code) yet. On
// conflict nothing is written: an existing role keeps whatever name and
// description the tenant admin gave it. The stored row is returned either way.
func (r *AuthorizationRepository) UpsertRole(ctx context.Context, role *authDatamodel.Role) (*authDatamodel.Role, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "code"}},
			DoNothing: true,
		}).
		Create(role).Error
	if err != nil {
		return nil, err
	}

	var stored authDatamodel.Role
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND code = ?", role.TenantID, role.Code).
		First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

// UpsertRoleMenuGrant creates the grant or OR-merges its flags into the
// existing row. The unique constraint makes a losing concurrent insert a
// merge instead of a duplicate. The extra-permissions payload is only filled
// in when the existing row has none, so a manual edit is never clobbered.
func (r *AuthorizationRepository) UpsertRoleMenuGrant(ctx context.Context, grant *authDatamodel.RoleMenuGrant) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "tenant_id"}, {Name: "role_id"}, {Name: "menu_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"can_view":    gorm.Expr("role_menu_grants.can_view OR excluded.can_view"),
				"can_create":  gorm.Expr("role_menu_grants.can_create OR excluded.can_create"),
				"can_edit":    gorm.Expr("role_menu_grants.can_edit OR excluded.can_edit"),
				"can_delete":  gorm.Expr("role_menu_grants.can_delete OR excluded.can_delete"),
				"can_export":  gorm.Expr("role_menu_grants.can_export OR excluded.can_export"),
				"can_print":   gorm.Expr("role_menu_grants.can_print OR excluded.can_print"),
				"can_approve": gorm.Expr("role_menu_grants.can_approve OR excluded.can_approve"),
				"extra_permissions": gorm.Expr(
					"CASE WHEN role_menu_grants.extra_permissions IS NULL OR role_menu_grants.extra_permissions = '' " +
						"THEN excluded.extra_permissions ELSE role_menu_grants.extra_permissions END"),
				"updated_at": time.Now(),
			}),
		}).
		Create(grant).Error
}

// ReplaceRoleMenuGrant writes the given flags verbatim (admin edit path).
func (r *AuthorizationRepository) ReplaceRoleMenuGrant(ctx context.Context, grant *authDatamodel.RoleMenuGrant) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "tenant_id"}, {Name: "role_id"}, {Name: "menu_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"can_view":          grant.CanView,
				"can_create":        grant.CanCreate,
				"can_edit":          grant.CanEdit,
				"can_delete":        grant.CanDelete,
				"can_export":        grant.CanExport,
				"can_print":         grant.CanPrint,
				"can_approve":       grant.CanApprove,
				"extra_permissions": grant.ExtraPermissions,
				"updated_at":        time.Now(),
			}),
		}).
		Create(grant).Error
}

func (r *AuthorizationRepository) UpsertRoleBusinessGrant(ctx context.Context, grant *authDatamodel.RoleBusinessPermissionGrant) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "role_id"}, {Name: "permission_id"}},
			DoNothing: true,
		}).
		Create(grant).Error
}

// ReplaceRoleBusinessGrants deletes and reinserts inside one transaction so a
// mid-operation failure leaves the prior grant set intact.
func (r *AuthorizationRepository) ReplaceRoleBusinessGrants(ctx context.Context, tenantID string, roleID int64, permissionIDs []int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("tenant_id = ? AND role_id = ?", tenantID, roleID).
			Delete(&authDatamodel.RoleBusinessPermissionGrant{}).Error; err != nil {
			return err
		}
		for _, permissionID := range permissionIDs {
			grant := &authDatamodel.RoleBusinessPermissionGrant{
				TenantID:     tenantID,
				RoleID:       roleID,
				PermissionID: permissionID,
			}
			if err := tx.Create(grant).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *AuthorizationRepository) UpsertUserRoleAssignment(ctx context.Context, assignment *authDatamodel.UserRoleAssignment) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "tenant_id"}, {Name: "user_id"}, {Name: "role_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"is_active":  true,
				"expires_at": assignment.ExpiresAt,
			}),
		}).
		Create(assignment).Error
}

func (r *AuthorizationRepository) DeactivateUserRoleAssignment(ctx context.Context, tenantID string, userID, roleID int64) error {
	return r.db.WithContext(ctx).
		Model(&authDatamodel.UserRoleAssignment{}).
		Where("tenant_id = ? AND user_id = ? AND role_id = ?", tenantID, userID, roleID).
		Update("is_active", false).Error
}

func (r *AuthorizationRepository) Transaction(ctx context.Context, fn func(repo authorization.RepositoryAPI) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&AuthorizationRepository{db: tx})
	})
}
