package postgres

import (
	"context"
	"time"

	entitlementDatamodel "github.com/frahmantamala/access-management/internal/core/datamodel/entitlement"
	"github.com/frahmantamala/access-management/internal/entitlement"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EntitlementRepository struct {
	db *gorm.DB
}

func NewEntitlementRepository(db *gorm.DB) entitlement.RepositoryAPI {
	return &EntitlementRepository{db: db}
}

func (r *EntitlementRepository) GetTenantByID(ctx context.Context, tenantID string) (*entitlementDatamodel.Tenant, error) {
	var tenant entitlementDatamodel.Tenant
	err := r.db.WithContext(ctx).Where("id = ? AND is_active = true", tenantID).First(&tenant).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &tenant, nil
}

func (r *EntitlementRepository) GetActivations(ctx context.Context, tenantID string) ([]*entitlementDatamodel.TenantModuleActivation, error) {
	var activations []*entitlementDatamodel.TenantModuleActivation
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("module_id ASC").
		Find(&activations).Error
	return activations, err
}

// UpsertActivation is the only write primitive on activations. On conflict
// with the (tenant_id, module_id) pair the row's state is replaced with the
// caller's, which covers activation, expiration extension and deactivation.
func (r *EntitlementRepository) UpsertActivation(ctx context.Context, activation *entitlementDatamodel.TenantModuleActivation) (*entitlementDatamodel.TenantModuleActivation, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "tenant_id"}, {Name: "module_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"is_active":  activation.IsActive,
				"expires_at": activation.ExpiresAt,
				"max_users":  activation.MaxUsers,
				"updated_at": time.Now(),
			}),
		}).
		Create(activation).Error
	if err != nil {
		return nil, err
	}

	var stored entitlementDatamodel.TenantModuleActivation
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND module_id = ?", activation.TenantID, activation.ModuleID).
		First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}
