package entitlement

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/internal/catalog"
	entitlementDatamodel "github.com/frahmantamala/access-management/internal/core/datamodel/entitlement"
	"github.com/frahmantamala/access-management/internal/core/events"
	"github.com/frahmantamala/access-management/internal/provisioning"
)

type RepositoryAPI interface {
	GetTenantByID(ctx context.Context, tenantID string) (*entitlementDatamodel.Tenant, error)
	GetActivations(ctx context.Context, tenantID string) ([]*entitlementDatamodel.TenantModuleActivation, error)
	UpsertActivation(ctx context.Context, activation *entitlementDatamodel.TenantModuleActivation) (*entitlementDatamodel.TenantModuleActivation, error)
}

// CatalogAPI is the slice of the catalog this service reads: the target
// module with its dependency declaration, and the full module list for
// mapping activation rows back to codes.
type CatalogAPI interface {
	GetModule(ctx context.Context, moduleID int64) (*catalog.Module, error)
	ListModules(ctx context.Context) ([]*catalog.Module, error)
}

// TemplateApplierAPI runs the provisioning step of an activation.
type TemplateApplierAPI interface {
	ApplyTemplates(ctx context.Context, tenantID string, moduleID int64) ([]provisioning.TemplateResult, error)
}

type Service struct {
	repo    RepositoryAPI
	catalog CatalogAPI
	applier TemplateApplierAPI
	bus     *events.EventBus
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(repo RepositoryAPI, catalogAPI CatalogAPI, applier TemplateApplierAPI, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		catalog: catalogAPI,
		applier: applier,
		bus:     bus,
		logger:  logger,
		now:     time.Now,
	}
}

// GetActiveActivations returns only the activations that are active right
// now under the flag-and-expiry rule.
func (s *Service) GetActiveActivations(ctx context.Context, tenantID string) ([]*Activation, error) {
	all, err := s.listActivations(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	active := make([]*Activation, 0, len(all))
	for _, a := range all {
		if a.IsCurrentlyActive(now) {
			active = append(active, a)
		}
	}
	return active, nil
}

// TenantExists reports whether the tenant is known and active. Resolution
// callers use it for their up-front existence check.
func (s *Service) TenantExists(ctx context.Context, tenantID string) (bool, error) {
	tenant, err := s.repo.GetTenantByID(ctx, tenantID)
	if err != nil {
		s.logger.Error("failed to read tenant", "error", err, "tenant_id", tenantID)
		return false, internal.NewInternalError("entitlement store read failed", err)
	}
	return tenant != nil, nil
}

func (s *Service) ListActivations(ctx context.Context, tenantID string) ([]*Activation, error) {
	if err := s.requireTenant(ctx, tenantID); err != nil {
		return nil, err
	}
	return s.listActivations(ctx, tenantID)
}

// ValidateActivation checks the module's dependency declaration against the
// tenant's currently-active module set. It returns a DependencyMissing error
// listing exactly the required codes that are absent or expired.
func (s *Service) ValidateActivation(ctx context.Context, tenantID string, moduleID int64) error {
	module, err := s.catalog.GetModule(ctx, moduleID)
	if err != nil {
		return err
	}
	if len(module.Requires) == 0 {
		return nil
	}

	activeCodes, err := s.activeModuleCodes(ctx, tenantID)
	if err != nil {
		return err
	}

	var missing []string
	for _, required := range module.Requires {
		if _, ok := activeCodes[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		s.logger.Warn("activation blocked by missing dependencies",
			"tenant_id", tenantID,
			"module_id", moduleID,
			"missing", missing)
		return internal.NewDependencyMissingError(missing)
	}
	return nil
}

// ActivateModule runs the full activation: dependency validation, the
// entitlement write, then template application. Validation failure aborts
// with no writes. The entitlement write and the template application commit
// separately; a reader in between correctly sees the module's menus as
// visible but capability-empty.
func (s *Service) ActivateModule(ctx context.Context, tenantID string, moduleID int64, opts ActivateOptions) (*ActivationResult, error) {
	if err := s.requireTenant(ctx, tenantID); err != nil {
		return nil, err
	}

	if opts.ExpiresAt != nil && !opts.ExpiresAt.After(s.now()) {
		return nil, internal.NewValidationError("expiration must be in the future", internal.ErrCodeInvalidExpiration)
	}

	if err := s.ValidateActivation(ctx, tenantID, moduleID); err != nil {
		return nil, err
	}

	stored, err := s.repo.UpsertActivation(ctx, &entitlementDatamodel.TenantModuleActivation{
		TenantID:  tenantID,
		ModuleID:  moduleID,
		IsActive:  true,
		ExpiresAt: opts.ExpiresAt,
		MaxUsers:  opts.MaxUsers,
	})
	if err != nil {
		s.logger.Error("failed to write activation", "error", err, "tenant_id", tenantID, "module_id", moduleID)
		return nil, internal.NewInternalError("entitlement store write failed", err)
	}

	s.publish(ctx, events.NewActivationChangedEvent(tenantID, moduleID, true))

	result := &ActivationResult{Activation: FromDataModel(stored)}

	templates, err := s.applier.ApplyTemplates(ctx, tenantID, moduleID)
	if err != nil {
		// The activation is committed; the caller learns that provisioning
		// is the step that needs a retry.
		s.logger.Error("template application failed after activation",
			"error", err, "tenant_id", tenantID, "module_id", moduleID)
		result.TemplateError = err.Error()
		return result, nil
	}
	result.Templates = templates

	s.logger.Info("module activated",
		"tenant_id", tenantID,
		"module_id", moduleID,
		"templates", len(templates),
		"fully_applied", result.FullyApplied())

	return result, nil
}

// DeactivateModule flips the activation off. Grants are untouched: menu
// visibility depends only on activation state, so the module disappears from
// resolution while the tenant's role configuration survives a reactivation.
func (s *Service) DeactivateModule(ctx context.Context, tenantID string, moduleID int64) (*Activation, error) {
	if err := s.requireTenant(ctx, tenantID); err != nil {
		return nil, err
	}
	if _, err := s.catalog.GetModule(ctx, moduleID); err != nil {
		return nil, err
	}

	stored, err := s.repo.UpsertActivation(ctx, &entitlementDatamodel.TenantModuleActivation{
		TenantID: tenantID,
		ModuleID: moduleID,
		IsActive: false,
	})
	if err != nil {
		s.logger.Error("failed to deactivate module", "error", err, "tenant_id", tenantID, "module_id", moduleID)
		return nil, internal.NewInternalError("entitlement store write failed", err)
	}

	s.publish(ctx, events.NewActivationChangedEvent(tenantID, moduleID, false))
	s.logger.Info("module deactivated", "tenant_id", tenantID, "module_id", moduleID)
	return FromDataModel(stored), nil
}

func (s *Service) listActivations(ctx context.Context, tenantID string) ([]*Activation, error) {
	dataActivations, err := s.repo.GetActivations(ctx, tenantID)
	if err != nil {
		s.logger.Error("failed to read activations", "error", err, "tenant_id", tenantID)
		return nil, internal.NewInternalError("entitlement store read failed", err)
	}

	activations := make([]*Activation, 0, len(dataActivations))
	for _, da := range dataActivations {
		activations = append(activations, FromDataModel(da))
	}
	return activations, nil
}

// activeModuleCodes maps the tenant's currently-active activations to module
// codes via the catalog.
func (s *Service) activeModuleCodes(ctx context.Context, tenantID string) (map[string]struct{}, error) {
	active, err := s.GetActiveActivations(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	modules, err := s.catalog.ListModules(ctx)
	if err != nil {
		return nil, err
	}
	codeByID := make(map[int64]string, len(modules))
	for _, m := range modules {
		codeByID[m.ID] = m.Code
	}

	codes := make(map[string]struct{}, len(active))
	for _, a := range active {
		if code, ok := codeByID[a.ModuleID]; ok {
			codes[code] = struct{}{}
		}
	}
	return codes, nil
}

func (s *Service) requireTenant(ctx context.Context, tenantID string) error {
	tenant, err := s.repo.GetTenantByID(ctx, tenantID)
	if err != nil {
		s.logger.Error("failed to read tenant", "error", err, "tenant_id", tenantID)
		return internal.NewInternalError("entitlement store read failed", err)
	}
	if tenant == nil {
		return internal.ErrTenantNotFound
	}
	return nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.PublishSync(ctx, event); err != nil {
		s.logger.Warn("activation event publish failed", "event_type", event.EventType(), "error", err)
	}
}
