package catalog

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/access-management/internal"
	catalogDatamodel "github.com/frahmantamala/access-management/internal/core/datamodel/catalog"
)

// RepositoryAPI is the read-only surface this service needs from the catalog
// store. The catalog is owned by platform administration; nothing here writes.
type RepositoryAPI interface {
	GetModuleByID(ctx context.Context, id int64) (*catalogDatamodel.Module, error)
	GetAllModules(ctx context.Context) ([]*catalogDatamodel.Module, error)
	GetModuleDependencies(ctx context.Context, moduleID int64) ([]string, error)
	GetMenuRowsForModules(ctx context.Context, tenantID string, moduleIDs []int64) ([]MenuRow, error)
	GetRoleTemplates(ctx context.Context, moduleID int64) ([]*catalogDatamodel.RoleTemplate, error)
	GetPermissionsByCodes(ctx context.Context, codes []string) ([]*catalogDatamodel.Permission, error)
	GetMenuItemsByCodes(ctx context.Context, codes []string) ([]*catalogDatamodel.MenuItem, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// GetModule returns the module or NotFound.
func (s *Service) GetModule(ctx context.Context, moduleID int64) (*Module, error) {
	dataModule, err := s.repo.GetModuleByID(ctx, moduleID)
	if err != nil {
		s.logger.Error("failed to read module from catalog", "error", err, "module_id", moduleID)
		return nil, internal.NewInternalError("catalog read failed", err)
	}
	if dataModule == nil {
		return nil, internal.ErrModuleNotFound
	}

	module := ModuleFromDataModel(dataModule)
	requires, err := s.repo.GetModuleDependencies(ctx, moduleID)
	if err != nil {
		s.logger.Error("failed to read module dependencies", "error", err, "module_id", moduleID)
		return nil, internal.NewInternalError("catalog read failed", err)
	}
	module.Requires = requires
	return module, nil
}

func (s *Service) ListModules(ctx context.Context) ([]*Module, error) {
	dataModules, err := s.repo.GetAllModules(ctx)
	if err != nil {
		s.logger.Error("failed to list modules from catalog", "error", err)
		return nil, internal.NewInternalError("catalog read failed", err)
	}

	modules := make([]*Module, 0, len(dataModules))
	for _, dm := range dataModules {
		modules = append(modules, ModuleFromDataModel(dm))
	}
	return modules, nil
}

// GetMenuForModules returns the flattened, pre-filtered menu rows for a set of
// modules: active, visible, and either tenant-global or scoped to tenantID.
func (s *Service) GetMenuForModules(ctx context.Context, tenantID string, moduleIDs []int64) ([]MenuRow, error) {
	if len(moduleIDs) == 0 {
		return nil, nil
	}
	rows, err := s.repo.GetMenuRowsForModules(ctx, tenantID, moduleIDs)
	if err != nil {
		s.logger.Error("failed to read menu rows from catalog", "error", err, "tenant_id", tenantID)
		return nil, internal.NewInternalError("catalog read failed", err)
	}
	return rows, nil
}

// GetRoleTemplates loads and parses the active templates of a module in
// declared order. Parse failures are carried on the template, not returned:
// the applier reports them per template.
func (s *Service) GetRoleTemplates(ctx context.Context, moduleID int64) ([]RoleTemplate, error) {
	dataTemplates, err := s.repo.GetRoleTemplates(ctx, moduleID)
	if err != nil {
		s.logger.Error("failed to read role templates", "error", err, "module_id", moduleID)
		return nil, internal.NewInternalError("catalog read failed", err)
	}

	templates := make([]RoleTemplate, 0, len(dataTemplates))
	for _, dt := range dataTemplates {
		template := TemplateFromDataModel(dt)
		if template.ParseError != nil {
			s.logger.Warn("role template blueprint failed to parse",
				"template_id", dt.ID,
				"module_id", moduleID,
				"role_code", dt.RoleCode,
				"error", template.ParseError)
		}
		templates = append(templates, template)
	}
	return templates, nil
}

// GetPermissionsByCodes maps permission codes to their catalog IDs. Codes
// with no catalog entry are simply absent from the result.
func (s *Service) GetPermissionsByCodes(ctx context.Context, codes []string) (map[string]int64, error) {
	if len(codes) == 0 {
		return map[string]int64{}, nil
	}
	dataPermissions, err := s.repo.GetPermissionsByCodes(ctx, codes)
	if err != nil {
		s.logger.Error("failed to read permissions from catalog", "error", err)
		return nil, internal.NewInternalError("catalog read failed", err)
	}

	byCode := make(map[string]int64, len(dataPermissions))
	for _, p := range dataPermissions {
		byCode[p.Code] = p.ID
	}
	return byCode, nil
}

// GetMenuIDsByCodes maps menu codes to their catalog IDs, for resolving the
// menu references inside template blueprints.
func (s *Service) GetMenuIDsByCodes(ctx context.Context, codes []string) (map[string]int64, error) {
	if len(codes) == 0 {
		return map[string]int64{}, nil
	}
	items, err := s.repo.GetMenuItemsByCodes(ctx, codes)
	if err != nil {
		s.logger.Error("failed to read menu items from catalog", "error", err)
		return nil, internal.NewInternalError("catalog read failed", err)
	}

	byCode := make(map[string]int64, len(items))
	for _, item := range items {
		byCode[item.Code] = item.ID
	}
	return byCode, nil
}
