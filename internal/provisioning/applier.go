package provisioning

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/internal/authorization"
	"github.com/frahmantamala/access-management/internal/catalog"
	authDatamodel "github.com/frahmantamala/access-management/internal/core/datamodel/authorization"
)

// CatalogAPI is what the applier reads from the catalog: parsed templates and
// the code-to-id mappings their blueprints reference.
type CatalogAPI interface {
	GetRoleTemplates(ctx context.Context, moduleID int64) ([]catalog.RoleTemplate, error)
	GetMenuIDsByCodes(ctx context.Context, codes []string) (map[string]int64, error)
	GetPermissionsByCodes(ctx context.Context, codes []string) (map[string]int64, error)
}

const (
	TemplateApplied = "applied"
	TemplateSkipped = "skipped"
)

// TemplateResult reports the outcome of one template within an activation so
// an operator can remediate a partially failed provisioning run.
type TemplateResult struct {
	TemplateID int64  `json:"template_id"`
	RoleCode   string `json:"role_code"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

// Applier materializes a module's role templates into concrete roles and
// grants for one tenant. Every write is an upsert, so applying twice yields
// the same grant set as applying once, and an existing grant is only ever
// strengthened, never weakened or deleted.
type Applier struct {
	catalog CatalogAPI
	repo    authorization.RepositoryAPI
	logger  *slog.Logger
}

func NewApplier(catalogAPI CatalogAPI, repo authorization.RepositoryAPI, logger *slog.Logger) *Applier {
	return &Applier{
		catalog: catalogAPI,
		repo:    repo,
		logger:  logger,
	}
}

// ApplyTemplates runs all active templates of a module for a tenant, in the
// templates' declared order, inside one tenant-store transaction. Callers
// serialize invocations per (tenant, module); the unique constraints behind
// the upserts turn any remaining race into a merge.
//
// A template that failed to parse, or that references unknown catalog codes,
// is reported as skipped and does not stop its siblings. A store failure
// aborts the whole apply.
func (a *Applier) ApplyTemplates(ctx context.Context, tenantID string, moduleID int64) ([]TemplateResult, error) {
	templates, err := a.catalog.GetRoleTemplates(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		a.logger.Info("module declares no role templates", "tenant_id", tenantID, "module_id", moduleID)
		return nil, nil
	}

	menuIDs, permissionIDs, err := a.resolveBlueprintCodes(ctx, templates)
	if err != nil {
		return nil, err
	}

	results := make([]TemplateResult, 0, len(templates))
	err = a.repo.Transaction(ctx, func(repo authorization.RepositoryAPI) error {
		for _, template := range templates {
			result, err := a.applyOne(ctx, repo, tenantID, template, menuIDs, permissionIDs)
			if err != nil {
				return err
			}
			results = append(results, result)
		}
		return nil
	})
	if err != nil {
		a.logger.Error("template application aborted",
			"error", err, "tenant_id", tenantID, "module_id", moduleID)
		return nil, internal.NewInternalError("template application failed", err)
	}

	applied := 0
	for _, r := range results {
		if r.Status == TemplateApplied {
			applied++
		}
	}
	a.logger.Info("templates applied",
		"tenant_id", tenantID,
		"module_id", moduleID,
		"applied", applied,
		"skipped", len(results)-applied)

	return results, nil
}

// resolveBlueprintCodes batches the catalog lookups for every code any
// parseable template references.
func (a *Applier) resolveBlueprintCodes(ctx context.Context, templates []catalog.RoleTemplate) (map[string]int64, map[string]int64, error) {
	menuCodeSet := map[string]struct{}{}
	permissionCodeSet := map[string]struct{}{}
	for _, template := range templates {
		if template.Blueprint == nil {
			continue
		}
		for _, spec := range template.Blueprint.Menus {
			menuCodeSet[spec.MenuCode] = struct{}{}
		}
		for _, code := range template.Blueprint.Permissions {
			permissionCodeSet[code] = struct{}{}
		}
	}

	menuIDs, err := a.catalog.GetMenuIDsByCodes(ctx, keys(menuCodeSet))
	if err != nil {
		return nil, nil, err
	}
	permissionIDs, err := a.catalog.GetPermissionsByCodes(ctx, keys(permissionCodeSet))
	if err != nil {
		return nil, nil, err
	}
	return menuIDs, permissionIDs, nil
}

func (a *Applier) applyOne(ctx context.Context, repo authorization.RepositoryAPI, tenantID string, template catalog.RoleTemplate, menuIDs, permissionIDs map[string]int64) (TemplateResult, error) {
	result := TemplateResult{TemplateID: template.ID, RoleCode: template.RoleCode}

	if template.ParseError != nil {
		result.Status = TemplateSkipped
		result.Error = template.ParseError.Error()
		return result, nil
	}

	// Unknown codes mean the blueprint and the catalog disagree; skip the
	// template before any write so it applies nothing at all.
	if missing := missingCodes(template, menuIDs, permissionIDs); missing != "" {
		result.Status = TemplateSkipped
		result.Error = missing
		a.logger.Warn("template references unknown catalog codes",
			"template_id", template.ID, "role_code", template.RoleCode, "detail", missing)
		return result, nil
	}

	role, err := repo.UpsertRole(ctx, &authDatamodel.Role{
		TenantID:    tenantID,
		Code:        template.RoleCode,
		Name:        template.RoleName,
		Description: template.Description,
		IsSystem:    true,
	})
	if err != nil {
		return result, fmt.Errorf("upsert role %s: %w", template.RoleCode, err)
	}

	for _, spec := range template.Blueprint.Menus {
		grant := &authDatamodel.RoleMenuGrant{
			TenantID:   tenantID,
			RoleID:     role.ID,
			MenuID:     menuIDs[spec.MenuCode],
			CanView:    spec.Flags.View,
			CanCreate:  spec.Flags.Create,
			CanEdit:    spec.Flags.Edit,
			CanDelete:  spec.Flags.Delete,
			CanExport:  spec.Flags.Export,
			CanPrint:   spec.Flags.Print,
			CanApprove: spec.Flags.Approve,
		}
		if len(spec.Extra) > 0 {
			grant.ExtraPermissions = string(spec.Extra)
		}
		if err := repo.UpsertRoleMenuGrant(ctx, grant); err != nil {
			return result, fmt.Errorf("upsert menu grant %s/%s: %w", template.RoleCode, spec.MenuCode, err)
		}
	}

	for _, code := range template.Blueprint.Permissions {
		grant := &authDatamodel.RoleBusinessPermissionGrant{
			TenantID:     tenantID,
			RoleID:       role.ID,
			PermissionID: permissionIDs[code],
		}
		if err := repo.UpsertRoleBusinessGrant(ctx, grant); err != nil {
			return result, fmt.Errorf("upsert business grant %s/%s: %w", template.RoleCode, code, err)
		}
	}

	result.Status = TemplateApplied
	return result, nil
}

func missingCodes(template catalog.RoleTemplate, menuIDs, permissionIDs map[string]int64) string {
	for _, spec := range template.Blueprint.Menus {
		if _, ok := menuIDs[spec.MenuCode]; !ok {
			return fmt.Sprintf("unknown menu code %q", spec.MenuCode)
		}
	}
	for _, code := range template.Blueprint.Permissions {
		if _, ok := permissionIDs[code]; !ok {
			return fmt.Sprintf("unknown permission code %q", code)
		}
	}
	return ""
}

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
