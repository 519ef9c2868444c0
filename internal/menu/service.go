package menu

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/internal/authorization"
	"github.com/frahmantamala/access-management/internal/catalog"
	authDatamodel "github.com/frahmantamala/access-management/internal/core/datamodel/authorization"
	"github.com/frahmantamala/access-management/internal/entitlement"
	"golang.org/x/sync/errgroup"
)

// CatalogAPI is the catalog slice resolution reads: the visible menu rows for
// a set of modules, already joined with module and section metadata.
type CatalogAPI interface {
	GetMenuForModules(ctx context.Context, tenantID string, moduleIDs []int64) ([]catalog.MenuRow, error)
}

type EntitlementAPI interface {
	TenantExists(ctx context.Context, tenantID string) (bool, error)
	GetActiveActivations(ctx context.Context, tenantID string) ([]*entitlement.Activation, error)
}

// AuthorizationAPI is the read-only slice of the authorization store the
// resolver needs.
type AuthorizationAPI interface {
	GetUserByID(ctx context.Context, tenantID string, userID int64) (*authDatamodel.TenantUser, error)
	GetActiveUserRoles(ctx context.Context, tenantID string, userID int64) ([]*authDatamodel.UserRoleAssignment, error)
	GetRoleMenuGrants(ctx context.Context, tenantID string, roleIDs, menuIDs []int64) ([]*authDatamodel.RoleMenuGrant, error)
}

type Service struct {
	catalog      CatalogAPI
	entitlements EntitlementAPI
	authz        AuthorizationAPI
	cache        *Cache
	logger       *slog.Logger
}

// NewService builds the resolver. The cache is optional; pass nil to resolve
// from the stores on every call.
func NewService(catalogAPI CatalogAPI, entitlements EntitlementAPI, authz AuthorizationAPI, cache *Cache, logger *slog.Logger) *Service {
	return &Service{
		catalog:      catalogAPI,
		entitlements: entitlements,
		authz:        authz,
		cache:        cache,
		logger:       logger,
	}
}

// ResolveMenu computes the navigation tree one user sees in one tenant:
// active modules intersected with the catalog's visible menus, annotated with
// the OR-aggregate of the user's role grants, minus everything the user may
// not view.
//
// The catalog read and the role-assignment read are independent and run
// concurrently; the grant read needs both result sets and runs after. Any
// read failing fails the whole call, there are no partial trees.
func (s *Service) ResolveMenu(ctx context.Context, tenantID string, userID int64) (*MenuTree, error) {
	exists, err := s.entitlements.TenantExists(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, internal.ErrTenantNotFound
	}

	user, err := s.authz.GetUserByID(ctx, tenantID, userID)
	if err != nil {
		s.logger.Error("failed to read user", "error", err, "tenant_id", tenantID, "user_id", userID)
		return nil, internal.NewInternalError("authorization store read failed", err)
	}
	if user == nil {
		return nil, internal.ErrUserNotFound
	}

	if s.cache != nil {
		if tree, ok := s.cache.Get(tenantID, userID); ok {
			return tree, nil
		}
	}

	tree, err := s.resolve(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Add(tenantID, userID, tree)
	}
	return tree, nil
}

func (s *Service) resolve(ctx context.Context, tenantID string, userID int64) (*MenuTree, error) {
	activations, err := s.entitlements.GetActiveActivations(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if len(activations) == 0 {
		return &MenuTree{Modules: []*ModuleNode{}}, nil
	}

	moduleIDs := make([]int64, 0, len(activations))
	for _, a := range activations {
		moduleIDs = append(moduleIDs, a.ModuleID)
	}

	var (
		rows        []catalog.MenuRow
		assignments []*authDatamodel.UserRoleAssignment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = s.catalog.GetMenuForModules(gctx, tenantID, moduleIDs)
		return err
	})
	g.Go(func() error {
		var err error
		assignments, err = s.authz.GetActiveUserRoles(gctx, tenantID, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("menu resolution read failed", "error", err, "tenant_id", tenantID, "user_id", userID)
		return nil, internal.NewInternalError("menu resolution read failed", err)
	}

	if len(rows) == 0 || len(assignments) == 0 {
		return &MenuTree{Modules: []*ModuleNode{}}, nil
	}

	roleIDs := make([]int64, 0, len(assignments))
	for _, a := range assignments {
		roleIDs = append(roleIDs, a.RoleID)
	}
	menuIDs := make([]int64, 0, len(rows))
	for _, row := range rows {
		menuIDs = append(menuIDs, row.ID)
	}

	dataGrants, err := s.authz.GetRoleMenuGrants(ctx, tenantID, roleIDs, menuIDs)
	if err != nil {
		s.logger.Error("failed to read menu grants", "error", err, "tenant_id", tenantID, "user_id", userID)
		return nil, internal.NewInternalError("authorization store read failed", err)
	}

	grants := make([]authorization.MenuGrant, 0, len(dataGrants))
	for _, dg := range dataGrants {
		grants = append(grants, authorization.MenuGrantFromDataModel(dg))
	}

	tree := BuildTree(rows, authorization.AggregateGrants(grants))
	s.logger.Debug("menu resolved",
		"tenant_id", tenantID,
		"user_id", userID,
		"modules", len(tree.Modules),
		"roles", len(roleIDs))
	return tree, nil
}
