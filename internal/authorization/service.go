package authorization

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/internal/core/events"
	authDatamodel "github.com/frahmantamala/access-management/internal/core/datamodel/authorization"
)

// RepositoryAPI is the tenant authorization store. Every method is tenant
// scoped; the upsert methods are backed by unique constraints so concurrent
// writers collapse into merges instead of duplicate rows.
type RepositoryAPI interface {
	GetUserByID(ctx context.Context, tenantID string, userID int64) (*authDatamodel.TenantUser, error)
	GetActiveUserRoles(ctx context.Context, tenantID string, userID int64) ([]*authDatamodel.UserRoleAssignment, error)
	GetRoleByID(ctx context.Context, tenantID string, roleID int64) (*authDatamodel.Role, error)
	GetRolesByTenant(ctx context.Context, tenantID string) ([]*authDatamodel.Role, error)
	GetRoleMenuGrants(ctx context.Context, tenantID string, roleIDs, menuIDs []int64) ([]*authDatamodel.RoleMenuGrant, error)
	GetRoleBusinessGrants(ctx context.Context, tenantID string, roleID int64) ([]*authDatamodel.RoleBusinessPermissionGrant, error)

	// UpsertRole creates the role if absent and returns the stored row; an
	// existing role's name and description are left untouched.
	UpsertRole(ctx context.Context, role *authDatamodel.Role) (*authDatamodel.Role, error)
	// UpsertRoleMenuGrant OR-merges flags into an existing grant or creates
	// one; it never weakens a flag.
	UpsertRoleMenuGrant(ctx context.Context, grant *authDatamodel.RoleMenuGrant) error
	// ReplaceRoleMenuGrant is the authoritative admin write: stored flags are
	// set to exactly the given values.
	ReplaceRoleMenuGrant(ctx context.Context, grant *authDatamodel.RoleMenuGrant) error
	UpsertRoleBusinessGrant(ctx context.Context, grant *authDatamodel.RoleBusinessPermissionGrant) error
	// ReplaceRoleBusinessGrants deletes the role's business grants and inserts
	// exactly the given permission set as one atomic unit.
	ReplaceRoleBusinessGrants(ctx context.Context, tenantID string, roleID int64, permissionIDs []int64) error

	UpsertUserRoleAssignment(ctx context.Context, assignment *authDatamodel.UserRoleAssignment) error
	DeactivateUserRoleAssignment(ctx context.Context, tenantID string, userID, roleID int64) error

	// Transaction runs fn against a repository bound to one transaction.
	Transaction(ctx context.Context, fn func(repo RepositoryAPI) error) error
}

type Service struct {
	repo   RepositoryAPI
	bus    *events.EventBus
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		bus:    bus,
		logger: logger,
	}
}

func (s *Service) ListRoles(ctx context.Context, tenantID string) ([]*Role, error) {
	dataRoles, err := s.repo.GetRolesByTenant(ctx, tenantID)
	if err != nil {
		s.logger.Error("failed to list roles", "error", err, "tenant_id", tenantID)
		return nil, internal.NewInternalError("authorization store read failed", err)
	}

	roles := make([]*Role, 0, len(dataRoles))
	for _, dr := range dataRoles {
		roles = append(roles, RoleFromDataModel(dr))
	}
	return roles, nil
}

// SetRoleBusinessPermissions is a full replace: the role ends up with exactly
// the given permission set, and an empty set clears everything. This is the
// tenant-admin edit path; provisioning never calls it.
func (s *Service) SetRoleBusinessPermissions(ctx context.Context, tenantID string, roleID int64, permissionIDs []int64) error {
	role, err := s.repo.GetRoleByID(ctx, tenantID, roleID)
	if err != nil {
		s.logger.Error("failed to read role", "error", err, "tenant_id", tenantID, "role_id", roleID)
		return internal.NewInternalError("authorization store read failed", err)
	}
	if role == nil {
		return internal.ErrRoleNotFound
	}

	if err := s.repo.ReplaceRoleBusinessGrants(ctx, tenantID, roleID, permissionIDs); err != nil {
		s.logger.Error("failed to replace business permission grants",
			"error", err, "tenant_id", tenantID, "role_id", roleID)
		return internal.NewInternalError("authorization store write failed", err)
	}

	s.logger.Info("business permissions replaced",
		"tenant_id", tenantID,
		"role_id", roleID,
		"permission_count", len(permissionIDs))

	s.invalidate(ctx, events.NewGrantsChangedEvent(tenantID, roleID))
	return nil
}

// SetRoleMenuGrant is the direct admin edit of one role's flags on one menu.
// Unlike template application it is authoritative: the stored flags become
// exactly the given set after invariant validation.
func (s *Service) SetRoleMenuGrant(ctx context.Context, tenantID string, roleID, menuID int64, flags PermissionFlags, extraPermissions string) error {
	if err := flags.Validate(); err != nil {
		return err
	}

	role, err := s.repo.GetRoleByID(ctx, tenantID, roleID)
	if err != nil {
		s.logger.Error("failed to read role", "error", err, "tenant_id", tenantID, "role_id", roleID)
		return internal.NewInternalError("authorization store read failed", err)
	}
	if role == nil {
		return internal.ErrRoleNotFound
	}

	grant := &authDatamodel.RoleMenuGrant{
		TenantID:         tenantID,
		RoleID:           roleID,
		MenuID:           menuID,
		CanView:          flags.View,
		CanCreate:        flags.Create,
		CanEdit:          flags.Edit,
		CanDelete:        flags.Delete,
		CanExport:        flags.Export,
		CanPrint:         flags.Print,
		CanApprove:       flags.Approve,
		ExtraPermissions: extraPermissions,
	}
	if err := s.repo.ReplaceRoleMenuGrant(ctx, grant); err != nil {
		s.logger.Error("failed to write menu grant",
			"error", err, "tenant_id", tenantID, "role_id", roleID, "menu_id", menuID)
		return internal.NewInternalError("authorization store write failed", err)
	}

	s.logger.Info("menu grant set", "tenant_id", tenantID, "role_id", roleID, "menu_id", menuID)
	s.invalidate(ctx, events.NewGrantsChangedEvent(tenantID, roleID))
	return nil
}

// AssignRole activates (or re-activates) a user-role assignment.
func (s *Service) AssignRole(ctx context.Context, tenantID string, userID, roleID int64) error {
	role, err := s.repo.GetRoleByID(ctx, tenantID, roleID)
	if err != nil {
		s.logger.Error("failed to read role", "error", err, "tenant_id", tenantID, "role_id", roleID)
		return internal.NewInternalError("authorization store read failed", err)
	}
	if role == nil {
		return internal.ErrRoleNotFound
	}

	user, err := s.repo.GetUserByID(ctx, tenantID, userID)
	if err != nil {
		s.logger.Error("failed to read user", "error", err, "tenant_id", tenantID, "user_id", userID)
		return internal.NewInternalError("authorization store read failed", err)
	}
	if user == nil {
		return internal.ErrUserNotFound
	}

	assignment := &authDatamodel.UserRoleAssignment{
		TenantID: tenantID,
		UserID:   userID,
		RoleID:   roleID,
		IsActive: true,
	}
	if err := s.repo.UpsertUserRoleAssignment(ctx, assignment); err != nil {
		s.logger.Error("failed to assign role",
			"error", err, "tenant_id", tenantID, "user_id", userID, "role_id", roleID)
		return internal.NewInternalError("authorization store write failed", err)
	}

	s.logger.Info("role assigned", "tenant_id", tenantID, "user_id", userID, "role_id", roleID)
	s.invalidate(ctx, events.NewAssignmentsChangedEvent(tenantID, userID))
	return nil
}

// RevokeRole deactivates an assignment; the row is kept for audit.
func (s *Service) RevokeRole(ctx context.Context, tenantID string, userID, roleID int64) error {
	if err := s.repo.DeactivateUserRoleAssignment(ctx, tenantID, userID, roleID); err != nil {
		s.logger.Error("failed to revoke role",
			"error", err, "tenant_id", tenantID, "user_id", userID, "role_id", roleID)
		return internal.NewInternalError("authorization store write failed", err)
	}

	s.logger.Info("role revoked", "tenant_id", tenantID, "user_id", userID, "role_id", roleID)
	s.invalidate(ctx, events.NewAssignmentsChangedEvent(tenantID, userID))
	return nil
}

func (s *Service) invalidate(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.PublishSync(ctx, event); err != nil {
		s.logger.Warn("cache invalidation publish failed", "event_type", event.EventType(), "error", err)
	}
}
