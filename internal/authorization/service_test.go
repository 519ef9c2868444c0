package authorization_test

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/internal/authorization"
	authDatamodel "github.com/frahmantamala/access-management/internal/core/datamodel/authorization"
	"github.com/frahmantamala/access-management/internal/core/events"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// MockRepository implements authorization.RepositoryAPI in memory.
type MockRepository struct {
	users          map[int64]*authDatamodel.TenantUser
	roles          map[int64]*authDatamodel.Role
	assignments    map[[2]int64]*authDatamodel.UserRoleAssignment
	menuGrants     map[[2]int64]*authDatamodel.RoleMenuGrant
	businessGrants map[int64][]int64
	shouldFail     bool
	failError      error
	nextID         int64
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		users:          make(map[int64]*authDatamodel.TenantUser),
		roles:          make(map[int64]*authDatamodel.Role),
		assignments:    make(map[[2]int64]*authDatamodel.UserRoleAssignment),
		menuGrants:     make(map[[2]int64]*authDatamodel.RoleMenuGrant),
		businessGrants: make(map[int64][]int64),
		nextID:         1,
	}
}

func (m *MockRepository) GetUserByID(_ context.Context, tenantID string, userID int64) (*authDatamodel.TenantUser, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	user, ok := m.users[userID]
	if !ok || user.TenantID != tenantID {
		return nil, nil
	}
	return user, nil
}

func (m *MockRepository) GetActiveUserRoles(_ context.Context, tenantID string, userID int64) ([]*authDatamodel.UserRoleAssignment, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	var out []*authDatamodel.UserRoleAssignment
	for _, a := range m.assignments {
		if a.TenantID == tenantID && a.UserID == userID && a.IsActive {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *MockRepository) GetRoleByID(_ context.Context, tenantID string, roleID int64) (*authDatamodel.Role, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	role, ok := m.roles[roleID]
	if !ok || role.TenantID != tenantID {
		return nil, nil
	}
	return role, nil
}

func (m *MockRepository) GetRolesByTenant(_ context.Context, tenantID string) ([]*authDatamodel.Role, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	var out []*authDatamodel.Role
	for _, r := range m.roles {
		if r.TenantID == tenantID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockRepository) GetRoleMenuGrants(_ context.Context, tenantID string, roleIDs, menuIDs []int64) ([]*authDatamodel.RoleMenuGrant, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	roleSet := map[int64]bool{}
	for _, id := range roleIDs {
		roleSet[id] = true
	}
	menuSet := map[int64]bool{}
	for _, id := range menuIDs {
		menuSet[id] = true
	}
	var out []*authDatamodel.RoleMenuGrant
	for _, g := range m.menuGrants {
		if g.TenantID == tenantID && roleSet[g.RoleID] && menuSet[g.MenuID] {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *MockRepository) GetRoleBusinessGrants(_ context.Context, tenantID string, roleID int64) ([]*authDatamodel.RoleBusinessPermissionGrant, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	var out []*authDatamodel.RoleBusinessPermissionGrant
	for _, pid := range m.businessGrants[roleID] {
		out = append(out, &authDatamodel.RoleBusinessPermissionGrant{
			TenantID: tenantID, RoleID: roleID, PermissionID: pid,
		})
	}
	return out, nil
}

func (m *MockRepository) UpsertRole(_ context.Context, role *authDatamodel.Role) (*authDatamodel.Role, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	for _, existing := range m.roles {
		if existing.TenantID == role.TenantID && existing.Code == role.Code {
			return existing, nil
		}
	}
	stored := *role
	stored.ID = m.nextID
	m.nextID++
	m.roles[stored.ID] = &stored
	return &stored, nil
}

// UpsertRoleMenuGrant mirrors the store's OR-merge semantics.
func (m *MockRepository) UpsertRoleMenuGrant(_ context.Context, grant *authDatamodel.RoleMenuGrant) error {
	if m.shouldFail {
		return m.failError
	}
	key := [2]int64{grant.RoleID, grant.MenuID}
	existing, ok := m.menuGrants[key]
	if !ok {
		stored := *grant
		m.menuGrants[key] = &stored
		return nil
	}
	existing.CanView = existing.CanView || grant.CanView
	existing.CanCreate = existing.CanCreate || grant.CanCreate
	existing.CanEdit = existing.CanEdit || grant.CanEdit
	existing.CanDelete = existing.CanDelete || grant.CanDelete
	existing.CanExport = existing.CanExport || grant.CanExport
	existing.CanPrint = existing.CanPrint || grant.CanPrint
	existing.CanApprove = existing.CanApprove || grant.CanApprove
	if existing.ExtraPermissions == "" {
		existing.ExtraPermissions = grant.ExtraPermissions
	}
	return nil
}

func (m *MockRepository) ReplaceRoleMenuGrant(_ context.Context, grant *authDatamodel.RoleMenuGrant) error {
	if m.shouldFail {
		return m.failError
	}
	stored := *grant
	m.menuGrants[[2]int64{grant.RoleID, grant.MenuID}] = &stored
	return nil
}

func (m *MockRepository) UpsertRoleBusinessGrant(_ context.Context, grant *authDatamodel.RoleBusinessPermissionGrant) error {
	if m.shouldFail {
		return m.failError
	}
	for _, pid := range m.businessGrants[grant.RoleID] {
		if pid == grant.PermissionID {
			return nil
		}
	}
	m.businessGrants[grant.RoleID] = append(m.businessGrants[grant.RoleID], grant.PermissionID)
	return nil
}

func (m *MockRepository) ReplaceRoleBusinessGrants(_ context.Context, tenantID string, roleID int64, permissionIDs []int64) error {
	if m.shouldFail {
		return m.failError
	}
	m.businessGrants[roleID] = append([]int64{}, permissionIDs...)
	return nil
}

func (m *MockRepository) UpsertUserRoleAssignment(_ context.Context, assignment *authDatamodel.UserRoleAssignment) error {
	if m.shouldFail {
		return m.failError
	}
	key := [2]int64{assignment.UserID, assignment.RoleID}
	if existing, ok := m.assignments[key]; ok {
		existing.IsActive = true
		return nil
	}
	stored := *assignment
	m.assignments[key] = &stored
	return nil
}

func (m *MockRepository) DeactivateUserRoleAssignment(_ context.Context, tenantID string, userID, roleID int64) error {
	if m.shouldFail {
		return m.failError
	}
	if existing, ok := m.assignments[[2]int64{userID, roleID}]; ok {
		existing.IsActive = false
	}
	return nil
}

func (m *MockRepository) Transaction(ctx context.Context, fn func(repo authorization.RepositoryAPI) error) error {
	if m.shouldFail {
		return m.failError
	}
	return fn(m)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

var _ = Describe("Authorization Service", func() {
	var (
		repo    *MockRepository
		bus     *events.EventBus
		service *authorization.Service
		ctx     context.Context

		grantsEvents      int
		assignmentsEvents int
	)

	BeforeEach(func() {
		repo = NewMockRepository()
		bus = events.NewEventBus(testLogger())
		service = authorization.NewService(repo, bus, testLogger())
		ctx = context.Background()

		grantsEvents = 0
		assignmentsEvents = 0
		bus.Subscribe(events.EventTypeGrantsChanged, func(context.Context, events.Event) error {
			grantsEvents++
			return nil
		})
		bus.Subscribe(events.EventTypeAssignmentsChanged, func(context.Context, events.Event) error {
			assignmentsEvents++
			return nil
		})

		repo.roles[1] = &authDatamodel.Role{ID: 1, TenantID: "acme", Code: "manager", Name: "Manager"}
		repo.users[7] = &authDatamodel.TenantUser{ID: 7, TenantID: "acme", Email: "u@acme.test", IsActive: true}
	})

	Describe("SetRoleMenuGrant", func() {
		It("rejects flag sets violating the view invariant before any write", func() {
			err := service.SetRoleMenuGrant(ctx, "acme", 1, 10,
				authorization.PermissionFlags{Create: true}, "")
			Expect(err).To(HaveOccurred())
			Expect(repo.menuGrants).To(BeEmpty())
		})

		It("rejects delete without edit", func() {
			err := service.SetRoleMenuGrant(ctx, "acme", 1, 10,
				authorization.PermissionFlags{View: true, Delete: true}, "")
			Expect(err).To(HaveOccurred())
		})

		It("writes the exact flag set and publishes a grants change", func() {
			flags := authorization.PermissionFlags{View: true, Edit: true}
			Expect(service.SetRoleMenuGrant(ctx, "acme", 1, 10, flags, `{"cap":5}`)).To(Succeed())

			grant := repo.menuGrants[[2]int64{1, 10}]
			Expect(grant).NotTo(BeNil())
			Expect(grant.CanEdit).To(BeTrue())
			Expect(grant.CanCreate).To(BeFalse())
			Expect(grant.ExtraPermissions).To(Equal(`{"cap":5}`))
			Expect(grantsEvents).To(Equal(1))
		})

		It("returns not found for an unknown role", func() {
			err := service.SetRoleMenuGrant(ctx, "acme", 99, 10,
				authorization.PermissionFlags{View: true}, "")
			Expect(errors.Is(err, internal.ErrRoleNotFound)).To(BeTrue())
		})
	})

	Describe("SetRoleBusinessPermissions", func() {
		It("replaces the set in full", func() {
			Expect(service.SetRoleBusinessPermissions(ctx, "acme", 1, []int64{3, 4})).To(Succeed())
			Expect(repo.businessGrants[1]).To(ConsistOf(int64(3), int64(4)))

			Expect(service.SetRoleBusinessPermissions(ctx, "acme", 1, []int64{4, 5})).To(Succeed())
			Expect(repo.businessGrants[1]).To(ConsistOf(int64(4), int64(5)))
		})

		It("clears everything on an empty set", func() {
			Expect(service.SetRoleBusinessPermissions(ctx, "acme", 1, []int64{3})).To(Succeed())
			Expect(service.SetRoleBusinessPermissions(ctx, "acme", 1, []int64{})).To(Succeed())
			Expect(repo.businessGrants[1]).To(BeEmpty())
		})
	})

	Describe("AssignRole and RevokeRole", func() {
		It("activates an assignment and publishes an assignments change", func() {
			Expect(service.AssignRole(ctx, "acme", 7, 1)).To(Succeed())
			Expect(repo.assignments[[2]int64{7, 1}].IsActive).To(BeTrue())
			Expect(assignmentsEvents).To(Equal(1))
		})

		It("reactivates a revoked assignment instead of duplicating it", func() {
			Expect(service.AssignRole(ctx, "acme", 7, 1)).To(Succeed())
			Expect(service.RevokeRole(ctx, "acme", 7, 1)).To(Succeed())
			Expect(repo.assignments[[2]int64{7, 1}].IsActive).To(BeFalse())

			Expect(service.AssignRole(ctx, "acme", 7, 1)).To(Succeed())
			Expect(repo.assignments).To(HaveLen(1))
			Expect(repo.assignments[[2]int64{7, 1}].IsActive).To(BeTrue())
		})

		It("returns not found for an unknown user", func() {
			err := service.AssignRole(ctx, "acme", 99, 1)
			Expect(errors.Is(err, internal.ErrUserNotFound)).To(BeTrue())
		})
	})
})
