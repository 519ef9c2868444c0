package menu_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/internal/catalog"
	authDatamodel "github.com/frahmantamala/access-management/internal/core/datamodel/authorization"
	"github.com/frahmantamala/access-management/internal/core/events"
	"github.com/frahmantamala/access-management/internal/entitlement"
	"github.com/frahmantamala/access-management/internal/menu"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// MockCatalog serves menu rows for module sets and counts reads so cache
// behavior is observable.
type MockCatalog struct {
	rows      []catalog.MenuRow
	err       error
	readCount int
}

func (m *MockCatalog) GetMenuForModules(_ context.Context, _ string, moduleIDs []int64) ([]catalog.MenuRow, error) {
	m.readCount++
	if m.err != nil {
		return nil, m.err
	}
	wanted := map[int64]bool{}
	for _, id := range moduleIDs {
		wanted[id] = true
	}
	var out []catalog.MenuRow
	for _, row := range m.rows {
		if wanted[row.ModuleID] {
			out = append(out, row)
		}
	}
	return out, nil
}

// MockEntitlements serves tenants and active activations.
type MockEntitlements struct {
	tenants     map[string]bool
	activations map[string][]*entitlement.Activation
}

func (m *MockEntitlements) TenantExists(_ context.Context, tenantID string) (bool, error) {
	return m.tenants[tenantID], nil
}

func (m *MockEntitlements) GetActiveActivations(_ context.Context, tenantID string) ([]*entitlement.Activation, error) {
	return m.activations[tenantID], nil
}

// MockAuthorization serves users, assignments and grants.
type MockAuthorization struct {
	users       map[int64]*authDatamodel.TenantUser
	assignments []*authDatamodel.UserRoleAssignment
	grants      []*authDatamodel.RoleMenuGrant
	grantsErr   error
	rolesErr    error
}

func (m *MockAuthorization) GetUserByID(_ context.Context, tenantID string, userID int64) (*authDatamodel.TenantUser, error) {
	user, ok := m.users[userID]
	if !ok || user.TenantID != tenantID {
		return nil, nil
	}
	return user, nil
}

func (m *MockAuthorization) GetActiveUserRoles(_ context.Context, tenantID string, userID int64) ([]*authDatamodel.UserRoleAssignment, error) {
	if m.rolesErr != nil {
		return nil, m.rolesErr
	}
	var out []*authDatamodel.UserRoleAssignment
	for _, a := range m.assignments {
		if a.TenantID == tenantID && a.UserID == userID && a.IsActive {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *MockAuthorization) GetRoleMenuGrants(_ context.Context, tenantID string, roleIDs, menuIDs []int64) ([]*authDatamodel.RoleMenuGrant, error) {
	if m.grantsErr != nil {
		return nil, m.grantsErr
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
	for _, g := range m.grants {
		if g.TenantID == tenantID && roleSet[g.RoleID] && menuSet[g.MenuID] {
			out = append(out, g)
		}
	}
	return out, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

var _ = Describe("Menu Resolver", func() {
	var (
		catalogM     *MockCatalog
		entitlements *MockEntitlements
		authz        *MockAuthorization
		service      *menu.Service
		ctx          context.Context
	)

	BeforeEach(func() {
		catalogM = &MockCatalog{rows: []catalog.MenuRow{
			{ID: 10, Code: "core.dashboard", Name: "Dashboard", Level: 1, SortOrder: 1,
				ModuleID: 1, ModuleCode: "core", ModuleName: "Core", ModuleSortOrder: 1},
			{ID: 11, Code: "core.settings", Name: "Settings", Level: 1, SortOrder: 2,
				ModuleID: 1, ModuleCode: "core", ModuleName: "Core", ModuleSortOrder: 1},
			{ID: 20, Code: "inventory.items", Name: "Items", Level: 1, SortOrder: 1,
				ModuleID: 2, ModuleCode: "inventory", ModuleName: "Inventory", ModuleSortOrder: 2},
		}}
		entitlements = &MockEntitlements{
			tenants: map[string]bool{"acme": true},
			activations: map[string][]*entitlement.Activation{
				"acme": {{TenantID: "acme", ModuleID: 1, IsActive: true}},
			},
		}
		authz = &MockAuthorization{
			users: map[int64]*authDatamodel.TenantUser{
				7: {ID: 7, TenantID: "acme", Email: "u@acme.test", IsActive: true},
			},
			assignments: []*authDatamodel.UserRoleAssignment{
				{TenantID: "acme", UserID: 7, RoleID: 1, IsActive: true},
			},
			grants: []*authDatamodel.RoleMenuGrant{
				{TenantID: "acme", RoleID: 1, MenuID: 10, CanView: true, CanEdit: true},
			},
		}
		service = menu.NewService(catalogM, entitlements, authz, nil, testLogger())
		ctx = context.Background()
	})

	It("resolves only the menus the user may view within active modules", func() {
		tree, err := service.ResolveMenu(ctx, "acme", 7)
		Expect(err).NotTo(HaveOccurred())
		Expect(tree.Modules).To(HaveLen(1))

		items := tree.Modules[0].Sections[0].Items
		Expect(items).To(HaveLen(1))
		Expect(items[0].Code).To(Equal("core.dashboard"))
		Expect(items[0].Flags.Edit).To(BeTrue())
	})

	It("unions flags across the user's roles", func() {
		authz.assignments = append(authz.assignments, &authDatamodel.UserRoleAssignment{
			TenantID: "acme", UserID: 7, RoleID: 2, IsActive: true,
		})
		authz.grants = []*authDatamodel.RoleMenuGrant{
			{TenantID: "acme", RoleID: 1, MenuID: 10, CanView: true},
			{TenantID: "acme", RoleID: 2, MenuID: 10, CanView: true, CanEdit: true},
		}

		tree, err := service.ResolveMenu(ctx, "acme", 7)
		Expect(err).NotTo(HaveOccurred())

		item := tree.Modules[0].Sections[0].Items[0]
		Expect(item.Flags.View).To(BeTrue())
		Expect(item.Flags.Edit).To(BeTrue())
	})

	It("excludes menus of modules that are not active", func() {
		// A grant on an inactive module's menu changes nothing.
		authz.grants = append(authz.grants, &authDatamodel.RoleMenuGrant{
			TenantID: "acme", RoleID: 1, MenuID: 20, CanView: true,
		})

		tree, err := service.ResolveMenu(ctx, "acme", 7)
		Expect(err).NotTo(HaveOccurred())
		Expect(tree.Modules).To(HaveLen(1))
		Expect(tree.Modules[0].Code).To(Equal("core"))
	})

	It("returns an empty tree for a tenant with no active modules", func() {
		entitlements.activations["acme"] = nil

		tree, err := service.ResolveMenu(ctx, "acme", 7)
		Expect(err).NotTo(HaveOccurred())
		Expect(tree.IsEmpty()).To(BeTrue())
		Expect(catalogM.readCount).To(BeZero())
	})

	It("returns an empty tree for a user with no active roles", func() {
		authz.assignments = nil

		tree, err := service.ResolveMenu(ctx, "acme", 7)
		Expect(err).NotTo(HaveOccurred())
		Expect(tree.IsEmpty()).To(BeTrue())
	})

	It("returns not found for an unknown tenant", func() {
		_, err := service.ResolveMenu(ctx, "ghost", 7)
		Expect(errors.Is(err, internal.ErrTenantNotFound)).To(BeTrue())
	})

	It("returns not found for an unknown user", func() {
		_, err := service.ResolveMenu(ctx, "acme", 99)
		Expect(errors.Is(err, internal.ErrUserNotFound)).To(BeTrue())
	})

	It("fails the whole call when the catalog read fails", func() {
		catalogM.err = errors.New("catalog store down")
		_, err := service.ResolveMenu(ctx, "acme", 7)
		Expect(err).To(HaveOccurred())
	})

	It("fails the whole call when the assignment read fails", func() {
		authz.rolesErr = errors.New("tenant store down")
		_, err := service.ResolveMenu(ctx, "acme", 7)
		Expect(err).To(HaveOccurred())
	})

	It("fails the whole call when the grant read fails", func() {
		authz.grantsErr = errors.New("tenant store down")
		_, err := service.ResolveMenu(ctx, "acme", 7)
		Expect(err).To(HaveOccurred())
	})

	Describe("with a cache", func() {
		var (
			cache *menu.Cache
			bus   *events.EventBus
		)

		BeforeEach(func() {
			cache = menu.NewCache(128, time.Minute)
			bus = events.NewEventBus(testLogger())
			cache.Subscribe(bus)
			service = menu.NewService(catalogM, entitlements, authz, cache, testLogger())
		})

		It("serves repeated calls from the cache", func() {
			_, err := service.ResolveMenu(ctx, "acme", 7)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.ResolveMenu(ctx, "acme", 7)
			Expect(err).NotTo(HaveOccurred())
			Expect(catalogM.readCount).To(Equal(1))
		})

		It("re-resolves after a grants change for the tenant", func() {
			_, err := service.ResolveMenu(ctx, "acme", 7)
			Expect(err).NotTo(HaveOccurred())

			Expect(bus.PublishSync(ctx, events.NewGrantsChangedEvent("acme", 1))).To(Succeed())

			_, err = service.ResolveMenu(ctx, "acme", 7)
			Expect(err).NotTo(HaveOccurred())
			Expect(catalogM.readCount).To(Equal(2))
		})

		It("re-resolves after an activation change", func() {
			_, err := service.ResolveMenu(ctx, "acme", 7)
			Expect(err).NotTo(HaveOccurred())

			Expect(bus.PublishSync(ctx, events.NewActivationChangedEvent("acme", 2, true))).To(Succeed())

			_, err = service.ResolveMenu(ctx, "acme", 7)
			Expect(err).NotTo(HaveOccurred())
			Expect(catalogM.readCount).To(Equal(2))
		})

		It("leaves other tenants' entries alone", func() {
			entitlements.tenants["globex"] = true
			entitlements.activations["globex"] = []*entitlement.Activation{
				{TenantID: "globex", ModuleID: 1, IsActive: true},
			}
			authz.users[8] = &authDatamodel.TenantUser{ID: 8, TenantID: "globex", IsActive: true}

			_, err := service.ResolveMenu(ctx, "acme", 7)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.ResolveMenu(ctx, "globex", 8)
			Expect(err).NotTo(HaveOccurred())
			reads := catalogM.readCount

			Expect(bus.PublishSync(ctx, events.NewGrantsChangedEvent("globex", 1))).To(Succeed())

			_, err = service.ResolveMenu(ctx, "acme", 7)
			Expect(err).NotTo(HaveOccurred())
			Expect(catalogM.readCount).To(Equal(reads))
		})
	})
})
