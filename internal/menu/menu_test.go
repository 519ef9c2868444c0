package menu_test

import (
	"testing"

	"github.com/frahmantamala/access-management/internal/authorization"
	"github.com/frahmantamala/access-management/internal/catalog"
	"github.com/frahmantamala/access-management/internal/menu"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestMenu(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Menu Suite")
}

func view() authorization.AggregatedGrant {
	return authorization.AggregatedGrant{Flags: authorization.PermissionFlags{View: true}}
}

var _ = Describe("BuildTree", func() {
	sectionID := int64(20)

	rows := func() []catalog.MenuRow {
		parentStock := int64(12)
		return []catalog.MenuRow{
			{ID: 10, Code: "core.dashboard", Name: "Dashboard", Level: 1, SortOrder: 1,
				ModuleID: 1, ModuleCode: "core", ModuleName: "Core", ModuleSortOrder: 1},
			{ID: 11, Code: "inventory.items", Name: "Items", Level: 1, SortOrder: 1,
				ModuleID: 2, ModuleCode: "inventory", ModuleName: "Inventory", ModuleSortOrder: 2,
				SectionID: &sectionID, SectionName: "Warehouse", SectionSortOrder: 1},
			{ID: 12, Code: "inventory.stock", Name: "Stock", Level: 1, SortOrder: 2,
				ModuleID: 2, ModuleCode: "inventory", ModuleName: "Inventory", ModuleSortOrder: 2,
				SectionID: &sectionID, SectionName: "Warehouse", SectionSortOrder: 1},
			{ID: 13, Code: "inventory.stock.adjustments", Name: "Adjustments", Level: 2, SortOrder: 1,
				ParentID: &parentStock,
				ModuleID: 2, ModuleCode: "inventory", ModuleName: "Inventory", ModuleSortOrder: 2,
				SectionID: &sectionID, SectionName: "Warehouse", SectionSortOrder: 1},
		}
	}

	It("nests children under their parent and groups by module and section", func() {
		grants := map[int64]authorization.AggregatedGrant{
			10: view(), 11: view(), 12: view(), 13: view(),
		}

		tree := menu.BuildTree(rows(), grants)
		Expect(tree.Modules).To(HaveLen(2))
		Expect(tree.Modules[0].Code).To(Equal("core"))
		Expect(tree.Modules[1].Code).To(Equal("inventory"))

		warehouse := tree.Modules[1].Sections[0]
		Expect(warehouse.Name).To(Equal("Warehouse"))
		Expect(warehouse.Items).To(HaveLen(2))
		Expect(warehouse.Items[1].Code).To(Equal("inventory.stock"))
		Expect(warehouse.Items[1].Children).To(HaveLen(1))
		Expect(warehouse.Items[1].Children[0].Code).To(Equal("inventory.stock.adjustments"))
	})

	It("drops items the user cannot view", func() {
		grants := map[int64]authorization.AggregatedGrant{
			10: view(), 11: view(), 12: view(), 13: view(),
		}
		grants[11] = authorization.AggregatedGrant{} // view false

		tree := menu.BuildTree(rows(), grants)
		warehouse := tree.Modules[1].Sections[0]
		Expect(warehouse.Items).To(HaveLen(1))
		Expect(warehouse.Items[0].Code).To(Equal("inventory.stock"))
	})

	It("drops an entire subtree when the parent is invisible", func() {
		grants := map[int64]authorization.AggregatedGrant{
			10: view(), 11: view(), 13: view(), // 12 (stock) missing
		}

		tree := menu.BuildTree(rows(), grants)
		warehouse := tree.Modules[1].Sections[0]
		Expect(warehouse.Items).To(HaveLen(1))
		Expect(warehouse.Items[0].Code).To(Equal("inventory.items"))
	})

	It("drops a module whose every item is invisible", func() {
		grants := map[int64]authorization.AggregatedGrant{10: view()}

		tree := menu.BuildTree(rows(), grants)
		Expect(tree.Modules).To(HaveLen(1))
		Expect(tree.Modules[0].Code).To(Equal("core"))
	})

	It("returns an empty tree when nothing is visible", func() {
		tree := menu.BuildTree(rows(), map[int64]authorization.AggregatedGrant{})
		Expect(tree.IsEmpty()).To(BeTrue())
		Expect(tree.Modules).NotTo(BeNil())
	})

	It("orders modules by sort order and items by level then sort order", func() {
		grants := map[int64]authorization.AggregatedGrant{
			10: view(), 11: view(), 12: view(), 13: view(),
		}

		// Shuffle the input; output ordering must not depend on it.
		shuffled := rows()
		shuffled[0], shuffled[3] = shuffled[3], shuffled[0]
		shuffled[1], shuffled[2] = shuffled[2], shuffled[1]

		tree := menu.BuildTree(shuffled, grants)
		Expect(tree.Modules[0].Code).To(Equal("core"))
		items := tree.Modules[1].Sections[0].Items
		Expect(items[0].Code).To(Equal("inventory.items"))
		Expect(items[1].Code).To(Equal("inventory.stock"))
	})

	It("places section-less items after sectioned ones within a module", func() {
		mixed := rows()
		mixed = append(mixed, catalog.MenuRow{
			ID: 14, Code: "inventory.reports", Name: "Reports", Level: 1, SortOrder: 0,
			ModuleID: 2, ModuleCode: "inventory", ModuleName: "Inventory", ModuleSortOrder: 2,
		})
		grants := map[int64]authorization.AggregatedGrant{
			10: view(), 11: view(), 12: view(), 13: view(), 14: view(),
		}

		tree := menu.BuildTree(mixed, grants)
		inventory := tree.Modules[1]
		Expect(inventory.Sections).To(HaveLen(2))
		Expect(inventory.Sections[0].Name).To(Equal("Warehouse"))
		Expect(inventory.Sections[1].Name).To(BeEmpty())
		Expect(inventory.Sections[1].Items[0].Code).To(Equal("inventory.reports"))
	})

	It("annotates nodes with aggregated flags and extra permissions", func() {
		grants := map[int64]authorization.AggregatedGrant{
			10: {Flags: authorization.PermissionFlags{View: true, Edit: true},
				ExtraPermissions: `{"cap":5}`},
		}

		tree := menu.BuildTree(rows()[:1], grants)
		node := tree.Modules[0].Sections[0].Items[0]
		Expect(node.Flags.Edit).To(BeTrue())
		Expect(node.ExtraPermissions).To(HaveKeyWithValue("cap", float64(5)))
	})
})
