package menu

import (
	"sort"

	"github.com/frahmantamala/access-management/internal/authorization"
	"github.com/frahmantamala/access-management/internal/catalog"
)

// MenuTree is the fully resolved navigation for one user in one tenant:
// modules, their sections, and the nested menu items the user may see, each
// annotated with the user's aggregated action flags.
type MenuTree struct {
	Modules []*ModuleNode `json:"modules"`
}

func (t *MenuTree) IsEmpty() bool {
	return len(t.Modules) == 0
}

type ModuleNode struct {
	ID       int64          `json:"id"`
	Code     string         `json:"code"`
	Name     string         `json:"name"`
	Sections []*SectionNode `json:"sections"`
}

// SectionNode groups items within a module. Items that belong to no section
// are collected under a trailing unnamed section.
type SectionNode struct {
	ID    *int64      `json:"id,omitempty"`
	Name  string      `json:"name,omitempty"`
	Items []*MenuNode `json:"items"`
}

type MenuNode struct {
	ID               int64                         `json:"id"`
	Code             string                        `json:"code"`
	Name             string                        `json:"name"`
	Route            string                        `json:"route,omitempty"`
	Icon             string                        `json:"icon,omitempty"`
	Level            int                           `json:"level"`
	Flags            authorization.PermissionFlags `json:"flags"`
	ExtraPermissions map[string]any                `json:"extra_permissions,omitempty"`
	Children         []*MenuNode                   `json:"children,omitempty"`
}

// BuildTree reconstructs the hierarchy from flat joined rows and the user's
// aggregated grants. Rows whose aggregated view flag is false are dropped
// outright, and so is the subtree beneath them: invisibility is absolute.
//
// Ordering is deterministic: modules by their declared order, sections by
// order with section-less items after sectioned ones, items by level then
// order. Nesting uses the parent-id index over the flat rows; nodes hold no
// back references, so the result serializes directly.
func BuildTree(rows []catalog.MenuRow, grants map[int64]authorization.AggregatedGrant) *MenuTree {
	visible := make([]catalog.MenuRow, 0, len(rows))
	for _, row := range rows {
		if grant, ok := grants[row.ID]; ok && grant.Flags.View {
			visible = append(visible, row)
		}
	}

	sort.SliceStable(visible, func(i, j int) bool {
		a, b := visible[i], visible[j]
		if a.ModuleSortOrder != b.ModuleSortOrder {
			return a.ModuleSortOrder < b.ModuleSortOrder
		}
		if a.ModuleCode != b.ModuleCode {
			return a.ModuleCode < b.ModuleCode
		}
		if a.HasSection() != b.HasSection() {
			return a.HasSection()
		}
		if a.SectionSortOrder != b.SectionSortOrder {
			return a.SectionSortOrder < b.SectionSortOrder
		}
		if a.Level != b.Level {
			return a.Level < b.Level
		}
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		return a.ID < b.ID
	})

	tree := &MenuTree{Modules: []*ModuleNode{}}
	moduleIndex := map[int64]*ModuleNode{}
	sectionIndex := map[int64]map[string]*SectionNode{}
	nodeIndex := map[int64]*MenuNode{}

	for _, row := range visible {
		module, ok := moduleIndex[row.ModuleID]
		if !ok {
			module = &ModuleNode{
				ID:       row.ModuleID,
				Code:     row.ModuleCode,
				Name:     row.ModuleName,
				Sections: []*SectionNode{},
			}
			moduleIndex[row.ModuleID] = module
			sectionIndex[row.ModuleID] = map[string]*SectionNode{}
			tree.Modules = append(tree.Modules, module)
		}

		grant := grants[row.ID]
		node := &MenuNode{
			ID:               row.ID,
			Code:             row.Code,
			Name:             row.Name,
			Route:            row.Route,
			Icon:             row.Icon,
			Level:            row.Level,
			Flags:            grant.Flags,
			ExtraPermissions: grant.ExtraPermissionsMap(),
		}
		nodeIndex[row.ID] = node

		if row.ParentID != nil {
			// Rows are sorted level-ascending, so a visible parent has
			// already been indexed. A missing parent means it was dropped,
			// which drops this node with it.
			if parent, ok := nodeIndex[*row.ParentID]; ok {
				parent.Children = append(parent.Children, node)
			} else {
				delete(nodeIndex, row.ID)
			}
			continue
		}

		section := resolveSection(module, sectionIndex[row.ModuleID], row)
		section.Items = append(section.Items, node)
	}

	pruneEmptyModules(tree)
	return tree
}

func resolveSection(module *ModuleNode, sections map[string]*SectionNode, row catalog.MenuRow) *SectionNode {
	key := "_none"
	if row.HasSection() {
		key = row.SectionName
	}
	if section, ok := sections[key]; ok {
		return section
	}

	section := &SectionNode{Items: []*MenuNode{}}
	if row.HasSection() {
		section.ID = row.SectionID
		section.Name = row.SectionName
	}
	sections[key] = section
	module.Sections = append(module.Sections, section)
	return section
}

// pruneEmptyModules drops modules whose every root item was dropped along
// with an invisible parent.
func pruneEmptyModules(tree *MenuTree) {
	kept := tree.Modules[:0]
	for _, module := range tree.Modules {
		sections := module.Sections[:0]
		for _, section := range module.Sections {
			if len(section.Items) > 0 {
				sections = append(sections, section)
			}
		}
		module.Sections = sections
		if len(module.Sections) > 0 {
			kept = append(kept, module)
		}
	}
	tree.Modules = kept
}
