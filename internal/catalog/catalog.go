package catalog

import (
	catalogDatamodel "github.com/frahmantamala/access-management/internal/core/datamodel/catalog"
)

// Module is the domain view of one catalog module, with its dependency
// declaration resolved to module codes.
type Module struct {
	ID        int64    `json:"id"`
	Code      string   `json:"code"`
	Name      string   `json:"name"`
	IsActive  bool     `json:"is_active"`
	SortOrder int      `json:"sort_order"`
	Requires  []string `json:"requires,omitempty"`
}

func ModuleFromDataModel(m *catalogDatamodel.Module) *Module {
	return &Module{
		ID:        m.ID,
		Code:      m.Code,
		Name:      m.Name,
		IsActive:  m.IsActive,
		SortOrder: m.SortOrder,
	}
}

// MenuRow is one menu item flattened together with its module and section
// ordering columns, the shape the resolver joins and sorts in memory.
// The tree is rebuilt from ParentID, never stored as nested pointers.
type MenuRow struct {
	ID               int64
	Code             string
	Name             string
	Route            string
	Icon             string
	Level            int
	SortOrder        int
	ParentID         *int64
	ModuleID         int64
	ModuleCode       string
	ModuleName       string
	ModuleSortOrder  int
	SectionID        *int64
	SectionName      string
	SectionSortOrder int
}

// HasSection reports whether the row belongs to a section. Section-less
// items sort after sectioned ones within their module.
func (r MenuRow) HasSection() bool {
	return r.SectionID != nil
}

// MaxMenuDepth is the deepest nesting the catalog allows for menu items.
const MaxMenuDepth = 3
