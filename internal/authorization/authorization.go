package authorization

import (
	"encoding/json"
	"time"

	"github.com/frahmantamala/access-management/internal"
	authDatamodel "github.com/frahmantamala/access-management/internal/core/datamodel/authorization"
)

// PermissionFlags are the seven independent action flags a role can hold on a
// menu item. Aggregation across roles is a logical OR per flag: a user with
// multiple roles gets the union of their capabilities, never the intersection.
type PermissionFlags struct {
	View    bool `json:"view"`
	Create  bool `json:"create"`
	Edit    bool `json:"edit"`
	Delete  bool `json:"delete"`
	Export  bool `json:"export"`
	Print   bool `json:"print"`
	Approve bool `json:"approve"`
}

// Or folds another flag set into this one and returns the union.
func (f PermissionFlags) Or(other PermissionFlags) PermissionFlags {
	return PermissionFlags{
		View:    f.View || other.View,
		Create:  f.Create || other.Create,
		Edit:    f.Edit || other.Edit,
		Delete:  f.Delete || other.Delete,
		Export:  f.Export || other.Export,
		Print:   f.Print || other.Print,
		Approve: f.Approve || other.Approve,
	}
}

// IsZero reports whether no flag is set.
func (f PermissionFlags) IsZero() bool {
	return f == PermissionFlags{}
}

// Validate enforces the write-time invariants: any flag other than view
// implies view, and delete implies edit.
func (f PermissionFlags) Validate() error {
	if !f.View && (f.Create || f.Edit || f.Delete || f.Export || f.Print || f.Approve) {
		return internal.NewValidationError("any action flag requires the view flag", internal.ErrCodeInvalidFlagSet)
	}
	if f.Delete && !f.Edit {
		return internal.NewValidationError("the delete flag requires the edit flag", internal.ErrCodeInvalidFlagSet)
	}
	return nil
}

type Role struct {
	ID          int64     `json:"id"`
	TenantID    string    `json:"tenant_id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsSystem    bool      `json:"is_system"`
	CreatedAt   time.Time `json:"created_at"`
}

func RoleFromDataModel(r *authDatamodel.Role) *Role {
	return &Role{
		ID:          r.ID,
		TenantID:    r.TenantID,
		Code:        r.Code,
		Name:        r.Name,
		Description: r.Description,
		IsSystem:    r.IsSystem,
		CreatedAt:   r.CreatedAt,
	}
}

// MenuGrant is the domain view of one role's grant on one menu item.
type MenuGrant struct {
	RoleID           int64
	MenuID           int64
	Flags            PermissionFlags
	ExtraPermissions string
	CreatedAt        time.Time
}

func MenuGrantFromDataModel(g *authDatamodel.RoleMenuGrant) MenuGrant {
	return MenuGrant{
		RoleID: g.RoleID,
		MenuID: g.MenuID,
		Flags: PermissionFlags{
			View:    g.CanView,
			Create:  g.CanCreate,
			Edit:    g.CanEdit,
			Delete:  g.CanDelete,
			Export:  g.CanExport,
			Print:   g.CanPrint,
			Approve: g.CanApprove,
		},
		ExtraPermissions: g.ExtraPermissions,
		CreatedAt:        g.CreatedAt,
	}
}

// AggregateGrants folds a set of grants per menu id: flags are OR-ed and the
// extra-permissions payload is taken from the grant with the latest creation
// timestamp. Last-writer-wins on the payload is documented behavior carried
// over from the original system, not a merge strategy; see DESIGN.md.
func AggregateGrants(grants []MenuGrant) map[int64]AggregatedGrant {
	aggregated := make(map[int64]AggregatedGrant)
	for _, grant := range grants {
		agg, ok := aggregated[grant.MenuID]
		if !ok {
			agg = AggregatedGrant{MenuID: grant.MenuID}
		}
		agg.Flags = agg.Flags.Or(grant.Flags)
		if grant.ExtraPermissions != "" &&
			(agg.ExtraPermissions == "" || grant.CreatedAt.After(agg.extraCreatedAt)) {
			agg.ExtraPermissions = grant.ExtraPermissions
			agg.extraCreatedAt = grant.CreatedAt
		}
		aggregated[grant.MenuID] = agg
	}
	return aggregated
}

// AggregatedGrant is a user's effective capability on one menu item across
// all of their active roles.
type AggregatedGrant struct {
	MenuID           int64
	Flags            PermissionFlags
	ExtraPermissions string

	extraCreatedAt time.Time
}

// ExtraPermissionsMap decodes the opaque payload; malformed payloads decode
// to nil rather than failing resolution.
func (a AggregatedGrant) ExtraPermissionsMap() map[string]any {
	if a.ExtraPermissions == "" {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(a.ExtraPermissions), &m); err != nil {
		return nil
	}
	return m
}
