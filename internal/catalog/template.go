package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/internal/authorization"
	catalogDatamodel "github.com/frahmantamala/access-management/internal/core/datamodel/catalog"
)

// RoleTemplate is a parsed template. Blueprint parsing happens when templates
// are loaded from the catalog, not lazily at apply time, so a malformed
// payload surfaces before provisioning touches the tenant store. ParseError
// holds the validation failure for a template whose payload did not parse;
// such a template is reported and skipped, it never blocks its siblings.
type RoleTemplate struct {
	ID          int64
	ModuleID    int64
	RoleCode    string
	RoleName    string
	Description string
	SortOrder   int
	Blueprint   *Blueprint
	ParseError  *internal.AppError
}

// Blueprint is the typed form of a template's JSON payload: menu grants with
// flag sets plus a list of business permission codes.
type Blueprint struct {
	Menus       []MenuGrantSpec `json:"menus"`
	Permissions []string        `json:"permissions"`
}

type MenuGrantSpec struct {
	MenuCode string                        `json:"menu"`
	Flags    authorization.PermissionFlags `json:"flags"`
	Extra    json.RawMessage               `json:"extra,omitempty"`
}

// ParseBlueprint decodes and validates a raw blueprint payload. Flag
// invariants are enforced here so templates fail fast and visibly.
func ParseBlueprint(raw string) (*Blueprint, *internal.AppError) {
	if raw == "" {
		return nil, internal.NewValidationError("blueprint payload is empty", internal.ErrCodeInvalidBlueprint)
	}

	var bp Blueprint
	if err := json.Unmarshal([]byte(raw), &bp); err != nil {
		return nil, internal.NewValidationError("blueprint payload is not valid JSON", internal.ErrCodeInvalidBlueprint).WithCause(err)
	}

	if len(bp.Menus) == 0 && len(bp.Permissions) == 0 {
		return nil, internal.NewValidationError("blueprint declares neither menus nor permissions", internal.ErrCodeInvalidBlueprint)
	}

	for i, spec := range bp.Menus {
		if spec.MenuCode == "" {
			return nil, internal.NewValidationError(
				fmt.Sprintf("blueprint menu entry %d has no menu code", i), internal.ErrCodeInvalidBlueprint)
		}
		if spec.Flags.IsZero() {
			return nil, internal.NewValidationError(
				fmt.Sprintf("blueprint menu entry %q grants no flags", spec.MenuCode), internal.ErrCodeInvalidBlueprint)
		}
		if err := spec.Flags.Validate(); err != nil {
			appErr, _ := internal.IsAppError(err)
			return nil, internal.NewValidationError(
				fmt.Sprintf("blueprint menu entry %q: %s", spec.MenuCode, appErr.Message), internal.ErrCodeInvalidBlueprint)
		}
	}

	for i, code := range bp.Permissions {
		if code == "" {
			return nil, internal.NewValidationError(
				fmt.Sprintf("blueprint permission entry %d is empty", i), internal.ErrCodeInvalidBlueprint)
		}
	}

	return &bp, nil
}

// TemplateFromDataModel parses the stored payload into a RoleTemplate,
// capturing a parse failure instead of returning it.
func TemplateFromDataModel(t *catalogDatamodel.RoleTemplate) RoleTemplate {
	parsed := RoleTemplate{
		ID:          t.ID,
		ModuleID:    t.ModuleID,
		RoleCode:    t.RoleCode,
		RoleName:    t.RoleName,
		Description: t.Description,
		SortOrder:   t.SortOrder,
	}
	blueprint, err := ParseBlueprint(t.Blueprint)
	if err != nil {
		parsed.ParseError = err
		return parsed
	}
	parsed.Blueprint = blueprint
	return parsed
}
