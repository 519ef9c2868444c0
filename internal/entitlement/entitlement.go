package entitlement

import (
	"time"

	entitlementDatamodel "github.com/frahmantamala/access-management/internal/core/datamodel/entitlement"
	"github.com/frahmantamala/access-management/internal/provisioning"
)

// Activation is the domain view of one tenant-module activation record.
type Activation struct {
	ID        int64      `json:"id"`
	TenantID  string     `json:"tenant_id"`
	ModuleID  int64      `json:"module_id"`
	IsActive  bool       `json:"is_active"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	MaxUsers  *int       `json:"max_users,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// IsCurrentlyActive applies the single activation rule used everywhere:
// the flag is set and the record has not expired.
func (a *Activation) IsCurrentlyActive(now time.Time) bool {
	if !a.IsActive {
		return false
	}
	return a.ExpiresAt == nil || a.ExpiresAt.After(now)
}

func FromDataModel(a *entitlementDatamodel.TenantModuleActivation) *Activation {
	return &Activation{
		ID:        a.ID,
		TenantID:  a.TenantID,
		ModuleID:  a.ModuleID,
		IsActive:  a.IsActive,
		ExpiresAt: a.ExpiresAt,
		MaxUsers:  a.MaxUsers,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// ActivateOptions are the caller-supplied parameters of one activation.
type ActivateOptions struct {
	ExpiresAt *time.Time
	MaxUsers  *int
}

// ActivationResult reports both steps of an activation: the entitlement
// write and the outcome of every role template. The two steps commit
// separately, so a template failure leaves the module active but
// capability-empty until an operator remediates; TemplateError says so.
type ActivationResult struct {
	Activation    *Activation                   `json:"activation"`
	Templates     []provisioning.TemplateResult `json:"templates,omitempty"`
	TemplateError string                        `json:"template_error,omitempty"`
}

// FullyApplied reports whether every template of the module applied cleanly.
func (r *ActivationResult) FullyApplied() bool {
	if r.TemplateError != "" {
		return false
	}
	for _, t := range r.Templates {
		if t.Status != provisioning.TemplateApplied {
			return false
		}
	}
	return true
}
