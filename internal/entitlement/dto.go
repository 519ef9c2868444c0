package entitlement

import "time"

// ActivateModuleDTO carries the caller-supplied activation parameters.
type ActivateModuleDTO struct {
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	MaxUsers  *int       `json:"max_users,omitempty"`
}

type ActivationResponse struct {
	ModuleID  int64      `json:"module_id"`
	IsActive  bool       `json:"is_active"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	MaxUsers  *int       `json:"max_users,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type ActivationsResponse struct {
	Activations []ActivationResponse `json:"activations"`
}

func (a *Activation) ToResponse() ActivationResponse {
	return ActivationResponse{
		ModuleID:  a.ModuleID,
		IsActive:  a.IsActive,
		ExpiresAt: a.ExpiresAt,
		MaxUsers:  a.MaxUsers,
		UpdatedAt: a.UpdatedAt,
	}
}
