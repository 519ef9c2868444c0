package entitlement

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	ListActivations(ctx context.Context, tenantID string) ([]*Activation, error)
	ActivateModule(ctx context.Context, tenantID string, moduleID int64, opts ActivateOptions) (*ActivationResult, error)
	DeactivateModule(ctx context.Context, tenantID string, moduleID int64) (*Activation, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) ListActivations(w http.ResponseWriter, r *http.Request) {
	tenantID := internal.TenantIDFromContext(r.Context())
	if tenantID == "" {
		h.WriteError(w, http.StatusUnauthorized, "missing tenant context")
		return
	}

	activations, err := h.Service.ListActivations(r.Context(), tenantID)
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}

	resp := ActivationsResponse{Activations: make([]ActivationResponse, 0, len(activations))}
	for _, a := range activations {
		resp.Activations = append(resp.Activations, a.ToResponse())
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

// ActivateModule handles POST /modules/{moduleID}/activate. The response
// always reports the per-template outcomes so a partial provisioning failure
// is visible to the operator.
func (h *Handler) ActivateModule(w http.ResponseWriter, r *http.Request) {
	tenantID := internal.TenantIDFromContext(r.Context())
	if tenantID == "" {
		h.WriteError(w, http.StatusUnauthorized, "missing tenant context")
		return
	}

	moduleID, err := strconv.ParseInt(chi.URLParam(r, "moduleID"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid module id")
		return
	}

	var dto ActivateModuleDTO
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	result, err := h.Service.ActivateModule(r.Context(), tenantID, moduleID, ActivateOptions{
		ExpiresAt: dto.ExpiresAt,
		MaxUsers:  dto.MaxUsers,
	})
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) DeactivateModule(w http.ResponseWriter, r *http.Request) {
	tenantID := internal.TenantIDFromContext(r.Context())
	if tenantID == "" {
		h.WriteError(w, http.StatusUnauthorized, "missing tenant context")
		return
	}

	moduleID, err := strconv.ParseInt(chi.URLParam(r, "moduleID"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid module id")
		return
	}

	activation, err := h.Service.DeactivateModule(r.Context(), tenantID, moduleID)
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, activation.ToResponse())
}
