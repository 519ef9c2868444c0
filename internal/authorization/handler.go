package authorization

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
	ListRoles(ctx context.Context, tenantID string) ([]*Role, error)
	SetRoleBusinessPermissions(ctx context.Context, tenantID string, roleID int64, permissionIDs []int64) error
	SetRoleMenuGrant(ctx context.Context, tenantID string, roleID, menuID int64, flags PermissionFlags, extraPermissions string) error
	AssignRole(ctx context.Context, tenantID string, userID, roleID int64) error
	RevokeRole(ctx context.Context, tenantID string, userID, roleID int64) error
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

func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	tenantID := internal.TenantIDFromContext(r.Context())
	if tenantID == "" {
		h.WriteError(w, http.StatusUnauthorized, "missing tenant context")
		return
	}

	roles, err := h.Service.ListRoles(r.Context(), tenantID)
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}

	resp := RolesResponse{Roles: make([]RoleResponse, 0, len(roles))}
	for _, role := range roles {
		resp.Roles = append(resp.Roles, role.ToResponse())
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

// SetBusinessPermissions handles PUT /roles/{roleID}/permissions. The body
// is authoritative: the role ends up with exactly the posted set.
func (h *Handler) SetBusinessPermissions(w http.ResponseWriter, r *http.Request) {
	tenantID := internal.TenantIDFromContext(r.Context())
	if tenantID == "" {
		h.WriteError(w, http.StatusUnauthorized, "missing tenant context")
		return
	}

	roleID, err := strconv.ParseInt(chi.URLParam(r, "roleID"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid role id")
		return
	}

	var dto SetBusinessPermissionsDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if dto.PermissionIDs == nil {
		dto.PermissionIDs = []int64{}
	}

	if err := h.Service.SetRoleBusinessPermissions(r.Context(), tenantID, roleID, dto.PermissionIDs); err != nil {
		h.WriteDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetMenuGrant handles PUT /roles/{roleID}/menus/{menuID}.
func (h *Handler) SetMenuGrant(w http.ResponseWriter, r *http.Request) {
	tenantID := internal.TenantIDFromContext(r.Context())
	if tenantID == "" {
		h.WriteError(w, http.StatusUnauthorized, "missing tenant context")
		return
	}

	roleID, err := strconv.ParseInt(chi.URLParam(r, "roleID"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid role id")
		return
	}
	menuID, err := strconv.ParseInt(chi.URLParam(r, "menuID"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid menu id")
		return
	}

	var dto SetMenuGrantDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	extra := ""
	if len(dto.ExtraPermissions) > 0 {
		extra = string(dto.ExtraPermissions)
	}
	if err := h.Service.SetRoleMenuGrant(r.Context(), tenantID, roleID, menuID, dto.Flags, extra); err != nil {
		h.WriteDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AssignRole(w http.ResponseWriter, r *http.Request) {
	tenantID := internal.TenantIDFromContext(r.Context())
	if tenantID == "" {
		h.WriteError(w, http.StatusUnauthorized, "missing tenant context")
		return
	}

	roleID, err := strconv.ParseInt(chi.URLParam(r, "roleID"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid role id")
		return
	}

	var dto AssignRoleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil || dto.UserID == 0 {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.AssignRole(r.Context(), tenantID, dto.UserID, roleID); err != nil {
		h.WriteDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RevokeRole(w http.ResponseWriter, r *http.Request) {
	tenantID := internal.TenantIDFromContext(r.Context())
	if tenantID == "" {
		h.WriteError(w, http.StatusUnauthorized, "missing tenant context")
		return
	}

	roleID, err := strconv.ParseInt(chi.URLParam(r, "roleID"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid role id")
		return
	}
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.Service.RevokeRole(r.Context(), tenantID, userID, roleID); err != nil {
		h.WriteDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
