package menu

import (
	"context"
	"net/http"
	"strconv"

	"github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/internal/transport"
)

type ServiceAPI interface {
	ResolveMenu(ctx context.Context, tenantID string, userID int64) (*MenuTree, error)
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

// GetMenu resolves the caller's own menu tree. Tenant and user come from the
// session token, never from the request.
func (h *Handler) GetMenu(w http.ResponseWriter, r *http.Request) {
	tenantID := internal.TenantIDFromContext(r.Context())
	if tenantID == "" {
		h.WriteError(w, http.StatusUnauthorized, "missing tenant context")
		return
	}

	userID, err := strconv.ParseInt(internal.UserIDFromContext(r.Context()), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	tree, err := h.Service.ResolveMenu(r.Context(), tenantID, userID)
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, tree)
}
