package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
)

// RequirePermissions guards administrative routes. The caller passes when the
// session token carries any one of the named permissions.
func RequirePermissions(permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok || claims == nil {
				writeAuthError(w, "missing session context")
				return
			}

			if !hasAny(claims.Permissions, permissions) {
				slog.Warn("access denied: caller lacks required permissions",
					"tenant_id", claims.TenantID,
					"user_id", claims.UserID,
					"required_permissions", permissions)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				fmt.Fprint(w, `{"error_code": "FORBIDDEN", "message": "insufficient permissions"}`)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func hasAny(held, required []string) bool {
	for _, req := range required {
		for _, perm := range held {
			if perm == req {
				return true
			}
		}
	}
	return false
}
