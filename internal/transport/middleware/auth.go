package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is what the upstream identity layer mints into the session
// token. Tenant and user identity come exclusively from here; request bodies
// and URLs are never trusted for either.
type SessionClaims struct {
	TenantID    string   `json:"tenant_id"`
	UserID      string   `json:"user_id"`
	Permissions []string `json:"permissions,omitempty"`
	jwt.RegisteredClaims
}

type claimsContextKey struct{}

func ClaimsFromContext(ctx context.Context) (*SessionClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*SessionClaims)
	return claims, ok
}

// SessionAuth validates the bearer token and loads tenant and user identity
// into the request context.
func SessionAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r)
			if tokenString == "" {
				writeAuthError(w, "missing session token")
				return
			}

			claims := &SessionClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return secret, nil
			})
			if err != nil || !token.Valid {
				writeAuthError(w, "invalid session token")
				return
			}
			if claims.TenantID == "" || claims.UserID == "" {
				writeAuthError(w, "session token missing identity")
				return
			}

			ctx := internal.ContextWithTenantID(r.Context(), claims.TenantID)
			ctx = internal.ContextWithUserID(ctx, claims.UserID)
			ctx = context.WithValue(ctx, claimsContextKey{}, claims)
			ctx = logger.WithSession(ctx, claims.TenantID, claims.UserID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, `{"error_code": "UNAUTHORIZED", "message": %q}`, message)
}
