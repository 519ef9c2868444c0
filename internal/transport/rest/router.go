package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/access-management/internal/authorization"
	"github.com/frahmantamala/access-management/internal/entitlement"
	"github.com/frahmantamala/access-management/internal/menu"
	"github.com/frahmantamala/access-management/internal/transport/middleware"
	"github.com/frahmantamala/access-management/internal/transport/swagger"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

// Administrative permissions carried in the session token. Resolution needs
// no permission beyond a valid session; module and role administration do.
const (
	PermManageModules = "modules:manage"
	PermManageRoles   = "roles:manage"
)

func RegisterAllRoutes(router *chi.Mux, catalogDB, tenantDB *sql.DB, sessionSecret []byte, menuHandler *menu.Handler, entitlementHandler *entitlement.Handler, authorizationHandler *authorization.Handler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(catalogDB, tenantDB)

	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Everything below needs a valid session token carrying tenant
		// and user identity.
		r.Group(func(pr chi.Router) {
			pr.Use(middleware.SessionAuth(sessionSecret))

			if menuHandler != nil {
				pr.Get("/menu", menuHandler.GetMenu)
			}

			if entitlementHandler != nil {
				pr.Get("/modules", entitlementHandler.ListActivations)

				pr.Group(func(mr chi.Router) {
					mr.Use(middleware.RequirePermissions(PermManageModules))
					mr.Post("/modules/{moduleID}/activate", entitlementHandler.ActivateModule)
					mr.Post("/modules/{moduleID}/deactivate", entitlementHandler.DeactivateModule)
				})
			}

			if authorizationHandler != nil {
				pr.Route("/roles", func(rr chi.Router) {
					rr.Get("/", authorizationHandler.ListRoles)

					rr.Group(func(ar chi.Router) {
						ar.Use(middleware.RequirePermissions(PermManageRoles))
						ar.Put("/{roleID}/permissions", authorizationHandler.SetBusinessPermissions)
						ar.Put("/{roleID}/menus/{menuID}", authorizationHandler.SetMenuGrant)
						ar.Post("/{roleID}/assignments", authorizationHandler.AssignRole)
						ar.Delete("/{roleID}/assignments/{userID}", authorizationHandler.RevokeRole)
					})
				})
			}
		})
	})
}
