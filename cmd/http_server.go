package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/internal/authorization"
	authorizationPostgres "github.com/frahmantamala/access-management/internal/authorization/postgres"
	"github.com/frahmantamala/access-management/internal/catalog"
	catalogPostgres "github.com/frahmantamala/access-management/internal/catalog/postgres"
	"github.com/frahmantamala/access-management/internal/core/events"
	"github.com/frahmantamala/access-management/internal/entitlement"
	entitlementPostgres "github.com/frahmantamala/access-management/internal/entitlement/postgres"
	"github.com/frahmantamala/access-management/internal/menu"
	"github.com/frahmantamala/access-management/internal/provisioning"
	"github.com/frahmantamala/access-management/internal/transport"
	"github.com/frahmantamala/access-management/internal/transport/rest"
	"github.com/frahmantamala/access-management/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config    *internal.Config
	CatalogDB *sqlx.DB
	TenantDB  *sqlx.DB
	Router    *chi.Mux
	Logger    *slog.Logger

	MenuHandler          *menu.Handler
	EntitlementHandler   *entitlement.Handler
	AuthorizationHandler *authorization.Handler
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	rest.RegisterAllRoutes(
		deps.Router,
		deps.CatalogDB.DB,
		deps.TenantDB.DB,
		[]byte(deps.Config.Security.SessionTokenSecret),
		deps.MenuHandler,
		deps.EntitlementHandler,
		deps.AuthorizationHandler,
		deps.Logger,
	)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := deps.CatalogDB.Close(); err != nil {
			slog.Error("Catalog store close error", "error", err)
		}
		if err := deps.TenantDB.Close(); err != nil {
			slog.Error("Tenant store close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"), config.Observability.Logging.Level)
	appLogger := logger.LoggerWrapper()

	catalogDB, catalogGorm, err := initDB(config.CatalogDB)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize catalog store: %w", err)
	}
	tenantDB, tenantGorm, err := initDB(config.TenantDB)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tenant store: %w", err)
	}

	bus := events.NewEventBus(appLogger)
	baseHandler := transport.NewBaseHandler(appLogger)

	catalogRepo := catalogPostgres.NewCatalogRepository(catalogGorm)
	catalogService := catalog.NewService(catalogRepo, appLogger)

	authorizationRepo := authorizationPostgres.NewAuthorizationRepository(tenantGorm)
	authorizationService := authorization.NewService(authorizationRepo, bus, appLogger)

	applier := provisioning.NewApplier(catalogService, authorizationRepo, appLogger)

	entitlementRepo := entitlementPostgres.NewEntitlementRepository(tenantGorm)
	entitlementService := entitlement.NewService(entitlementRepo, catalogService, applier, bus, appLogger)

	var resolverCache *menu.Cache
	if config.ResolverCache.Enabled {
		resolverCache = menu.NewCache(config.ResolverCache.MaxEntries, config.ResolverCache.TTL)
		resolverCache.Subscribe(bus)
	}
	menuService := menu.NewService(catalogService, entitlementService, authorizationRepo, resolverCache, appLogger)

	return &Dependencies{
		Config:    config,
		CatalogDB: catalogDB,
		TenantDB:  tenantDB,
		Router:    chi.NewRouter(),
		Logger:    appLogger,

		MenuHandler:          menu.NewHandler(baseHandler, menuService),
		EntitlementHandler:   entitlement.NewHandler(baseHandler, entitlementService),
		AuthorizationHandler: authorization.NewHandler(baseHandler, authorizationService),
	}, nil
}

// initDB opens one connection pool and hands it to both the plain-SQL side
// (health checks, goose) and gorm, so each store has exactly one pool.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, *gorm.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	gormDB, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: dbConn.DB}), &gorm.Config{})
	if err != nil {
		_ = dbConn.Close()
		return nil, nil, fmt.Errorf("failed to open gorm over connection pool: %w", err)
	}

	return dbConn, gormDB, nil
}
