package cmd

import (
	"context"
	"log"

	"github.com/frahmantamala/access-management/internal"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "to run db migration files under db/migrations directory",
	}
	migrateStore string
)

func init() {
	migrateCmd.Flags().StringVarP(&migrateStore, "store", "s", "all", "which store to migrate: catalog, tenant or all")
}

// runMigration migrates both logical stores. Each keeps its own migration
// directory and version table so the stores can live in separate databases.
func runMigration(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	cfg, err := loadConfig(".")
	if err != nil {
		log.Fatal(err)
	}

	if migrateStore == "catalog" || migrateStore == "all" {
		migrateOne(ctx, cfg.CatalogDB, "db/migrations/catalog", "catalog_schema_migrations")
	}
	if migrateStore == "tenant" || migrateStore == "all" {
		migrateOne(ctx, cfg.TenantDB, "db/migrations/tenant", "tenant_schema_migrations")
	}

	return nil
}

func migrateOne(ctx context.Context, cfg internal.DatabaseConfig, dir, table string) {
	db, err := goose.OpenDBWithDriver("pgx", cfg.Source)
	if err != nil {
		log.Fatalf("goose: failed to open DB: %v\n", err)
	}
	defer db.Close()

	goose.SetTableName(table)
	if err := goose.RunContext(ctx, "up", db, dir); err != nil {
		log.Fatalf("goose up (%s): %v", dir, err)
	}
}
