package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"membersite/internal/repos"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply all pending migrations to the configured user store.`,
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadStoreConfig(cmd)
	if err != nil {
		return err
	}

	cmd.Println("Connecting to database...")
	// OpenDB migrates as part of connecting
	db, err := repos.OpenDB(cmd.Context(), cfg.Store)
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("driver", cfg.Store.Driver).Wrap(err)
	}
	defer db.Close()

	cmd.Println("Migrations completed successfully")
	return nil
}
