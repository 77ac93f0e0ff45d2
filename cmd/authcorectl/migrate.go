package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/MrEthical07/authcore/storage"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long:  `Create or upgrade the users, user_salts and admins tables for the configured driver.`,
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	cmd.Println("Connecting to database...")
	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	cmd.Println("Running migrations...")
	if err := storage.Migrate(ctx, db, cfg.logger(cmd)); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}

	cmd.Println("Migrations completed successfully")
	return nil
}
