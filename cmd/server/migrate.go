package main

import (
	"fmt"

	"github.com/Skotchmaster/medorder/internal/repo"
	pkgdb "github.com/Skotchmaster/medorder/pkg/db"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer pkgdb.Close(db)

		if err := repo.Migrate(cmd.Context(), db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("migration_complete")
		return nil
	},
}
