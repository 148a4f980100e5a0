package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Skotchmaster/medorder/internal/config"
	"github.com/Skotchmaster/medorder/internal/repo"
	pkgdb "github.com/Skotchmaster/medorder/pkg/db"
	"github.com/Skotchmaster/medorder/pkg/logging"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "medorder",
	Short:         "Medicine order desk API",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return err
		}
		cfg = c
		logger = logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
		cmd.SetContext(logging.IntoContext(cmd.Context(), logger))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, pruneCmd)
}

func openStore(ctx context.Context) (*gorm.DB, *repo.GormRepo, error) {
	db, err := pkgdb.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, repo.New(db, cfg.StoreTimeout), nil
}
