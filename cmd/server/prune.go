package main

import (
	"github.com/Skotchmaster/medorder/internal/service"
	pkgdb "github.com/Skotchmaster/medorder/pkg/db"
	"github.com/spf13/cobra"
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete blacklist entries whose tokens have expired",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, r, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer pkgdb.Close(db)

		p := &service.Pruner{Tokens: r}
		_, err = p.PruneOnce(cmd.Context())
		return err
	},
}
