package main

import (
	"github.com/spf13/cobra"

	"github.com/civicsignal/legisnet/internal/migrate"
	"github.com/civicsignal/legisnet/pkg/logger"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the operational schema migrations",
		Long:  "Applies the migrations for this system's own tables (run locks). The worker applies them automatically at startup; the analysis commands never touch the schema.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			if err := migrate.Up(cfg.DatabaseURL); err != nil {
				return err
			}
			logger.Info("[Migrate] Done")
			return nil
		},
	}
}
