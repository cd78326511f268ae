package main

import (
	"github.com/spf13/cobra"

	"github.com/sharethis/service/internal/config"
	"github.com/sharethis/service/internal/db"
	"github.com/sharethis/service/internal/metadata"
)

func newMigrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.DBDriver == config.DriverSQLite {
				store, err := metadata.OpenSQLite(cmd.Context(), a.cfg.DBConnectionString)
				if err != nil {
					return err
				}
				store.Close()
				a.logger.Info("sqlite schema is up to date")
				return nil
			}
			return db.Migrate(a.cfg.DBConnectionString, a.logger)
		},
	}
}
