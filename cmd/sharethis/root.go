package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sharethis/service/internal/config"
	"github.com/sharethis/service/internal/db"
	"github.com/sharethis/service/internal/logging"
	"github.com/sharethis/service/internal/metadata"
	"github.com/sharethis/service/internal/storage"
	"github.com/sharethis/service/internal/uow"
)

// app carries what every subcommand needs. It is filled in by the root
// command before any subcommand runs.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{}

	cobra.EnableCommandSorting = false
	root := &cobra.Command{
		Use:           "sharethis",
		Short:         "Share files through short-lived download links.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logging.New(os.Stderr, logging.Options{
				JSON:   cfg.IsProduction(),
				Debug:  cfg.Debug,
				Prefix: cmd.Name(),
			})
			return nil
		},
	}

	root.AddCommand(newServeCommand(a))
	root.AddCommand(newReaperCommand(a))
	root.AddCommand(newMigrateCommand(a))
	return root
}

// openStore connects to the configured metadata store. Postgres schemas are
// migrated first when migrate is set; the SQLite schema is always applied.
func (a *app) openStore(ctx context.Context, migrate bool) (metadata.Store, error) {
	switch a.cfg.DBDriver {
	case config.DriverSQLite:
		store, err := metadata.OpenSQLite(ctx, a.cfg.DBConnectionString)
		if err != nil {
			return nil, err
		}
		a.logger.Info("using sqlite metadata store")
		return store, nil
	default:
		if migrate {
			if err := db.Migrate(a.cfg.DBConnectionString, a.logger); err != nil {
				return nil, err
			}
		}
		pool, err := db.Connect(ctx, a.cfg.DBConnectionString, a.logger)
		if err != nil {
			return nil, err
		}
		return metadata.NewPostgresStore(pool), nil
	}
}

// newFactory opens the metadata store and object storage and binds them.
// The caller closes the returned store.
func (a *app) newFactory(ctx context.Context, migrate bool) (*uow.Factory, metadata.Store, error) {
	store, err := a.openStore(ctx, migrate)
	if err != nil {
		return nil, nil, fmt.Errorf("metadata store init failed: %w", err)
	}
	backend, err := storage.New(ctx, a.cfg.Storage(), a.logger)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("object storage init failed: %w", err)
	}
	return uow.NewFactory(store, backend, a.logger), store, nil
}
