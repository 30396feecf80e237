package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hackgods/clinicdesk/internal/config"
	"github.com/hackgods/clinicdesk/internal/db"
	"github.com/hackgods/clinicdesk/internal/logging"
)

// env is the shared state every subcommand runs with.
type env struct {
	cfg    config.Config
	logger zerolog.Logger
	pool   *pgxpool.Pool
}

func newRootCmd() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:           "clinicctl",
		Short:         "Operate clinicdesk databases and tenants",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			e.cfg = cfg
			e.logger = logging.New("clinicctl", cfg.Env, cfg.LogLevel)

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			e.pool = pool
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if e.pool != nil {
				e.pool.Close()
			}
		},
	}

	root.AddCommand(
		newMigrateCmd(e),
		newTenantCmd(e),
		newUserCmd(e),
	)
	return root
}
