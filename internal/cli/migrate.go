package cli

import (
	"fmt"

	"github.com/aevon-lab/telemetry-ingest/internal/core/storage/postgres"
	"github.com/aevon-lab/telemetry-ingest/internal/migrations"
	"github.com/spf13/cobra"
)

// MigrateOptions holds flags for the migrate command.
type MigrateOptions struct {
	*RootOptions
	StatusOnly bool
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MigrateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply Postgres schema migrations",
		Long: `Apply pending Postgres schema migrations and print the resulting version.
SQLite stores apply their schema on open and need no migration step.

Example:
  telemetry migrate --config telemetry.yaml
  telemetry migrate --status`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.RootOptions, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if cfg.Database.Type != "postgres" {
				return fmt.Errorf("migrate requires database.type \"postgres\", got %q", cfg.Database.Type)
			}

			db, err := postgres.Open(cfg.Database.DSN, 1, 1)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()

			if !opts.StatusOnly {
				if err := migrations.RunMigrations(db, true); err != nil {
					return fmt.Errorf("failed to run database migrations: %w", err)
				}
			}

			status, err := migrations.CurrentStatus(db)
			if err != nil {
				return err
			}
			if !status.Applied {
				fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", status.Version, status.Dirty)
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.StatusOnly, "status", false, "print the current schema version without migrating")

	return cmd
}
