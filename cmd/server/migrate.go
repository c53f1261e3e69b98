package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/answers-api/internal/platform/postgres"
	"github.com/phrazzld/answers-api/internal/redact"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

var migrateCommands = []string{"up", "down", "status", "reset", "version"}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status|reset|version]",
		Short:     "Manage the database schema",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: migrateCommands,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, l, err := bootstrap()
			if err != nil {
				return err
			}

			db, err := postgres.Open(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer func() {
				if err := db.Close(); err != nil {
					l.Error("failed to close database connection", "error", err)
				}
			}()

			return runMigrations(cmd.Context(), db, args[0], l)
		},
	}
}

// runMigrations applies command to db using the embedded migration files.
func runMigrations(ctx context.Context, db *sql.DB, command string, logger *slog.Logger) error {
	goose.SetBaseFS(postgres.Migrations)
	goose.SetTableName(postgres.MigrationTableName)
	goose.SetLogger(&slogGooseLogger{logger: logger.With("component", "migrations")})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	logger.Info("running migrations", "command", command)
	if err := goose.RunContext(ctx, command, db, postgres.MigrationsDir); err != nil {
		return fmt.Errorf("migration %q failed: %w", command, err)
	}
	logger.Info("migrations finished", "command", command)
	return nil
}

// slogGooseLogger adapts the goose logger interface to slog.
type slogGooseLogger struct {
	logger *slog.Logger
}

func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(redact.String(fmt.Sprintf(format, v...)))
}

// Fatalf logs at error level without exiting; the failure is returned to
// the command instead.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(redact.String(fmt.Sprintf(format, v...)))
}
