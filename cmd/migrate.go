package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

const (
	migrateUp     = "up"
	migrateStatus = "status"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [up|status]",
		Short: "Apply or inspect database migrations",
		Long: `Apply pending schema migrations to the configured database (up, the
default), or list every migration and whether it has been applied (status).

The database comes from DB_URI or the database section of the config file.`,
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{migrateUp, migrateStatus},
		RunE: func(cmd *cobra.Command, args []string) error {
			action := migrateUp
			if len(args) == 1 {
				action = args[0]
			}
			return runMigrate(cmd, action)
		},
	}
}

func runMigrate(cmd *cobra.Command, action string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	logger := newLogger(cmd.ErrOrStderr(), cfg.Debug)

	db, err := openStore(ctx, cfg.Database, false, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	out := newPrinter(cmd.OutOrStdout())
	switch action {
	case migrateUp:
		n, err := db.Migrate(ctx)
		if err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		if n == 0 {
			fmt.Fprintln(out.w, out.muted("Database is up to date"))
			return nil
		}
		fmt.Fprintln(out.w, out.success(fmt.Sprintf("Applied %d migration(s)", n)))
		return nil

	case migrateStatus:
		infos, err := db.MigrationStatus(ctx)
		if err != nil {
			return fmt.Errorf("failed to read migration status: %w", err)
		}
		for _, m := range infos {
			state := out.muted("pending")
			if m.Applied {
				state = out.success("applied " + m.AppliedAt.Local().Format(time.DateTime))
			}
			fmt.Fprintf(out.w, "%5d  %-40s %s\n", m.Version, m.Source, state)
		}
		return nil

	default:
		return fmt.Errorf("unknown migrate action %q, must be %s or %s", action, migrateUp, migrateStatus)
	}
}
