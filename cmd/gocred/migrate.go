package main

import (
	"fmt"
	"io"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/MrEthical07/goCred/internal/appconfig"
	"github.com/MrEthical07/goCred/store/postgres"
)

type migrateOptions struct {
	down        bool
	showVersion bool
}

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	var opts migrateOptions

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Apply the embedded schema migrations to the PostgreSQL database named by
DATABASE_URL. --down rolls every migration back; --version only reports the
current schema version.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			databaseURL, err := appconfig.DatabaseURL(envFiles...)
			if err != nil {
				return err
			}
			return runMigrate(cmd.OutOrStdout(), databaseURL, opts, defaultNewMigrator)
		},
	}

	cmd.Flags().BoolVar(&opts.down, "down", false, "roll back all migrations (drops every user and session)")
	cmd.Flags().BoolVar(&opts.showVersion, "version", false, "print the applied schema version and exit")
	cmd.MarkFlagsMutuallyExclusive("down", "version")

	return cmd
}

func runMigrate(out io.Writer, databaseURL string, opts migrateOptions, newMigrator func(string) (migrator, error)) error {
	m, err := newMigrator(databaseURL)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "open migrator").Wrap(err)
	}
	defer func() { _ = m.Close() }()

	switch {
	case opts.showVersion:
	case opts.down:
		fmt.Fprintln(out, "Rolling back all migrations...")
		if err := m.Down(); err != nil {
			return oops.Code("MIGRATION_FAILED").With("operation", "migrate down").Wrap(err)
		}
	default:
		fmt.Fprintln(out, "Running migrations...")
		if err := m.Up(); err != nil {
			return oops.Code("MIGRATION_FAILED").With("operation", "migrate up").Wrap(err)
		}
	}

	v, dirty, err := m.Version()
	if err != nil {
		return err
	}
	latest, err := postgres.LatestVersion()
	if err != nil {
		return err
	}

	state := "clean"
	if dirty {
		state = "dirty"
	}
	fmt.Fprintf(out, "Schema version %d (%s), latest available %d\n", v, state, latest)
	return nil
}
