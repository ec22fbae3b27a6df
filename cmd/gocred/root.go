package main

import (
	"github.com/spf13/cobra"
)

// envFiles are the .env files loaded before the environment is parsed.
var envFiles []string

// NewRootCmd creates the root command for the gocred CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gocred",
		Short: "gocred - credential issuance and session verification",
		Long: `gocred registers users, verifies passwords and issues either signed
stateless tokens or opaque server-side sessions, selected at startup.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load (default .env)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
