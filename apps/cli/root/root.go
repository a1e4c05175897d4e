package root

import (
	"github.com/spf13/cobra"
)

// rootCmd is the base command for the salesgrid admin CLI. Subcommands
// (bootstrap, company, etc.) are attached here.
var rootCmd = &cobra.Command{
	Use:           "salesgrid",
	Short:         "salesgrid admin CLI",
	Long:          "Administrative utilities for salesgrid (catalog bootstrap, company provisioning).",
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// Root returns the mutable root command for wiring from subpackages.
func Root() *cobra.Command {
	return rootCmd
}
