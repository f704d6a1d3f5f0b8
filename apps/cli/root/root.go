package root

import (
	"github.com/spf13/cobra"

	"github.com/storelens-ai/storelens/platform/go/requesttrace"
)

// rootCmd is the base command for the Storelens admin CLI. Subcommands
// (usage, entitlement, tenant, migrate) are attached here.
var rootCmd = &cobra.Command{
	Use:           "storelens",
	Short:         "Storelens admin CLI",
	Long:          "Administrative utilities for Storelens (usage metering maintenance, entitlement checks, plan management).",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Every invocation gets a run trace so log lines from one operation
		// can be correlated.
		cmd.SetContext(requesttrace.IntoContext(cmd.Context(), requesttrace.Operator("")))
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// Root returns the mutable root command for wiring from subpackages.
func Root() *cobra.Command {
	return rootCmd
}
