package main

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "firefly",
	Short: "Firefly renders a live operational view of a multi-component backend.",
	Long: `Firefly ingests streamed trace telemetry, maintains the canonical ` +
		`component graph, and animates particles along edges for each ` +
		`cross-component call. It serves per-frame snapshots over HTTP for ` +
		`an external renderer.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
