// Package cli implements the taskmirror command-line interface using
// Cobra. Each subcommand maps to one tracker entry point (get, list,
// advance, cancel, admin, etc.).
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "taskmirror",
	Short: "taskmirror — Mirror a task registry ledger locally",
	Long: `taskmirror mirrors tasks from an on-chain task registry into a local,
display-ready view and submits lifecycle transitions back to the ledger.

The ledger stays authoritative: status changes show up after the next read.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
