// Package main provides the entry point for the permaudit CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for permaudit.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "permaudit",
		Short: "Authorization audit tool for ASP.NET Core minimal APIs",
		Long: `Permaudit scans a C# source tree for minimal-API endpoint declarations,
classifies the authorization state of each endpoint, and generates
convention-based permission names for endpoints that lack them.

By default the scan reports to stdout in a human-readable format.
Use --json or --markdown for machine-readable and documentation output.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
