// Tunerbridge is the command line companion to the tunerbridge daemon.
//
// It scans the local network for HDHomeRun tuners, queries a running
// daemon for its device table and registered sources, triggers manual
// refresh and discovery passes, and opens a live watch view.
//
// Usage:
//
//	tunerbridge [command] [flags]
//
// See 'tunerbridge --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rgowan/tunerbridge/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tunerbridge",
	Short: "Tuner Discovery and Lineup Utility",
	Long: `A command line utility for HDHomeRun tuners and the tunerbridge daemon.

Scans the network for tuners directly, and talks to a running
tunerbridge-server for the device table, registered sources, manual
refresh and discovery triggers, and a live watch view.`,
	Version: version.Version,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tunerbridge %s (commit: %s)\n", version.Version, version.Commit)
	},
}
