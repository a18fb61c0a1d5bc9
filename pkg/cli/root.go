// Package cli implements the previewd command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// jsonOutput switches command results to machine-readable JSON.
	jsonOutput bool

	// Build-time variables injected via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// rootCmd is the base command. Running previewd with no subcommand serves
// the current directory and opens the browser.
var rootCmd = &cobra.Command{
	Use:   "previewd",
	Short: "previewd serves a directory and opens it in Chrome",
	Long: `previewd is a local preview server for front-end work: it serves a
directory of static files over HTTP, opens a Chrome window pointed at it,
and reloads the page whenever the files change.

Settings come from flags, PREVIEWD_* environment variables, or a
previewd.yaml file in the working directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Assigned here rather than in the composite literal to avoid an
	// initialization cycle (rootCmd -> serveCmd -> rootCmd).
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	}
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output command results in JSON format")
}
