package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/sov1n14/previewd/pkg/cli/internal/output"
	"github.com/sov1n14/previewd/pkg/config"
)

var (
	initForce       bool
	initOutput      string
	initInteractive bool
	initSample      bool
)

// sampleIndexHTML is written by `init --sample` so a fresh directory has
// something to look at.
const sampleIndexHTML = `<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8">
    <title>previewd</title>
  </head>
  <body>
    <h1>hi</h1>
    <p>Edit this file and watch the page reload.</p>
  </body>
</html>
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter previewd.yaml",
	Example: `  # Write previewd.yaml with defaults
  previewd init

  # Prompt for the common settings
  previewd init --interactive

  # Also drop a sample index.html
  previewd init --sample`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
	initCmd.Flags().StringVarP(&initOutput, "output", "o", "previewd.yaml", "Output filename")
	initCmd.Flags().BoolVarP(&initInteractive, "interactive", "i", false, "Prompt for configuration values")
	initCmd.Flags().BoolVar(&initSample, "sample", false, "Also write a sample index.html if none exists")
}

func runInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(initOutput); err == nil && !initForce {
		return fmt.Errorf("file already exists: %s (use --force to overwrite)", initOutput)
	}

	cfg := config.DefaultConfig()
	if initInteractive {
		if err := runInteractiveInit(cfg); err != nil {
			return err
		}
	}

	if err := cfg.Save(initOutput); err != nil {
		return err
	}

	wroteSample := false
	if initSample {
		if _, err := os.Stat("index.html"); os.IsNotExist(err) {
			if err := os.WriteFile("index.html", []byte(sampleIndexHTML), 0o644); err != nil {
				return fmt.Errorf("write sample index.html: %w", err)
			}
			wroteSample = true
		} else {
			output.Warn("index.html already exists; not overwriting")
		}
	}

	printResult(map[string]any{"config": initOutput, "sample": wroteSample}, func() {
		fmt.Println("Wrote", initOutput)
		if wroteSample {
			fmt.Println("Wrote index.html")
		}
		fmt.Println("\nRun 'previewd' to start the preview.")
	})
	return nil
}

// runInteractiveInit fills the config from a terminal form.
func runInteractiveInit(cfg *config.Config) error {
	port := strconv.Itoa(cfg.Port)
	root := cfg.Root
	openBrowser := !cfg.Browser.Disabled
	reload := !cfg.LiveReload.Disabled

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Port").
				Value(&port).
				Validate(func(s string) error {
					n, err := strconv.Atoi(s)
					if err != nil || n < 0 || n > 65535 {
						return fmt.Errorf("enter a port between 0 and 65535")
					}
					return nil
				}),
			huh.NewInput().
				Title("Directory to serve").
				Value(&root),
			huh.NewConfirm().
				Title("Open a browser on start?").
				Value(&openBrowser),
			huh.NewConfirm().
				Title("Enable live reload?").
				Value(&reload),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	cfg.Port, _ = strconv.Atoi(port)
	cfg.Root = root
	cfg.Browser.Disabled = !openBrowser
	cfg.LiveReload.Disabled = !reload
	return nil
}
