package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sov1n14/previewd/pkg/browser"
	"github.com/sov1n14/previewd/pkg/config"
)

var (
	openExecPath string
	openModest   bool
)

var openCmd = &cobra.Command{
	Use:   "open [url]",
	Short: "Open a detached Chrome window at a URL",
	Long: `Launch Chrome with previewd's anti-detection options and navigate it
to the given URL (default: the configured preview address). The window is
detached and stays open after the command returns.`,
	Example: `  # Open the default preview address
  previewd open

  # Open a specific URL
  previewd open http://localhost:3000/demo.html`,
	Args: cobra.MaximumNArgs(1),
	RunE: runOpen,
}

func init() {
	rootCmd.AddCommand(openCmd)
	openCmd.Flags().StringVar(&openExecPath, "exec-path", "", "Chrome binary to use")
	openCmd.Flags().BoolVar(&openModest, "modest", false, "Do not maximize the window")
}

func runOpen(cmd *cobra.Command, args []string) error {
	url := config.DefaultConfig().BaseURL()
	if len(args) == 1 {
		url = args[0]
	}

	cfg := config.BrowserConfig{
		ExecPath:       openExecPath,
		StartMaximized: !openModest,
		KeepOpen:       true,
	}

	sess, err := browser.Launch(cmd.Context(), url, cfg)
	if err != nil {
		return fmt.Errorf("open %s: %w", url, err)
	}
	sess.Detach()

	printResult(map[string]any{"url": url, "detached": true}, func() {
		fmt.Println("Opened", url)
	})
	return nil
}
