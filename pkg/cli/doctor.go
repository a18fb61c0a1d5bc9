package cli

import (
	"fmt"
	"os"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/sov1n14/previewd/pkg/browser"
	"github.com/sov1n14/previewd/pkg/cli/internal/output"
	"github.com/sov1n14/previewd/pkg/cli/internal/ports"
	"github.com/sov1n14/previewd/pkg/config"
)

var (
	doctorConfigFile string
	doctorPort       int
	doctorHost       string
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose common setup issues",
	Example: `  # Run all checks with defaults
  previewd doctor

  # Check a custom port and config file
  previewd doctor -p 3000 --config previewd.yaml`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().StringVar(&doctorConfigFile, "config", "", "Path to config file to validate")
	doctorCmd.Flags().IntVarP(&doctorPort, "port", "p", config.DefaultPort, "Preview port to check")
	doctorCmd.Flags().StringVar(&doctorHost, "host", config.DefaultHost, "Host to check the port on")
}

// doctorCheck holds the result of a single doctor check.
type doctorCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"` // "ok", "fail", "info"
	Detail string `json:"detail"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	var checks []doctorCheck

	// Port availability.
	if err := ports.Check(doctorHost, doctorPort); err != nil {
		checks = append(checks, doctorCheck{Name: fmt.Sprintf("port_%d", doctorPort), Status: "fail", Detail: "in use"})
	} else {
		checks = append(checks, doctorCheck{Name: fmt.Sprintf("port_%d", doctorPort), Status: "ok", Detail: "available"})
	}

	// Chrome binary discovery.
	if path := browser.LocateExec(); path != "" {
		checks = append(checks, doctorCheck{Name: "chrome", Status: "ok", Detail: path})
	} else {
		checks = append(checks, doctorCheck{Name: "chrome", Status: "fail", Detail: "no Chrome-family binary found in PATH"})
	}

	// Config file validation.
	configFile := doctorConfigFile
	if configFile == "" {
		configFile = config.FindDefault()
	}
	if configFile != "" {
		if cfg, err := config.Load(configFile); err != nil {
			checks = append(checks, doctorCheck{Name: "config_file", Status: "fail", Detail: err.Error()})
		} else if err := cfg.Validate(); err != nil {
			checks = append(checks, doctorCheck{Name: "config_file", Status: "fail", Detail: err.Error()})
		} else {
			checks = append(checks, doctorCheck{Name: "config_file", Status: "ok", Detail: configFile})
		}
	} else {
		checks = append(checks, doctorCheck{Name: "config_file", Status: "info", Detail: "none found (defaults apply)"})
	}

	// Working directory is servable.
	if wd, err := os.Getwd(); err == nil {
		checks = append(checks, doctorCheck{Name: "working_directory", Status: "ok", Detail: wd})
	} else {
		checks = append(checks, doctorCheck{Name: "working_directory", Status: "fail", Detail: err.Error()})
	}

	// PID file state.
	pidPath := DefaultPIDPath()
	if info, err := ReadPIDFile(pidPath); err == nil {
		if info.IsRunning() {
			checks = append(checks, doctorCheck{Name: "pid_file", Status: "ok", Detail: fmt.Sprintf("PID %d, running at %s", info.PID, info.URL)})
		} else {
			checks = append(checks, doctorCheck{Name: "pid_file", Status: "info", Detail: fmt.Sprintf("PID %d, stale", info.PID)})
		}
	} else {
		checks = append(checks, doctorCheck{Name: "pid_file", Status: "info", Detail: "not found"})
	}

	failed := lo.CountBy(checks, func(c doctorCheck) bool { return c.Status == "fail" })
	allPassed := failed == 0

	printResult(map[string]any{"checks": checks, "allPassed": allPassed}, func() {
		fmt.Println("previewd doctor")
		fmt.Println("===============")
		fmt.Println()
		w := output.Table()
		for _, c := range checks {
			marker := lo.Ternary(c.Status == "ok", "✓", lo.Ternary(c.Status == "fail", "✗", "•"))
			fmt.Fprintf(w, "  %s %s\t%s\n", marker, c.Name, c.Detail)
		}
		w.Flush()
		fmt.Println()
		if allPassed {
			fmt.Println("All checks passed!")
		} else {
			fmt.Printf("%d check(s) failed. See above for details.\n", failed)
		}
	})

	return nil
}
