package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	stopPIDFile string
	stopForce   bool
	stopWait    time.Duration
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop a running previewd",
	Long: `Signal the previewd recorded in the PID file to shut down. The
browser window it opened is left alone.`,
	RunE: runStop,
}

func init() {
	rootCmd.AddCommand(stopCmd)
	stopCmd.Flags().StringVar(&stopPIDFile, "pid-file", DefaultPIDPath(), "Path to PID file")
	stopCmd.Flags().BoolVarP(&stopForce, "force", "f", false, "Kill the process if it does not exit in time")
	stopCmd.Flags().DurationVar(&stopWait, "wait", 10*time.Second, "How long to wait for a graceful exit")
}

func runStop(cmd *cobra.Command, args []string) error {
	info, err := ReadPIDFile(stopPIDFile)
	if err != nil {
		return err
	}
	if !info.IsRunning() {
		// Stale file from a crashed run; clean it up.
		_ = RemovePIDFile(stopPIDFile)
		return fmt.Errorf("previewd (PID %d) is not running; removed stale PID file", info.PID)
	}

	if err := signalProcess(info.PID, signalTerm); err != nil {
		return fmt.Errorf("send %s to PID %d: %w", signalTermName(), info.PID, err)
	}

	if waitForExit(info.PID, stopWait) {
		printResult(map[string]any{"stopped": true, "pid": info.PID}, func() {
			fmt.Printf("Stopped previewd (PID %d)\n", info.PID)
		})
		return nil
	}

	if !stopForce {
		return fmt.Errorf("previewd (PID %d) did not exit within %s (use --force to kill)", info.PID, stopWait)
	}

	if err := signalProcess(info.PID, signalKill); err != nil {
		return fmt.Errorf("kill PID %d: %w", info.PID, err)
	}
	_ = RemovePIDFile(stopPIDFile)
	printResult(map[string]any{"stopped": true, "pid": info.PID, "forced": true}, func() {
		fmt.Printf("Killed previewd (PID %d)\n", info.PID)
	})
	return nil
}

// waitForExit polls until the process is gone or the timeout elapses.
func waitForExit(pid int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !checkProcessRunning(pid) {
			return true
		}
		time.Sleep(100 * time.Millisecond)
	}
	return false
}
