package cli

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var statusPIDFile string

// statusProbeTimeout bounds the HTTP liveness probe.
const statusProbeTimeout = 2 * time.Second

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show status of a running previewd",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVar(&statusPIDFile, "pid-file", DefaultPIDPath(), "Path to PID file")
}

// statusInfo is the status command's result shape.
type statusInfo struct {
	Running   bool   `json:"running"`
	PID       int    `json:"pid,omitempty"`
	URL       string `json:"url,omitempty"`
	Root      string `json:"root,omitempty"`
	Uptime    string `json:"uptime,omitempty"`
	Reachable bool   `json:"reachable"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	info, err := ReadPIDFile(statusPIDFile)
	if err != nil || !info.IsRunning() {
		printResult(statusInfo{Running: false}, func() {
			fmt.Println("previewd is not running")
		})
		return nil
	}

	st := statusInfo{
		Running: true,
		PID:     info.PID,
		URL:     info.URL,
		Root:    info.Root,
		Uptime:  time.Since(info.StartTime).Round(time.Second).String(),
	}
	st.Reachable = probe(info.URL)

	printResult(st, func() {
		fmt.Printf("previewd is running (PID %d)\n", st.PID)
		fmt.Printf("  URL:     %s\n", st.URL)
		fmt.Printf("  Root:    %s\n", st.Root)
		fmt.Printf("  Uptime:  %s\n", st.Uptime)
		if st.Reachable {
			fmt.Println("  Server:  responding")
		} else {
			fmt.Println("  Server:  NOT responding")
		}
	})
	return nil
}

// probe checks whether the recorded URL answers HTTP at all.
func probe(url string) bool {
	if url == "" {
		return false
	}
	client := &http.Client{Timeout: statusProbeTimeout}
	resp, err := client.Get(url)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}
