//go:build windows

package cli

import (
	"os"
)

// Windows has no SIGTERM delivery; both paths kill the process.
var (
	signalTerm os.Signal = os.Kill
	signalKill os.Signal = os.Kill
)

// signalTermName returns the name of the graceful shutdown signal.
func signalTermName() string {
	return "Kill"
}

// checkProcessRunning checks if a process is running.
func checkProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// On Windows FindProcess only succeeds for live processes.
	defer process.Release()
	return true
}

// signalProcess sends sig to the process.
func signalProcess(pid int, sig os.Signal) error {
	process, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	defer process.Release()
	if sig == os.Kill {
		return process.Kill()
	}
	return process.Signal(sig)
}
