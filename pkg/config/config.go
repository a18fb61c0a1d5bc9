// Package config provides configuration types and loading for previewd.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/bmatcuk/doublestar/v4"
)

// Defaults for the preview server.
const (
	DefaultHost = "localhost"
	DefaultPort = 8000
	DefaultRoot = "."

	// DefaultDebounceMs is how long file-change bursts are coalesced
	// before a reload is broadcast.
	DefaultDebounceMs = 250
)

// Config is the top-level previewd configuration. It is passed explicitly
// to constructors; there is no process-wide configuration state.
type Config struct {
	// Host is the interface the server binds to.
	Host string `yaml:"host" json:"host"`
	// Port is the TCP port to listen on. 0 selects an ephemeral port.
	Port int `yaml:"port" json:"port"`
	// Root is the directory served as the document root.
	Root string `yaml:"root" json:"root"`
	// DirListing enables directory index pages for paths without an index.html.
	DirListing bool `yaml:"dirListing" json:"dirListing"`
	// AccessLog enables per-request logging.
	AccessLog bool `yaml:"accessLog" json:"accessLog"`

	Browser    BrowserConfig    `yaml:"browser" json:"browser"`
	LiveReload LiveReloadConfig `yaml:"liveReload" json:"liveReload"`
}

// BrowserConfig controls the Chrome launch performed after the server is up.
type BrowserConfig struct {
	// Disabled skips the browser launch entirely.
	Disabled bool `yaml:"disabled" json:"disabled"`
	// ExecPath overrides Chrome binary discovery.
	ExecPath string `yaml:"execPath,omitempty" json:"execPath,omitempty"`
	// Headless runs the browser without a window. Off by default: the whole
	// point of previewd is a visible page.
	Headless bool `yaml:"headless" json:"headless"`
	// StartMaximized opens the window maximized.
	StartMaximized bool `yaml:"startMaximized" json:"startMaximized"`
	// KeepOpen leaves the browser running after previewd exits.
	KeepOpen bool `yaml:"keepOpen" json:"keepOpen"`
}

// LiveReloadConfig controls file watching and browser reload.
type LiveReloadConfig struct {
	// Disabled turns live reload off.
	Disabled bool `yaml:"disabled" json:"disabled"`
	// DebounceMs is the quiet period after a change before reloading.
	DebounceMs int `yaml:"debounceMs" json:"debounceMs"`
	// Ignore is a list of doublestar glob patterns (relative to the root)
	// whose changes do not trigger a reload.
	Ignore []string `yaml:"ignore,omitempty" json:"ignore,omitempty"`
}

// DefaultConfig returns the default previewd configuration.
func DefaultConfig() *Config {
	return &Config{
		Host:       DefaultHost,
		Port:       DefaultPort,
		Root:       DefaultRoot,
		DirListing: true,
		AccessLog:  true,
		Browser: BrowserConfig{
			StartMaximized: true,
			KeepOpen:       true,
		},
		LiveReload: LiveReloadConfig{
			DebounceMs: DefaultDebounceMs,
			Ignore:     []string{".git/**", "node_modules/**", "**/*.swp", "**/*~"},
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be 0-65535", c.Port)
	}
	if c.Host == "" {
		return fmt.Errorf("host must not be empty")
	}
	info, err := os.Stat(c.Root)
	if err != nil {
		return fmt.Errorf("root directory %q: %w", c.Root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root %q is not a directory", c.Root)
	}
	for _, pattern := range c.LiveReload.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid ignore pattern %q", pattern)
		}
	}
	if c.LiveReload.DebounceMs < 0 {
		return fmt.Errorf("debounceMs must not be negative")
	}
	return nil
}

// BaseURL returns the http URL of the configured bind address.
// For port 0 the real URL is only known after the listener is bound;
// use Server.BaseURL in that case.
func (c *Config) BaseURL() string {
	return "http://" + net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ApplyEnv overlays PREVIEWD_* environment variables onto the config.
// Env values win over file values but lose to explicit flags.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("PREVIEWD_HOST"); v != "" {
		c.Host = v
	}
	if v := os.Getenv("PREVIEWD_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := os.Getenv("PREVIEWD_ROOT"); v != "" {
		c.Root = v
	}
}
