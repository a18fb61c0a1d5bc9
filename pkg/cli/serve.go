package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sov1n14/previewd/pkg/browser"
	"github.com/sov1n14/previewd/pkg/config"
	"github.com/sov1n14/previewd/pkg/livereload"
	"github.com/sov1n14/previewd/pkg/logging"
	"github.com/sov1n14/previewd/pkg/server"
)

// serveFlags holds the flag values for serve (and the bare previewd run).
type serveFlags struct {
	host        string
	port        int
	root        string
	configFile  string
	noBrowser   bool
	noReload    bool
	noAccessLog bool
	noListing   bool
	logLevel    string
	logFormat   string
	logFile     string
	pidFile     string
}

var serveFlagVals serveFlags

var serveCmd = &cobra.Command{
	Use:   "serve [dir]",
	Short: "Serve a directory and open it in Chrome",
	Long: `Start the preview server for a directory (default: the working
directory), open a Chrome window pointed at it, and reload the page when
files change. Ctrl+C stops the server; the browser window is deliberately
left open.`,
	Example: `  # Serve the working directory on the default port
  previewd serve

  # Serve ./dist on port 3000 without opening a browser
  previewd serve dist --port 3000 --no-browser

  # Serve with a config file and JSON logs
  previewd serve --config previewd.yaml --log-format json`,
	Args: cobra.MaximumNArgs(1),
}

func init() {
	// Assigned here rather than in the composite literal to avoid an
	// initialization cycle (serveCmd -> runServe -> serveFlagChanged -> serveCmd).
	serveCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runServe(args)
	}
	rootCmd.AddCommand(serveCmd)
	addServeFlags(serveCmd)
	// The bare `previewd` run is an alias for serve, so it takes the same
	// flags, bound to the same values.
	addServeFlags(rootCmd)
	rootCmd.Args = cobra.MaximumNArgs(1)
}

func addServeFlags(cmd *cobra.Command) {
	f := &serveFlagVals
	cmd.Flags().StringVar(&f.host, "host", config.DefaultHost, "Interface to bind to")
	cmd.Flags().IntVarP(&f.port, "port", "p", config.DefaultPort, "Port to listen on (0 = ephemeral)")
	cmd.Flags().StringVarP(&f.root, "root", "r", "", "Directory to serve (overrides positional arg)")
	cmd.Flags().StringVarP(&f.configFile, "config", "c", "", "Path to previewd.yaml")
	cmd.Flags().BoolVar(&f.noBrowser, "no-browser", false, "Do not open a browser")
	cmd.Flags().BoolVar(&f.noReload, "no-reload", false, "Disable live reload")
	cmd.Flags().BoolVar(&f.noAccessLog, "no-access-log", false, "Disable per-request logging")
	cmd.Flags().BoolVar(&f.noListing, "no-listing", false, "Disable directory listing pages")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&f.logFormat, "log-format", "text", "Log format (text, json)")
	cmd.Flags().StringVar(&f.logFile, "log-file", "", "Also write logs to this file")
	cmd.Flags().StringVar(&f.pidFile, "pid-file", DefaultPIDPath(), "Path to PID file")
}

// serveFlagChanged reports whether the user set the flag explicitly, on
// either the serve command or the bare root run.
func serveFlagChanged(name string) bool {
	return serveCmd.Flags().Changed(name) || rootCmd.Flags().Changed(name)
}

// resolveServeConfig builds the effective config: defaults, then config
// file, then environment, then explicit flags.
func resolveServeConfig(args []string) (*config.Config, error) {
	path := serveFlagVals.configFile
	if path == "" {
		path = config.FindDefault()
	}

	var cfg *config.Config
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.DefaultConfig()
	}

	cfg.ApplyEnv()

	if serveFlagChanged("host") {
		cfg.Host = serveFlagVals.host
	}
	if serveFlagChanged("port") {
		cfg.Port = serveFlagVals.port
	}
	if len(args) == 1 {
		cfg.Root = args[0]
	}
	if serveFlagChanged("root") {
		cfg.Root = serveFlagVals.root
	}
	if serveFlagVals.noBrowser {
		cfg.Browser.Disabled = true
	}
	if serveFlagVals.noReload {
		cfg.LiveReload.Disabled = true
	}
	if serveFlagVals.noAccessLog {
		cfg.AccessLog = false
	}
	if serveFlagVals.noListing {
		cfg.DirListing = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServe(args []string) error {
	cfg, err := resolveServeConfig(args)
	if err != nil {
		return err
	}

	log, closer, err := logging.New(logging.Config{
		Level:  logging.ParseLevel(serveFlagVals.logLevel),
		Format: logging.ParseFormat(serveFlagVals.logFormat),
		File:   serveFlagVals.logFile,
	})
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runPreview(ctx, cfg, log, serveFlagVals.pidFile)
	// Interrupt-driven shutdown always exits clean.
	return nil
}

// runPreview is the coordinator: start server, wait ready, open browser
// best-effort, block until ctx is cancelled, then stop the server. Neither
// a failed bind nor a failed browser launch aborts the run.
func runPreview(ctx context.Context, cfg *config.Config, log *slog.Logger, pidPath string) {
	opts := []server.Option{server.WithLogger(log.With("component", "server"))}

	var reloader *livereload.Reloader
	if !cfg.LiveReload.Disabled {
		reloader = livereload.New(cfg.Root, cfg.LiveReload, log.With("component", "livereload"))
		opts = append(opts,
			server.WithRoute(livereload.EndpointPath, reloader.Handler()),
			server.WithRoute(livereload.ScriptPath, reloader.ScriptHandler()),
			server.WithMiddleware(livereload.InjectMiddleware()),
		)
	}
	if cfg.AccessLog {
		opts = append(opts, server.WithMiddleware(server.AccessLog(log.With("component", "http"))))
	}

	srv := server.New(cfg, opts...)
	if err := srv.Start(); err != nil {
		// Not fatal: previewd still reaches its interrupt wait so the
		// operator sees the error instead of a dead prompt.
		log.Error("server failed to start, continuing without a working preview", "error", err)
		reloader = nil
	} else {
		if reloader != nil {
			if err := reloader.Start(); err != nil {
				log.Warn("live reload unavailable", "error", err)
				reloader = nil
			}
		}
		if pidPath != "" {
			writeServePIDFile(pidPath, cfg, srv, log)
			defer func() {
				if err := RemovePIDFile(pidPath); err != nil {
					log.Warn("failed to remove PID file", "error", err)
				}
			}()
		}
		if sess := launchBrowser(cfg, srv.BaseURL(), log); sess != nil {
			// Only non-detached sessions are torn down with the server.
			defer sess.Close()
		}
	}

	log.Info("press Ctrl+C to stop")
	<-ctx.Done()
	log.Info("interrupt received, shutting down")

	if reloader != nil {
		reloader.Stop()
	}
	if err := srv.Stop(); err != nil {
		log.Error("server shutdown failed", "error", err)
	}
	log.Info("previewd stopped")
}

// launchBrowser opens the detached Chrome window. Failures are logged and
// swallowed: previewd keeps serving without a browser.
func launchBrowser(cfg *config.Config, url string, log *slog.Logger) *browser.Session {
	if cfg.Browser.Disabled {
		return nil
	}

	sess, err := browser.Launch(context.Background(), url, cfg.Browser)
	if err != nil {
		log.Error("browser launch failed, continuing without a browser", "error", err)
		return nil
	}

	log.Info("browser opened", "url", url)
	if cfg.Browser.KeepOpen {
		// Detached windows survive previewd's exit.
		sess.Detach()
		return nil
	}
	return sess
}

func writeServePIDFile(path string, cfg *config.Config, srv *server.Server, log *slog.Logger) {
	info := &PIDFile{
		PID:       os.Getpid(),
		StartTime: time.Now(),
		Version:   Version,
		Host:      cfg.Host,
		Port:      srv.Port(),
		Root:      cfg.Root,
		URL:       srv.BaseURL(),
	}
	if err := WritePIDFile(path, info); err != nil {
		log.Warn("failed to write PID file", "path", path, "error", err)
	}
}
