// Package livereload reloads browser tabs when files under the served root
// change. A recursive fsnotify watcher feeds a debouncer; the debounced
// signal is broadcast to connected tabs over a websocket endpoint, and an
// injection middleware adds the client script to served HTML pages.
package livereload

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/bep/debounce"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/sov1n14/previewd/pkg/config"
	"github.com/sov1n14/previewd/pkg/logging"
)

// Endpoint paths mounted on the preview server.
const (
	EndpointPath = "/__livereload"
	ScriptPath   = "/__livereload.js"
)

// reloadMessage is the websocket payload that makes the client reload.
const reloadMessage = "reload"

// Reloader watches a directory tree and broadcasts reload events.
type Reloader struct {
	root      string
	cfg       config.LiveReloadConfig
	log       *slog.Logger
	hub       *hub
	watcher   *fsnotify.Watcher
	debounced func(func())
	done      chan struct{}
}

// New creates a Reloader for the given root directory. Logger may be nil.
func New(root string, cfg config.LiveReloadConfig, log *slog.Logger) *Reloader {
	if log == nil {
		log = logging.Nop()
	}
	debounceFor := time.Duration(cfg.DebounceMs) * time.Millisecond
	if debounceFor <= 0 {
		debounceFor = time.Duration(config.DefaultDebounceMs) * time.Millisecond
	}
	return &Reloader{
		root:      root,
		cfg:       cfg,
		log:       log,
		hub:       newHub(log),
		debounced: debounce.New(debounceFor),
		done:      make(chan struct{}),
	}
}

// Start begins watching the root tree on a background goroutine.
func (r *Reloader) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	r.watcher = watcher

	if err := r.watchTree(r.root); err != nil {
		watcher.Close()
		return err
	}

	go r.loop()
	return nil
}

// Stop stops the watcher and disconnects all clients.
func (r *Reloader) Stop() {
	if r.watcher == nil {
		return
	}
	r.watcher.Close()
	<-r.done
	r.hub.closeAll()
}

// ClientCount returns the number of connected tabs.
func (r *Reloader) ClientCount() int {
	return r.hub.count()
}

// watchTree registers the directory and all its subdirectories.
func (r *Reloader) watchTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if r.ignored(path) {
			return filepath.SkipDir
		}
		if err := r.watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (r *Reloader) loop() {
	defer close(r.done)
	for {
		select {
		case ev, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			r.handleEvent(ev)
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.log.Warn("watch error", "error", err)
		}
	}
}

func (r *Reloader) handleEvent(ev fsnotify.Event) {
	if r.ignored(ev.Name) {
		return
	}

	// New directories join the watch so changes inside them are seen.
	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := r.watchTree(ev.Name); err != nil {
				r.log.Warn("failed to watch new directory", "dir", ev.Name, "error", err)
			}
		}
	}

	r.log.Debug("file changed", "path", ev.Name, "op", ev.Op.String())
	r.debounced(func() {
		n := r.hub.broadcast(reloadMessage)
		r.log.Info("reload broadcast", "clients", n)
	})
}

// ignored reports whether a change at path is excluded by the ignore globs.
// Patterns are matched against the path relative to the root.
func (r *Reloader) ignored(path string) bool {
	rel, err := filepath.Rel(r.root, path)
	if err != nil || rel == "." {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range r.cfg.Ignore {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
