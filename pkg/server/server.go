// Package server implements the previewd static file server.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/sov1n14/previewd/pkg/config"
	"github.com/sov1n14/previewd/pkg/logging"
)

// shutdownTimeout bounds graceful shutdown in Stop.
const shutdownTimeout = 5 * time.Second

// Middleware wraps an http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Server serves a directory over HTTP. Request handling runs on a background
// goroutine; Start returns once the listener is bound or binding has failed,
// signaled through a one-shot readiness Signal.
type Server struct {
	cfg *config.Config
	log *slog.Logger

	httpServer *http.Server
	listener   net.Listener
	ready      *Signal

	middlewares []Middleware
	routes      map[string]http.Handler

	mu        sync.RWMutex
	running   bool
	startTime time.Time
}

// Option is a functional option for configuring a Server.
type Option func(*Server)

// WithLogger sets the operational logger for the server.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMiddleware adds handler middleware, applied outermost-first in the
// order given.
func WithMiddleware(mw ...Middleware) Option {
	return func(s *Server) {
		s.middlewares = append(s.middlewares, mw...)
	}
}

// WithRoute mounts an extra handler on the given mux pattern, ahead of the
// file handler. Used for the live-reload endpoints.
func WithRoute(pattern string, h http.Handler) Option {
	return func(s *Server) {
		s.routes[pattern] = h
	}
}

// New creates a Server for the given configuration.
func New(cfg *config.Config, opts ...Option) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := &Server{
		cfg:    cfg,
		log:    logging.Nop(),
		ready:  NewSignal(),
		routes: make(map[string]http.Handler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start binds the listener and begins serving on a background goroutine.
// It blocks until the listener is either bound or has failed to bind and
// returns the bind error, if any. The readiness signal resolves in both
// cases so no waiter ever hangs.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	if s.ready.Resolved() {
		// Restart after Stop: a resolved signal never resets, so a fresh
		// one is issued for this start.
		s.ready = NewSignal()
	}
	s.httpServer = &http.Server{Handler: s.buildHandler()}
	ready := s.ready
	s.mu.Unlock()

	go s.run(ready)

	if err := ready.Wait(context.Background()); err != nil {
		return fmt.Errorf("bind %s: %w", s.addr(), err)
	}

	s.log.Info("server started", "url", s.BaseURL(), "root", s.cfg.Root)
	return nil
}

func (s *Server) run(ready *Signal) {
	ln, err := net.Listen("tcp", s.addr())
	if err != nil {
		s.log.Error("failed to bind listener", "addr", s.addr(), "error", err)
		ready.Resolve(err)
		return
	}

	s.mu.Lock()
	s.listener = ln
	s.running = true
	s.startTime = time.Now()
	srv := s.httpServer
	s.mu.Unlock()

	ready.Resolve(nil)

	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		s.log.Error("http server error", "error", err)
	}
}

// Stop gracefully shuts the server down and releases the socket.
// It is a no-op if the server never started.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.log.Info("stopping server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.running = false
	return nil
}

// Ready returns the readiness signal. It resolves exactly once, when the
// listener is bound (nil) or binding has failed (the bind error).
func (s *Server) Ready() *Signal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// IsRunning reports whether the server is accepting requests.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Uptime returns how long the server has been running.
func (s *Server) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return 0
	}
	return time.Since(s.startTime)
}

// Port returns the bound port. For a config port of 0 this is the
// kernel-assigned ephemeral port. Returns 0 before the listener is bound.
func (s *Server) Port() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return 0
	}
	if tcpAddr, ok := s.listener.Addr().(*net.TCPAddr); ok {
		return tcpAddr.Port
	}
	return s.cfg.Port
}

// BaseURL returns the URL clients should use to reach the server.
func (s *Server) BaseURL() string {
	port := s.Port()
	if port == 0 {
		port = s.cfg.Port
	}
	return "http://" + net.JoinHostPort(s.cfg.Host, strconv.Itoa(port))
}

func (s *Server) addr() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

func (s *Server) buildHandler() http.Handler {
	var files http.Handler = http.FileServer(http.Dir(s.cfg.Root))
	if !s.cfg.DirListing {
		files = noListing(s.cfg.Root, files)
	}

	mux := http.NewServeMux()
	for pattern, h := range s.routes {
		mux.Handle(pattern, h)
	}
	mux.Handle("/", files)

	handler := http.Handler(mux)
	for i := len(s.middlewares) - 1; i >= 0; i-- {
		handler = s.middlewares[i](handler)
	}
	return handler
}
