package server

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sov1n14/previewd/pkg/config"
)

// testConfig returns a config bound to an ephemeral port with the given root.
func testConfig(t *testing.T, root string) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	cfg.Root = root
	return cfg
}

// writeFile creates a file under dir with the given content.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// freePort reserves a port by binding and releasing it.
func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func TestServerServesFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "index.html", "<h1>hi</h1>")
	writeFile(t, root, "assets/app.css", "body { color: red }")

	srv := New(testConfig(t, root))
	require.NoError(t, srv.Start())
	defer srv.Stop()

	require.True(t, srv.IsRunning())
	require.True(t, srv.Ready().Resolved())

	t.Run("serves index.html with exact body", func(t *testing.T) {
		resp, err := http.Get(srv.BaseURL() + "/index.html")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, "<h1>hi</h1>", string(body))
	})

	t.Run("serves nested files byte-identical", func(t *testing.T) {
		resp, err := http.Get(srv.BaseURL() + "/assets/app.css")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, "body { color: red }", string(body))
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/css")
	})

	t.Run("missing file returns 404", func(t *testing.T) {
		resp, err := http.Get(srv.BaseURL() + "/nope.html")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestServerReadyBeforeStartReturns(t *testing.T) {
	t.Parallel()

	// Start must never return success before the listener accepts
	// connections. Exercised repeatedly to shake out ordering races.
	for i := 0; i < 20; i++ {
		root := t.TempDir()
		writeFile(t, root, "index.html", "<h1>hi</h1>")

		srv := New(testConfig(t, root))
		require.NoError(t, srv.Start())

		resp, err := http.Get(srv.BaseURL() + "/index.html")
		require.NoError(t, err, "iteration %d", i)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		require.NoError(t, srv.Stop())
	}
}

func TestServerStopReleasesPort(t *testing.T) {
	t.Parallel()

	port := freePort(t)
	root := t.TempDir()
	writeFile(t, root, "index.html", "<h1>hi</h1>")

	cfg := testConfig(t, root)
	cfg.Port = port

	first := New(cfg)
	require.NoError(t, first.Start())
	require.NoError(t, first.Stop())
	assert.False(t, first.IsRunning())

	// A new server on the same port must bind cleanly.
	second := New(cfg)
	require.NoError(t, second.Start())
	defer second.Stop()

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/index.html", port))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServerRestartAfterStop(t *testing.T) {
	t.Parallel()

	port := freePort(t)
	root := t.TempDir()
	writeFile(t, root, "index.html", "<h1>hi</h1>")

	cfg := testConfig(t, root)
	cfg.Port = port

	srv := New(cfg)
	require.NoError(t, srv.Start())
	require.NoError(t, srv.Stop())

	// Same instance starts again with a fresh readiness signal.
	require.NoError(t, srv.Start())
	defer srv.Stop()
	assert.True(t, srv.IsRunning())
}

func TestServerBindFailure(t *testing.T) {
	t.Parallel()

	// Occupy a port, then try to bind the server to it.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	cfg := testConfig(t, t.TempDir())
	cfg.Port = port

	srv := New(cfg)
	err = srv.Start()
	require.Error(t, err)

	// The readiness signal resolved with the failure: no waiter hangs.
	assert.True(t, srv.Ready().Resolved())
	assert.Error(t, srv.Ready().Err())
	assert.False(t, srv.IsRunning())

	// Stop after a failed start is a safe no-op.
	assert.NoError(t, srv.Stop())
}

func TestServerAlreadyRunning(t *testing.T) {
	t.Parallel()

	srv := New(testConfig(t, t.TempDir()))
	require.NoError(t, srv.Start())
	defer srv.Stop()

	err := srv.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")
}

func TestServerDirListing(t *testing.T) {
	t.Parallel()

	t.Run("enabled serves listing page", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeFile(t, root, "docs/readme.txt", "hello")

		srv := New(testConfig(t, root))
		require.NoError(t, srv.Start())
		defer srv.Stop()

		resp, err := http.Get(srv.BaseURL() + "/docs/")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Contains(t, string(body), "readme.txt")
	})

	t.Run("disabled returns 404 for bare directories", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeFile(t, root, "docs/readme.txt", "hello")

		cfg := testConfig(t, root)
		cfg.DirListing = false
		srv := New(cfg)
		require.NoError(t, srv.Start())
		defer srv.Stop()

		resp, err := http.Get(srv.BaseURL() + "/docs/")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("disabled still serves directories with index.html", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeFile(t, root, "index.html", "<h1>hi</h1>")

		cfg := testConfig(t, root)
		cfg.DirListing = false
		srv := New(cfg)
		require.NoError(t, srv.Start())
		defer srv.Stop()

		resp, err := http.Get(srv.BaseURL() + "/")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "<h1>hi</h1>", string(body))
	})
}

func TestServerExtraRoutes(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "index.html", "<h1>hi</h1>")

	srv := New(testConfig(t, root),
		WithRoute("/__health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})),
	)
	require.NoError(t, srv.Start())
	defer srv.Stop()

	resp, err := http.Get(srv.BaseURL() + "/__health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// File routes still work alongside.
	resp, err = http.Get(srv.BaseURL() + "/index.html")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServerUptime(t *testing.T) {
	t.Parallel()

	srv := New(testConfig(t, t.TempDir()))
	assert.Equal(t, time.Duration(0), srv.Uptime())

	require.NoError(t, srv.Start())
	defer srv.Stop()

	time.Sleep(10 * time.Millisecond)
	assert.Greater(t, srv.Uptime(), time.Duration(0))
}

func TestServerBaseURLEphemeralPort(t *testing.T) {
	t.Parallel()

	srv := New(testConfig(t, t.TempDir()))
	require.NoError(t, srv.Start())
	defer srv.Stop()

	port := srv.Port()
	assert.Greater(t, port, 0)
	assert.Equal(t, fmt.Sprintf("http://127.0.0.1:%d", port), srv.BaseURL())
}
