package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIDFileRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "previewd.pid")
	info := &PIDFile{
		PID:       os.Getpid(),
		StartTime: time.Now().UTC(),
		Version:   "test",
		Host:      "localhost",
		Port:      8000,
		Root:      "/srv/www",
		URL:       "http://localhost:8000",
	}

	// Parent directory is created as needed.
	require.NoError(t, WritePIDFile(path, info))

	got, err := ReadPIDFile(path)
	require.NoError(t, err)
	assert.Equal(t, info.PID, got.PID)
	assert.Equal(t, info.URL, got.URL)
	assert.Equal(t, info.Root, got.Root)

	// No temp file left behind from the atomic write.
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestReadPIDFileMissing(t *testing.T) {
	t.Parallel()

	_, err := ReadPIDFile(filepath.Join(t.TempDir(), "absent.pid"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestReadPIDFileCorrupt(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "previewd.pid")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	_, err := ReadPIDFile(path)
	require.Error(t, err)
}

func TestRemovePIDFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "previewd.pid")
	require.NoError(t, WritePIDFile(path, &PIDFile{PID: 1}))
	require.NoError(t, RemovePIDFile(path))

	// Removing twice is fine.
	require.NoError(t, RemovePIDFile(path))
}

func TestPIDFileIsRunning(t *testing.T) {
	t.Parallel()

	// Our own process is certainly running.
	self := &PIDFile{PID: os.Getpid()}
	assert.True(t, self.IsRunning())

	// A PID far outside the range of live processes is not.
	gone := &PIDFile{PID: 1 << 30}
	assert.False(t, gone.IsRunning())
}

func TestWaitForExit(t *testing.T) {
	t.Parallel()

	// A dead PID returns promptly.
	assert.True(t, waitForExit(1<<30, time.Second))

	// A live PID times out.
	start := time.Now()
	assert.False(t, waitForExit(os.Getpid(), 300*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 300*time.Millisecond)
}
