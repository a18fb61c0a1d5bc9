package ports

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAvailable(t *testing.T) {
	t.Parallel()

	// Reserve a port, release it, and confirm it is seen as available.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	assert.True(t, IsAvailable("127.0.0.1", port))

	// Occupy it and confirm the check fails.
	ln, err = net.Listen("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer ln.Close()

	assert.False(t, IsAvailable("127.0.0.1", port))
	assert.Error(t, Check("127.0.0.1", port))
}
