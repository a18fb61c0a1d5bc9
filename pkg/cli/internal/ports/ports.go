// Package ports provides port availability checking.
package ports

import (
	"net"
	"strconv"
)

// IsAvailable checks if a port is available for binding on the given host.
func IsAvailable(host string, port int) bool {
	return Check(host, port) == nil
}

// Check binds and immediately releases the port, returning the bind error
// if the port is unavailable.
func Check(host string, port int) error {
	ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return err
	}
	_ = ln.Close()
	return nil
}
