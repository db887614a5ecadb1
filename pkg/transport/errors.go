package transport

import (
	"errors"
	"fmt"
	"net"
	"syscall"
)

// Transport errors.
var (
	// ErrConnectionClosed indicates an operation on a closed connection.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrPeerUnavailable indicates the desktop is not reachable. Test
	// dialers return it directly; real dial failures are recognized by
	// IsPeerUnavailable through their syscall errors.
	ErrPeerUnavailable = errors.New("peer unavailable")
)

// RemoteError is an error response received from the desktop for a
// request. Payload carries the desktop's error text verbatim.
type RemoteError struct {
	Payload string
}

// Error returns the error text.
func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote error: %s", e.Payload)
}

// IsPeerUnavailable reports whether err represents the benign "desktop
// not running" condition: connection refused, host or network
// unreachable, or a dial timeout. These failures are expected whenever
// the desktop application is closed and are excluded from failure
// counting.
func IsPeerUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrPeerUnavailable) {
		return true
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNREFUSED, syscall.EHOSTUNREACH, syscall.ENETUNREACH, syscall.ENETDOWN:
			return true
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return false
}
