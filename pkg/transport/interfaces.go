package transport

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/lens-devtools/lens-go/pkg/log"
)

// Conn is a live connection to the desktop.
// Implemented by ClientConn.
type Conn interface {
	// FireAndForget sends an application payload without expecting a
	// response.
	FireAndForget(payload []byte) error

	// RequestResponse sends an application payload and waits for the
	// single response. An error response from the desktop is returned
	// as a *RemoteError.
	RequestResponse(ctx context.Context, payload []byte) ([]byte, error)

	// Disconnect closes the connection. The disconnect callback fires
	// exactly once, whether the close was local or remote.
	Disconnect() error
}

// ConnectionEvents receives connection lifecycle callbacks. Callbacks
// are invoked from transport goroutines; implementations that own
// serialized state must repost onto their own execution context.
// A remote close and a transport error both surface as OnDisconnected.
type ConnectionEvents interface {
	// OnConnected fires once the connection is established and the
	// setup payload has been sent.
	OnConnected()

	// OnDisconnected fires exactly once when the connection ends.
	// reason is nil for an orderly local or remote close.
	OnDisconnected(reason error)
}

// Dialer establishes connections to the desktop.
// Implemented by TCPDialer.
type Dialer interface {
	// Dial connects to the configured address, performs the TLS
	// handshake when a TLS configuration is present, and sends the
	// setup payload.
	Dial(ctx context.Context, config DialConfig) (Conn, error)
}

// DialConfig describes a single connection attempt.
type DialConfig struct {
	// Address is the host:port of the desktop endpoint.
	Address string

	// TLS is the TLS configuration for the connection. Nil dials plain
	// TCP (bootstrap connections carry no credentials to present).
	TLS *tls.Config

	// Setup is the JSON setup payload sent as the first frame.
	Setup []byte

	// KeepAliveInterval is the ping interval. Zero disables keep-alive.
	KeepAliveInterval time.Duration

	// Events receives lifecycle callbacks. Required.
	Events ConnectionEvents

	// OnMessage receives inbound fire-and-forget payloads. Nil discards
	// them.
	OnMessage func(payload []byte)

	// Diagnostics captures frame and error events. Nil disables capture.
	Diagnostics log.Logger
}

// Compile-time interface satisfaction checks.
var (
	_ Conn   = (*ClientConn)(nil)
	_ Dialer = (*TCPDialer)(nil)
)
