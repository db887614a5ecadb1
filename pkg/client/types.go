package client

import (
	"errors"
	"log/slog"
	"time"

	"github.com/lens-devtools/lens-go/pkg/cert"
	"github.com/lens-devtools/lens-go/pkg/log"
	"github.com/lens-devtools/lens-go/pkg/transport"
)

// Well-known desktop ports.
const (
	// DefaultSecurePort is the desktop's mutually authenticated port.
	DefaultSecurePort = 8088

	// DefaultInsecurePort is the desktop's bootstrap port.
	DefaultInsecurePort = 8089
)

// DefaultKeepAliveInterval is the default transport ping interval.
const DefaultKeepAliveInterval = 10 * time.Second

// DefaultExchangeTimeout bounds the certificate signing round trip.
const DefaultExchangeTimeout = 30 * time.Second

// Client errors.
var (
	ErrStopped       = errors.New("client stopped")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// State represents the client lifecycle state.
type State uint8

const (
	// StateIdle - client created but not started.
	StateIdle State = iota

	// StateRunning - client is running and reconnecting as needed.
	StateRunning

	// StateStopping - client is shutting down.
	StateStopping

	// StateStopped - client has stopped.
	StateStopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRunning:
		return "RUNNING"
	case StateStopping:
		return "STOPPING"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// DeviceIdentity identifies this agent to the desktop.
type DeviceIdentity struct {
	// OS is the operating system name (e.g. "linux", "android").
	OS string

	// Device is the device model.
	Device string

	// DeviceID is the stable device identifier, sent only on trusted
	// connections.
	DeviceID string

	// App is the application name, used as the certificate identity.
	App string
}

// ConnectionHandler receives trusted-connection lifecycle callbacks.
// Bootstrap connections never reach this handler. Callbacks run on the
// client's serialized execution context; implementations must not call
// back into the client synchronously.
type ConnectionHandler interface {
	// OnConnected fires when a trusted connection is established.
	OnConnected()

	// OnDisconnected fires when a trusted connection ends.
	OnDisconnected()
}

// MessageHandler receives inbound fire-and-forget JSON payloads.
type MessageHandler func(payload []byte)

// Config configures a Client.
type Config struct {
	// Identity identifies this agent to the desktop. Required.
	Identity DeviceIdentity

	// Host is the desktop's address. Required.
	Host string

	// SecurePort is the mutually authenticated port (default: 8088).
	SecurePort int

	// InsecurePort is the bootstrap port (default: 8089).
	InsecurePort int

	// PrivateAppDirectory is the application's private data directory;
	// credentials live in a subdirectory of it. Required unless Store
	// is set.
	PrivateAppDirectory string

	// Store overrides the credential store. If nil, a file store rooted
	// at PrivateAppDirectory is used.
	Store cert.Store

	// Dialer overrides the transport dialer. If nil, TCP is used.
	Dialer transport.Dialer

	// GenerateCSR overrides key pair and CSR generation. If nil, the
	// default ECDSA generator is used.
	GenerateCSR cert.Generator

	// RetryInterval is the delay between connection attempts
	// (default: 2s).
	RetryInterval time.Duration

	// KeepAliveInterval is the transport ping interval (default: 10s).
	// Negative disables keep-alive.
	KeepAliveInterval time.Duration

	// Logger is the optional logger for operational output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// Diagnostics is the optional structured event logger for frame,
	// step and state capture.
	Diagnostics log.Logger
}
