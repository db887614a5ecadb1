package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/lens-devtools/lens-go/pkg/cert"
	"github.com/lens-devtools/lens-go/pkg/connection"
	"github.com/lens-devtools/lens-go/pkg/log"
	"github.com/lens-devtools/lens-go/pkg/transport"
	"github.com/lens-devtools/lens-go/pkg/wire"
)

// Client maintains the agent's connection to the desktop. All mutable
// connection state is owned by the connection loop; exported methods
// post work onto it and never touch the state directly.
type Client struct {
	config      Config
	id          string
	loop        *connection.Loop
	policy      *connection.ReconnectPolicy
	store       cert.Store
	dialer      transport.Dialer
	generateCSR cert.Generator
	logger      *slog.Logger
	diag        log.Logger
	steps       *log.StepTracker

	lifecycle atomic.Int32
	connected atomic.Bool

	// Loop-affine state. Only tasks running on the loop may touch these.
	conn       transport.Conn
	isOpen     bool
	trusted    bool
	failures   uint32
	active     *connEvents
	retryTimer *time.Timer
	handler    ConnectionHandler
	onMessage  MessageHandler
}

// NewClient creates a client. The connection loop starts immediately
// but no connection is attempted until Start.
func NewClient(config Config) (*Client, error) {
	if config.Identity.App == "" {
		return nil, fmt.Errorf("%w: identity app is required", ErrInvalidConfig)
	}
	if config.Host == "" {
		return nil, fmt.Errorf("%w: host is required", ErrInvalidConfig)
	}
	if config.Store == nil && config.PrivateAppDirectory == "" {
		return nil, fmt.Errorf("%w: private app directory is required", ErrInvalidConfig)
	}

	if config.SecurePort == 0 {
		config.SecurePort = DefaultSecurePort
	}
	if config.InsecurePort == 0 {
		config.InsecurePort = DefaultInsecurePort
	}
	if config.KeepAliveInterval == 0 {
		config.KeepAliveInterval = DefaultKeepAliveInterval
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.Diagnostics == nil {
		config.Diagnostics = log.NoopLogger{}
	}

	store := config.Store
	if store == nil {
		store = cert.NewFileStore(config.PrivateAppDirectory)
	}
	dialer := config.Dialer
	if dialer == nil {
		dialer = &transport.TCPDialer{}
	}
	generate := config.GenerateCSR
	if generate == nil {
		generate = cert.GenerateSigningRequest
	}

	loop := connection.NewLoop()
	id := uuid.New().String()

	c := &Client{
		config:      config,
		id:          id,
		loop:        loop,
		policy:      connection.NewReconnectPolicyWithInterval(loop, config.RetryInterval),
		store:       store,
		dialer:      dialer,
		generateCSR: generate,
		logger:      config.Logger.With("client", id),
		diag:        config.Diagnostics,
		steps:       log.NewStepTracker(config.Diagnostics, id),
	}
	c.lifecycle.Store(int32(StateIdle))
	return c, nil
}

// SetConnectionHandler registers the trusted-connection lifecycle
// handler. Must be called before Start.
func (c *Client) SetConnectionHandler(handler ConnectionHandler) {
	_ = c.loop.Post(func() { c.handler = handler })
}

// SetMessageHandler registers the inbound message handler. Must be
// called before Start.
func (c *Client) SetMessageHandler(handler MessageHandler) {
	_ = c.loop.Post(func() { c.onMessage = handler })
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	return State(c.lifecycle.Load())
}

// IsConnected reports whether a trusted connection is currently open.
// Safe to call from any goroutine.
func (c *Client) IsConnected() bool {
	return c.connected.Load()
}

// Start begins connecting. Idempotent: calling Start while already
// connected attempts nothing new.
func (c *Client) Start() error {
	switch c.State() {
	case StateStopping, StateStopped:
		return ErrStopped
	}
	c.lifecycle.CompareAndSwap(int32(StateIdle), int32(StateRunning))

	return c.loop.Post(c.startAttempt)
}

// Stop tears down the connection and disables further reconnection.
// Safe to call from any goroutine; its effect is observable after the
// next scheduled slot on the connection loop.
func (c *Client) Stop() {
	if !c.lifecycle.CompareAndSwap(int32(StateRunning), int32(StateStopping)) &&
		!c.lifecycle.CompareAndSwap(int32(StateIdle), int32(StateStopping)) {
		return
	}

	_ = c.loop.Post(func() {
		if c.retryTimer != nil {
			c.retryTimer.Stop()
			c.retryTimer = nil
		}
		if c.conn != nil {
			conn := c.conn
			wasTrusted := c.trusted
			c.clearConnection("stop")
			// Stale after clearConnection; its disconnect event is ignored
			_ = conn.Disconnect()
			if wasTrusted && c.handler != nil {
				c.handler.OnDisconnected()
			}
		}
		c.lifecycle.Store(int32(StateStopped))
	})

	go c.loop.Stop()
}

// SendMessage enqueues a fire-and-forget send. Silently dropped when no
// trusted connection exists; delivery is best-effort on a live channel.
func (c *Client) SendMessage(payload []byte) {
	_ = c.loop.Post(func() {
		if c.conn == nil || !c.isOpen || !c.trusted {
			c.logger.Debug("dropping message, no trusted connection")
			return
		}
		if err := c.conn.FireAndForget(payload); err != nil {
			c.logger.Warn("send failed", "error", err)
		}
	})
}

// startAttempt runs one connection attempt. Loop-affine.
func (c *Client) startAttempt() {
	if !c.loop.InLoop() {
		// Programming error, not a runtime fault: abandon with no
		// partial mutation
		c.logger.Error("connection attempt off the connection loop, aborting")
		c.diag.Log(log.NewError(c.id, "affinity", "connection attempt off the connection loop", false))
		return
	}
	if c.State() != StateRunning {
		return
	}
	if c.isOpen {
		c.logger.Debug("already connected, skipping attempt")
		return
	}

	// Credentials are read fresh on every attempt; the desktop may have
	// written them since the last one
	if c.policy.ShouldBootstrap(c.store.IsUsable(), c.failures) {
		c.runBootstrap()
	} else {
		c.connectTrusted()
	}
}

// connectTrusted attempts a mutually authenticated connection to the
// secure port. Loop-affine.
func (c *Client) connectTrusted() {
	step := c.steps.Start("connect secure")

	tlsConf, err := transport.NewTrustedTLSConfig(&transport.TrustedTLSConfig{
		CACert:     c.store.Read(cert.CACertFileName),
		ClientCert: c.store.Read(cert.ClientCertFileName),
		PrivateKey: c.store.Read(cert.PrivateKeyFileName),
		ServerName: c.config.Host,
	})
	if err != nil {
		c.attemptFailed(step, "tls config", err)
		return
	}

	setup, err := json.Marshal(wire.SecureSetup{
		OS:       c.config.Identity.OS,
		Device:   c.config.Identity.Device,
		DeviceID: c.config.Identity.DeviceID,
		App:      c.config.Identity.App,
	})
	if err != nil {
		c.attemptFailed(step, "setup payload", err)
		return
	}

	ev := c.newAttempt(true)
	conn, err := c.dialer.Dial(context.Background(), transport.DialConfig{
		Address:           c.addr(c.config.SecurePort),
		TLS:               tlsConf,
		Setup:             setup,
		KeepAliveInterval: c.keepAliveInterval(),
		Events:            ev,
		OnMessage:         c.dispatchMessage,
		Diagnostics:       c.diag,
	})
	if err != nil {
		c.active = nil
		c.attemptFailed(step, "connect secure", err)
		return
	}

	c.conn = conn
	step.Complete()
}

// handleConnected processes the transport's connected event. Loop-affine.
func (c *Client) handleConnected(ev *connEvents) {
	if ev != c.active {
		return
	}

	c.isOpen = true
	c.diag.Log(log.NewStateChange(c.id, "connecting", "connected", ""))

	if ev.trusted {
		c.trusted = true
		c.failures = 0
		c.connected.Store(true)
		c.logger.Info("connected to desktop", "address", c.addr(c.config.SecurePort))
		if c.handler != nil {
			c.handler.OnConnected()
		}
	}
}

// handleDisconnected processes the transport's disconnected event.
// Loop-affine.
func (c *Client) handleDisconnected(ev *connEvents, reason error) {
	if ev != c.active {
		// Stale event from a replaced or explicitly stopped connection
		return
	}
	if !c.isOpen {
		return
	}

	wasTrusted := c.trusted
	c.clearConnection(reasonText(reason))

	if reason != nil {
		c.logger.Warn("disconnected from desktop", "reason", reason)
	} else {
		c.logger.Info("disconnected from desktop")
	}

	if wasTrusted && c.handler != nil {
		c.handler.OnDisconnected()
	}

	if c.State() == StateRunning {
		c.scheduleRetry()
	}
}

// clearConnection resets connection state. Loop-affine.
func (c *Client) clearConnection(reason string) {
	c.diag.Log(log.NewStateChange(c.id, "connected", "disconnected", reason))
	c.conn = nil
	c.active = nil
	c.isOpen = false
	c.trusted = false
	c.connected.Store(false)
}

// attemptFailed records a failed connection attempt and schedules the
// next one. Benign failures (desktop not running) are not counted.
// Loop-affine.
func (c *Client) attemptFailed(step *log.Step, context string, err error) {
	benign := transport.IsPeerUnavailable(err)
	if benign {
		c.logger.Debug("desktop unavailable", "context", context)
	} else {
		c.failures++
		c.logger.Warn("connection attempt failed", "context", context, "error", err, "failures", c.failures)
	}

	step.Fail(err.Error())
	c.diag.Log(log.NewError(c.id, context, err.Error(), benign))
	c.scheduleRetry()
}

// scheduleRetry arms the retry timer. Loop-affine.
func (c *Client) scheduleRetry() {
	if c.State() != StateRunning {
		return
	}
	c.retryTimer = c.policy.ScheduleRetry(c.startAttempt)
}

func (c *Client) newAttempt(trusted bool) *connEvents {
	ev := &connEvents{client: c, trusted: trusted}
	c.active = ev
	return ev
}

func (c *Client) addr(port int) string {
	return net.JoinHostPort(c.config.Host, strconv.Itoa(port))
}

func (c *Client) keepAliveInterval() time.Duration {
	if c.config.KeepAliveInterval < 0 {
		return 0
	}
	return c.config.KeepAliveInterval
}

// dispatchMessage reposts an inbound payload onto the loop before
// handing it to the application.
func (c *Client) dispatchMessage(payload []byte) {
	_ = c.loop.Post(func() {
		if c.onMessage != nil {
			c.onMessage(payload)
		}
	})
}

func reasonText(reason error) string {
	if reason == nil {
		return ""
	}
	return reason.Error()
}

// connEvents adapts transport callbacks onto the connection loop. Each
// connection attempt gets its own adapter; the pointer doubles as the
// attempt identity so events from replaced connections are ignored.
type connEvents struct {
	client  *Client
	trusted bool
}

func (e *connEvents) OnConnected() {
	_ = e.client.loop.Post(func() { e.client.handleConnected(e) })
}

func (e *connEvents) OnDisconnected(reason error) {
	_ = e.client.loop.Post(func() { e.client.handleDisconnected(e, reason) })
}

var _ transport.ConnectionEvents = (*connEvents)(nil)
