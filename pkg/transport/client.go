package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/lens-devtools/lens-go/pkg/log"
	"github.com/lens-devtools/lens-go/pkg/wire"
)

// DefaultConnectTimeout is the default timeout for establishing a
// connection, covering TCP dial and TLS handshake.
const DefaultConnectTimeout = 30 * time.Second

// TCPDialer establishes connections over TCP, optionally upgraded to
// mutual TLS 1.3 when the dial config carries a TLS configuration.
type TCPDialer struct {
	// ConnectTimeout bounds TCP dial plus TLS handshake (default: 30s).
	ConnectTimeout time.Duration

	// MaxMessageSize is the maximum frame size (default: 64KB).
	MaxMessageSize uint32
}

// Dial connects to the desktop, sends the setup payload as the first
// frame and returns the live connection. Events.OnConnected fires
// before Dial returns; the read loop and keep-alive start immediately.
func (d *TCPDialer) Dial(ctx context.Context, config DialConfig) (Conn, error) {
	if config.Events == nil {
		return nil, fmt.Errorf("dial config requires Events")
	}
	if len(config.Setup) == 0 {
		return nil, fmt.Errorf("dial config requires a setup payload")
	}

	timeout := d.ConnectTimeout
	if timeout == 0 {
		timeout = DefaultConnectTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	dialer := &net.Dialer{}
	netConn, err := dialer.DialContext(ctx, "tcp", config.Address)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	conn := netConn
	if config.TLS != nil {
		tlsConn := tls.Client(netConn, config.TLS)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			netConn.Close()
			return nil, fmt.Errorf("TLS handshake failed: %w", err)
		}
		if err := VerifyConnection(tlsConn.ConnectionState()); err != nil {
			tlsConn.Close()
			return nil, fmt.Errorf("connection verification failed: %w", err)
		}
		conn = tlsConn
	}

	cc := &ClientConn{
		id:      uuid.New().String(),
		conn:    conn,
		framer:  NewFramerWithMaxSize(conn, d.MaxMessageSize),
		events:  config.Events,
		onMsg:   config.OnMessage,
		diag:    config.Diagnostics,
		pending: make(map[uint64]chan result),
		closeCh: make(chan struct{}),
	}
	cc.framer.SetDiagnostics(config.Diagnostics, cc.id)

	// Setup payload goes out as the first frame, before any envelope
	if err := cc.framer.WriteFrame(config.Setup); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to send setup payload: %w", err)
	}

	if config.KeepAliveInterval > 0 {
		cc.keepAlive = NewKeepAlive(
			KeepAliveConfig{PingInterval: config.KeepAliveInterval},
			cc.sendPing,
			func() { cc.teardown(fmt.Errorf("keep-alive timeout")) },
		)
	}

	config.Events.OnConnected()

	go cc.readLoop()
	if cc.keepAlive != nil {
		cc.keepAlive.Start()
	}

	return cc, nil
}

// result carries an RPC outcome from the read loop to the waiting caller.
type result struct {
	payload []byte
	err     error
}

// ClientConn is a live framed connection to the desktop. Writes are
// serialized by the framer; the read loop routes inbound frames to
// pending requests, the message callback and the keep-alive monitor.
type ClientConn struct {
	id        string
	conn      net.Conn
	framer    *Framer
	events    ConnectionEvents
	onMsg     func(payload []byte)
	diag      log.Logger
	keepAlive *KeepAlive

	nextID    atomic.Uint64
	pendingMu sync.Mutex
	pending   map[uint64]chan result

	closeCh   chan struct{}
	closeOnce sync.Once
}

// ID returns the connection's unique identifier.
func (c *ClientConn) ID() string {
	return c.id
}

// LocalAddr returns the local network address.
func (c *ClientConn) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// RemoteAddr returns the remote network address.
func (c *ClientConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// FireAndForget sends an application payload without expecting a response.
func (c *ClientConn) FireAndForget(payload []byte) error {
	if c.isClosed() {
		return ErrConnectionClosed
	}

	frame, err := wire.EncodeMessage(payload)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	return c.framer.WriteFrame(frame)
}

// RequestResponse sends an application payload and waits for the single
// matching response. An error response from the desktop is returned as
// a *RemoteError.
func (c *ClientConn) RequestResponse(ctx context.Context, payload []byte) ([]byte, error) {
	if c.isClosed() {
		return nil, ErrConnectionClosed
	}

	id := c.nextID.Add(1)
	ch := make(chan result, 1)

	c.pendingMu.Lock()
	c.pending[id] = ch
	c.pendingMu.Unlock()

	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	frame, err := wire.EncodeRequest(id, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	if err := c.framer.WriteFrame(frame); err != nil {
		return nil, err
	}

	select {
	case res := <-ch:
		return res.payload, res.err
	case <-c.closeCh:
		return nil, ErrConnectionClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Disconnect closes the connection after announcing an orderly shutdown.
// OnDisconnected fires exactly once with a nil reason.
func (c *ClientConn) Disconnect() error {
	if frame, err := wire.EncodeClose(); err == nil {
		// best effort; the peer may already be gone
		_ = c.framer.WriteFrame(frame)
	}
	c.teardown(nil)
	return nil
}

func (c *ClientConn) isClosed() bool {
	select {
	case <-c.closeCh:
		return true
	default:
		return false
	}
}

// sendPing emits a keep-alive ping frame.
func (c *ClientConn) sendPing(seq uint32) error {
	frame, err := wire.EncodePing(seq)
	if err != nil {
		return err
	}
	return c.framer.WriteFrame(frame)
}

// teardown closes the connection exactly once, fails all pending
// requests and fires OnDisconnected. reason is nil for an orderly close.
func (c *ClientConn) teardown(reason error) {
	c.closeOnce.Do(func() {
		close(c.closeCh)
		if c.keepAlive != nil {
			c.keepAlive.Stop()
		}
		c.conn.Close()

		c.pendingMu.Lock()
		for id, ch := range c.pending {
			ch <- result{err: ErrConnectionClosed}
			delete(c.pending, id)
		}
		c.pendingMu.Unlock()

		c.events.OnDisconnected(reason)
	})
}

// readLoop reads and routes inbound frames until the connection ends.
func (c *ClientConn) readLoop() {
	for {
		frame, err := c.framer.ReadFrame()
		if err != nil {
			if c.isClosed() {
				return
			}
			c.teardown(fmt.Errorf("read failed: %w", err))
			return
		}

		env, err := wire.DecodeEnvelope(frame)
		if err != nil {
			c.logError("decode", err)
			continue
		}

		switch env.Kind {
		case wire.KindResponse:
			c.deliver(env.ID, result{payload: env.Payload})

		case wire.KindError:
			c.deliver(env.ID, result{err: &RemoteError{Payload: env.Error}})

		case wire.KindMessage:
			if c.onMsg != nil {
				c.onMsg(env.Payload)
			}

		case wire.KindPing:
			if frame, err := wire.EncodePong(env.Seq); err == nil {
				if err := c.framer.WriteFrame(frame); err != nil {
					c.logError("pong", err)
				}
			}

		case wire.KindPong:
			if c.keepAlive != nil {
				c.keepAlive.PongReceived(env.Seq)
			}

		case wire.KindClose:
			c.teardown(nil)
			return

		case wire.KindRequest:
			// Inbound requests are not supported on the device side
			if frame, err := wire.EncodeErrorResponse(env.ID, "not implemented"); err == nil {
				if err := c.framer.WriteFrame(frame); err != nil {
					c.logError("request reply", err)
				}
			}
		}
	}
}

// deliver routes an RPC outcome to its waiting caller. Responses with
// no pending request are dropped (the caller may have timed out).
func (c *ClientConn) deliver(id uint64, res result) {
	c.pendingMu.Lock()
	ch, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.pendingMu.Unlock()

	if ok {
		ch <- res
	}
}

func (c *ClientConn) logError(context string, err error) {
	if c.diag == nil {
		return
	}
	c.diag.Log(log.NewError(c.id, context, err.Error(), false))
}
