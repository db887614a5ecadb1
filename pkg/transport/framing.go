package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/lens-devtools/lens-go/pkg/log"
)

// Framing constants.
const (
	// LengthPrefixSize is the size of the length prefix in bytes.
	LengthPrefixSize = 4

	// DefaultMaxMessageSize is the default maximum message size (64 KB).
	DefaultMaxMessageSize = 65536

	// MaxLogFrameDataSize is the maximum frame data size to include in
	// diagnostic events (4 KB). Larger frames are truncated in events to
	// avoid excessive memory usage.
	MaxLogFrameDataSize = 4096
)

// Framing errors.
var (
	// ErrMessageTooLarge indicates the message exceeds the maximum size.
	ErrMessageTooLarge = errors.New("message too large")

	// ErrMessageEmpty indicates an empty message.
	ErrMessageEmpty = errors.New("message is empty")
)

// Framer provides length-prefixed frame I/O over a stream. Reads and
// writes are independently thread-safe.
type Framer struct {
	rw             io.ReadWriter
	maxMessageSize uint32

	readMu  sync.Mutex
	writeMu sync.Mutex

	// Diagnostic capture (optional)
	logger log.Logger
	connID string
}

// NewFramer creates a framer with the default maximum message size.
func NewFramer(rw io.ReadWriter) *Framer {
	return NewFramerWithMaxSize(rw, DefaultMaxMessageSize)
}

// NewFramerWithMaxSize creates a framer with a custom maximum message size.
func NewFramerWithMaxSize(rw io.ReadWriter, maxSize uint32) *Framer {
	if maxSize == 0 {
		maxSize = DefaultMaxMessageSize
	}
	return &Framer{
		rw:             rw,
		maxMessageSize: maxSize,
	}
}

// SetDiagnostics configures diagnostic capture for this framer.
// Pass nil to disable capture.
func (f *Framer) SetDiagnostics(logger log.Logger, connID string) {
	f.logger = logger
	f.connID = connID
}

// WriteFrame writes a length-prefixed frame.
func (f *Framer) WriteFrame(data []byte) error {
	if len(data) == 0 {
		return ErrMessageEmpty
	}
	// Compare as int: narrowing to uint32 first would wrap for
	// payloads past 4 GiB and write a bogus length prefix.
	if len(data) > int(f.maxMessageSize) {
		return fmt.Errorf("%w: %d > %d", ErrMessageTooLarge, len(data), f.maxMessageSize)
	}

	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	var lengthBuf [LengthPrefixSize]byte
	binary.BigEndian.PutUint32(lengthBuf[:], uint32(len(data)))

	if _, err := f.rw.Write(lengthBuf[:]); err != nil {
		return fmt.Errorf("failed to write length prefix: %w", err)
	}
	if _, err := f.rw.Write(data); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}

	f.logFrame(data, log.DirectionOut)
	return nil
}

// ReadFrame reads a length-prefixed frame.
func (f *Framer) ReadFrame() ([]byte, error) {
	f.readMu.Lock()
	defer f.readMu.Unlock()

	var lengthBuf [LengthPrefixSize]byte
	if _, err := io.ReadFull(f.rw, lengthBuf[:]); err != nil {
		return nil, err
	}

	length := binary.BigEndian.Uint32(lengthBuf[:])
	if length == 0 {
		return nil, ErrMessageEmpty
	}
	if length > f.maxMessageSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrMessageTooLarge, length, f.maxMessageSize)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(f.rw, data); err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}

	f.logFrame(data, log.DirectionIn)
	return data, nil
}

// logFrame emits a diagnostic frame event if capture is configured.
func (f *Framer) logFrame(data []byte, direction log.Direction) {
	if f.logger == nil {
		return
	}

	frameData := data
	truncated := false
	if len(data) > MaxLogFrameDataSize {
		frameData = data[:MaxLogFrameDataSize]
		truncated = true
	}

	f.logger.Log(log.NewFrame(f.connID, direction, LengthPrefixSize+len(data), frameData, truncated))
}
