package log

import "time"

// Event represents a diagnostic event captured by the agent.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID identifies the transport connection the event belongs
	// to (UUID). Empty for events outside any connection attempt.
	ConnectionID string `cbor:"2,keyasint,omitempty"`

	// Category classifies the event type.
	Category Category `cbor:"3,keyasint"`

	// Type-specific payload (one of these will be set).
	Step        *StepEvent        `cbor:"4,keyasint,omitempty"`
	Frame       *FrameEvent       `cbor:"5,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"6,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"7,keyasint,omitempty"`
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryStep indicates step progress (started/completed/failed).
	CategoryStep Category = 0
	// CategoryFrame indicates a raw transport frame.
	CategoryFrame Category = 1
	// CategoryState indicates a connection state change.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryStep:
		return "STEP"
	case CategoryFrame:
		return "FRAME"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Direction indicates the direction of frame flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming frame.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing frame.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// StepStatus is the lifecycle state of a reported step.
type StepStatus uint8

const (
	// StepStarted indicates the step has begun.
	StepStarted StepStatus = 0
	// StepCompleted indicates the step finished successfully.
	StepCompleted StepStatus = 1
	// StepFailed indicates the step failed.
	StepFailed StepStatus = 2
)

// String returns the step status name.
func (s StepStatus) String() string {
	switch s {
	case StepStarted:
		return "STARTED"
	case StepCompleted:
		return "COMPLETED"
	case StepFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// StepEvent captures the progress of one phase of a connection attempt.
type StepEvent struct {
	// Name identifies the step ("connect securely", "generate CSR", ...).
	Name string `cbor:"1,keyasint"`

	// Status is the step lifecycle state.
	Status StepStatus `cbor:"2,keyasint"`

	// Detail carries the failure reason for failed steps.
	Detail string `cbor:"3,keyasint,omitempty"`

	// Elapsed is the time since the step started (completed/failed only).
	Elapsed time.Duration `cbor:"4,keyasint,omitempty"`
}

// FrameEvent captures raw frame data at the transport layer.
type FrameEvent struct {
	// Size is the frame size in bytes (including length prefix).
	Size int `cbor:"1,keyasint"`

	// Direction indicates frame flow.
	Direction Direction `cbor:"2,keyasint"`

	// Data is the raw frame bytes (may be truncated for large frames).
	Data []byte `cbor:"3,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"4,keyasint,omitempty"`
}

// StateChangeEvent captures connection lifecycle transitions.
type StateChangeEvent struct {
	// OldState is the previous state (may be empty).
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// ErrorEventData captures errors during connection handling.
type ErrorEventData struct {
	// Context describes what operation was being performed.
	Context string `cbor:"1,keyasint,omitempty"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Benign marks errors classified as expected (peer not listening);
	// they are excluded from failure counting.
	Benign bool `cbor:"3,keyasint,omitempty"`
}

// NewStateChange builds a state-change event.
func NewStateChange(connID, oldState, newState, reason string) Event {
	return Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Category:     CategoryState,
		StateChange: &StateChangeEvent{
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	}
}

// NewError builds an error event.
func NewError(connID, context, message string, benign bool) Event {
	return Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Category:     CategoryError,
		Error: &ErrorEventData{
			Context: context,
			Message: message,
			Benign:  benign,
		},
	}
}

// NewFrame builds a frame event.
func NewFrame(connID string, direction Direction, size int, data []byte, truncated bool) Event {
	return Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Category:     CategoryFrame,
		Frame: &FrameEvent{
			Size:      size,
			Direction: direction,
			Data:      data,
			Truncated: truncated,
		},
	}
}
