package wire

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Codec errors.
var (
	// ErrInvalidEnvelope indicates a frame that is not a valid envelope.
	ErrInvalidEnvelope = errors.New("invalid envelope")

	// ErrUnknownKind indicates an envelope with an unrecognized kind.
	ErrUnknownKind = errors.New("unknown frame kind")
)

// EncodeMessage encodes a fire-and-forget application message.
func EncodeMessage(payload []byte) ([]byte, error) {
	return json.Marshal(Envelope{Kind: KindMessage, Payload: payload})
}

// EncodeRequest encodes a request frame with the given correlation ID.
func EncodeRequest(id uint64, payload []byte) ([]byte, error) {
	return json.Marshal(Envelope{Kind: KindRequest, ID: id, Payload: payload})
}

// EncodeResponse encodes a successful response to the request with the
// given correlation ID.
func EncodeResponse(id uint64, payload []byte) ([]byte, error) {
	return json.Marshal(Envelope{Kind: KindResponse, ID: id, Payload: payload})
}

// EncodeErrorResponse encodes an error response to the request with the
// given correlation ID.
func EncodeErrorResponse(id uint64, errorText string) ([]byte, error) {
	return json.Marshal(Envelope{Kind: KindError, ID: id, Error: errorText})
}

// EncodePing encodes a ping frame with the given sequence number.
func EncodePing(seq uint32) ([]byte, error) {
	return json.Marshal(Envelope{Kind: KindPing, Seq: seq})
}

// EncodePong encodes a pong frame answering the ping with the given
// sequence number.
func EncodePong(seq uint32) ([]byte, error) {
	return json.Marshal(Envelope{Kind: KindPong, Seq: seq})
}

// EncodeClose encodes a close frame.
func EncodeClose() ([]byte, error) {
	return json.Marshal(Envelope{Kind: KindClose})
}

// DecodeEnvelope decodes and validates a received frame.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}

	switch env.Kind {
	case KindMessage, KindPing, KindPong, KindClose:
	case KindRequest, KindResponse, KindError:
		if env.ID == 0 {
			return nil, fmt.Errorf("%w: %s frame without correlation ID", ErrInvalidEnvelope, env.Kind)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, env.Kind)
	}

	return &env, nil
}
