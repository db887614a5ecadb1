package wire

import "encoding/json"

// FrameKind identifies the envelope type of a transport frame.
type FrameKind string

const (
	// KindMessage is a fire-and-forget application message.
	KindMessage FrameKind = "message"

	// KindRequest is an application request expecting a single response.
	KindRequest FrameKind = "request"

	// KindResponse is the successful response to a request.
	KindResponse FrameKind = "response"

	// KindError is the error response to a request. The error text is
	// carried in the envelope's Error field.
	KindError FrameKind = "error"

	// KindPing is a keep-alive probe.
	KindPing FrameKind = "ping"

	// KindPong is the answer to a ping, echoing its sequence number.
	KindPong FrameKind = "pong"

	// KindClose announces an orderly shutdown of the connection.
	KindClose FrameKind = "close"
)

// Envelope is the outer JSON object carried by every transport frame.
type Envelope struct {
	// Kind identifies the frame type.
	Kind FrameKind `json:"kind"`

	// ID correlates request and response frames. Zero for all other kinds.
	ID uint64 `json:"id,omitempty"`

	// Seq is the ping/pong sequence number.
	Seq uint32 `json:"seq,omitempty"`

	// Payload is the application payload for message, request and
	// response frames.
	Payload json.RawMessage `json:"payload,omitempty"`

	// Error is the error text for error frames.
	Error string `json:"error,omitempty"`
}

// InsecureSetup is the setup payload sent when establishing an
// unauthenticated bootstrap connection.
type InsecureSetup struct {
	OS     string `json:"os"`
	Device string `json:"device"`
	App    string `json:"app"`
}

// SecureSetup is the setup payload sent when establishing a mutually
// authenticated connection. It additionally carries the device ID.
type SecureSetup struct {
	OS       string `json:"os"`
	Device   string `json:"device"`
	DeviceID string `json:"device_id"`
	App      string `json:"app"`
}

// MethodSignCertificate is the method name of the certificate signing
// request sent during bootstrap.
const MethodSignCertificate = "signCertificate"

// SignCertificateRequest asks the desktop to sign the agent's CSR and
// write the resulting certificates into the destination directory.
type SignCertificateRequest struct {
	// Method is always MethodSignCertificate.
	Method string `json:"method"`

	// CSR is the PEM-encoded certificate signing request.
	CSR string `json:"csr"`

	// Destination is the absolute path of the credential directory the
	// desktop writes the signed certificate and CA certificate into.
	Destination string `json:"destination"`
}

// NewSignCertificateRequest builds a signCertificate request for the
// given CSR text and credential directory.
func NewSignCertificateRequest(csr, destination string) SignCertificateRequest {
	return SignCertificateRequest{
		Method:      MethodSignCertificate,
		CSR:         csr,
		Destination: destination,
	}
}

// unsupportedMethodSentinel is the exact error payload an older desktop
// returns when it does not understand the request/response certificate
// exchange. Wire contract constant; do not edit.
const unsupportedMethodSentinel = "not implemented"

// IsUnsupportedMethod reports whether an error payload is the sentinel
// identifying a peer without request/response support. Callers fall back
// to the legacy fire-and-forget exchange when this returns true.
func IsUnsupportedMethod(errorText string) bool {
	return errorText == unsupportedMethodSentinel
}
