// Package wire defines the JSON wire protocol spoken between a Lens
// agent and the Lens desktop application.
//
// Every frame on the transport carries a single JSON Envelope. Four
// envelope kinds carry application traffic (message, request, response,
// error) and three carry transport control (ping, pong, close).
// Request/response pairs are correlated by the envelope ID; fire-and-forget
// messages and control frames carry no ID.
//
// The package also defines the connection setup payloads sent when a
// transport connection is established, and the signCertificate request
// used during certificate bootstrap. The desktop's "not implemented"
// error payload is the capability-negotiation sentinel for peers that
// predate the request/response exchange; it is isolated behind
// IsUnsupportedMethod so the literal appears in exactly one place.
package wire
