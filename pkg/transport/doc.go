// Package transport implements the agent's connection to the Lens
// desktop: TCP with length-prefixed JSON frames, optionally wrapped in
// TLS 1.3 with mutual authentication.
//
// The connection state machine consumes this package through two narrow
// interfaces, Dialer and Conn. Dialing sends the connection's setup
// payload as the first frame, then a background read goroutine routes
// inbound frames: responses to their pending requests, fire-and-forget
// messages to the message callback, pings answered in place. Connection
// liveness is monitored with keep-alive pings.
//
// Bootstrap connections use plain TCP (DialConfig.TLS nil); trusted
// connections use the mutual TLS configuration built by
// NewTrustedTLSConfig from the persisted credential set.
//
// Dial failures are classified: IsPeerUnavailable identifies the benign
// "desktop not running" condition so the caller can retry without
// counting it as a failure.
package transport
