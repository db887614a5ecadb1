// Package client implements the device-side agent: a state machine that
// keeps a single connection to the desktop alive, bootstrapping trust
// on first contact.
//
// When no usable credentials exist, the client dials the desktop's
// insecure port, generates a key pair and certificate signing request,
// and asks the desktop to sign it. The desktop writes the signed
// certificate and its CA certificate into the credential directory
// out-of-band; the next attempt finds them and connects to the secure
// port with mutual TLS. Repeated trusted-connection failures force a
// fresh bootstrap, so expired or revoked certificates self-heal.
//
// All connection state is owned by a single serialized execution
// context; application calls and transport callbacks are posted onto
// it rather than touching state directly.
package client
