// Package connection provides the serialized execution context and the
// reconnect policy for the Lens agent's connection state machine.
//
// All connection state is owned by a single goroutine, the Loop. Public
// client calls and transport callbacks are posted onto the Loop rather
// than touching state directly; InLoop lets state-mutating code assert
// it is running on the owning goroutine. Violations are programming
// errors, not runtime faults.
//
// ReconnectPolicy decides, before each connection attempt, whether the
// agent must bootstrap (certificate exchange over an unauthenticated
// connection) or can attempt a trusted connection, and schedules retries
// at a fixed interval. There is deliberately no exponential backoff:
// desktop debugging sessions are short-lived and a constant two-second
// cadence keeps reconnection snappy without meaningful load.
package connection
