package connection

import "time"

// Reconnect policy constants.
const (
	// DefaultRetryInterval is the fixed delay between connection attempts.
	DefaultRetryInterval = 2 * time.Second

	// BootstrapFailureThreshold is the number of consecutive failed
	// trusted attempts after which the agent re-runs the certificate
	// exchange. A stale or revoked client certificate fails the trusted
	// connection repeatedly; re-bootstrapping self-heals it.
	BootstrapFailureThreshold = 2
)

// ReconnectPolicy decides the mode of each connection attempt and
// schedules delayed retries on the loop.
type ReconnectPolicy struct {
	loop     *Loop
	interval time.Duration
}

// NewReconnectPolicy creates a policy scheduling retries on the given
// loop at the default fixed interval.
func NewReconnectPolicy(loop *Loop) *ReconnectPolicy {
	return &ReconnectPolicy{
		loop:     loop,
		interval: DefaultRetryInterval,
	}
}

// NewReconnectPolicyWithInterval creates a policy with a custom retry
// interval. Intervals <= 0 fall back to the default.
func NewReconnectPolicyWithInterval(loop *Loop, interval time.Duration) *ReconnectPolicy {
	if interval <= 0 {
		interval = DefaultRetryInterval
	}
	return &ReconnectPolicy{
		loop:     loop,
		interval: interval,
	}
}

// Interval returns the fixed retry interval.
func (p *ReconnectPolicy) Interval() time.Duration {
	return p.interval
}

// ShouldBootstrap reports whether the next attempt must run the
// certificate exchange: always when the credential set is unusable, and
// after BootstrapFailureThreshold consecutive failures even with
// usable credentials.
func (p *ReconnectPolicy) ShouldBootstrap(credentialsUsable bool, consecutiveFailures uint32) bool {
	if !credentialsUsable {
		return true
	}
	return consecutiveFailures >= BootstrapFailureThreshold
}

// ScheduleRetry schedules callback to run on the loop after the retry
// interval. The returned timer can be stopped to cancel the retry.
func (p *ReconnectPolicy) ScheduleRetry(callback func()) *time.Timer {
	return p.loop.PostDelayed(p.interval, callback)
}
