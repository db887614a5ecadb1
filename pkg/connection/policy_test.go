package connection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShouldBootstrap(t *testing.T) {
	l := NewLoop()
	defer l.Stop()
	p := NewReconnectPolicy(l)

	t.Run("UnusableCredentialsAlwaysBootstrap", func(t *testing.T) {
		assert.True(t, p.ShouldBootstrap(false, 0))
		assert.True(t, p.ShouldBootstrap(false, 1))
		assert.True(t, p.ShouldBootstrap(false, 100))
	})

	t.Run("UsableCredentialsBelowThreshold", func(t *testing.T) {
		assert.False(t, p.ShouldBootstrap(true, 0))
		assert.False(t, p.ShouldBootstrap(true, 1))
	})

	t.Run("FailureThresholdForcesBootstrap", func(t *testing.T) {
		assert.True(t, p.ShouldBootstrap(true, 2))
		assert.True(t, p.ShouldBootstrap(true, 3))
	})
}

func TestScheduleRetry(t *testing.T) {
	l := NewLoop()
	defer l.Stop()
	p := NewReconnectPolicyWithInterval(l, 10*time.Millisecond)

	fired := make(chan struct{})
	start := time.Now()
	p.ScheduleRetry(func() {
		close(fired)
	})

	select {
	case <-fired:
		assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	case <-time.After(time.Second):
		t.Fatal("retry did not fire")
	}
}

func TestPolicyDefaults(t *testing.T) {
	l := NewLoop()
	defer l.Stop()

	assert.Equal(t, DefaultRetryInterval, NewReconnectPolicy(l).Interval())
	assert.Equal(t, DefaultRetryInterval, NewReconnectPolicyWithInterval(l, 0).Interval())
	assert.Equal(t, 5*time.Second, NewReconnectPolicyWithInterval(l, 5*time.Second).Interval())
}
