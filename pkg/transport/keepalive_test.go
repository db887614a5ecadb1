package transport

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestKeepAliveConfigDefaults(t *testing.T) {
	config := DefaultKeepAliveConfig()

	if config.PingInterval != DefaultPingInterval {
		t.Errorf("PingInterval = %v, want %v", config.PingInterval, DefaultPingInterval)
	}
	if config.PongTimeout != DefaultPongTimeout {
		t.Errorf("PongTimeout = %v, want %v", config.PongTimeout, DefaultPongTimeout)
	}
	if config.MaxMissedPongs != DefaultMaxMissedPongs {
		t.Errorf("MaxMissedPongs = %d, want %d", config.MaxMissedPongs, DefaultMaxMissedPongs)
	}

	delay := config.DetectionDelay()
	expected := 10*time.Second*3 + 5*time.Second
	if delay != expected {
		t.Errorf("DetectionDelay = %v, want %v", delay, expected)
	}
}

func TestKeepAlivePingsPeriodically(t *testing.T) {
	var pingCount atomic.Int32

	config := KeepAliveConfig{
		PingInterval:   30 * time.Millisecond,
		PongTimeout:    10 * time.Millisecond,
		MaxMissedPongs: 100,
	}

	ka := NewKeepAlive(config,
		func(seq uint32) error {
			pingCount.Add(1)
			return nil
		},
		func() {},
	)

	ka.Start()
	defer ka.Stop()

	time.Sleep(100 * time.Millisecond)

	if got := pingCount.Load(); got < 2 {
		t.Errorf("expected at least 2 pings, got %d", got)
	}
}

func TestKeepAlivePongResetsMissedCount(t *testing.T) {
	var timedOut atomic.Bool

	ka := NewKeepAlive(
		KeepAliveConfig{
			PingInterval:   20 * time.Millisecond,
			PongTimeout:    10 * time.Millisecond,
			MaxMissedPongs: 3,
		},
		func(seq uint32) error { return nil },
		func() { timedOut.Store(true) },
	)

	ka.Start()
	defer ka.Stop()

	// Answer every ping promptly for a while
	deadline := time.Now().Add(150 * time.Millisecond)
	for time.Now().Before(deadline) {
		stats := ka.Stats()
		if stats.CurrentSeq > 0 {
			ka.PongReceived(stats.CurrentSeq)
		}
		time.Sleep(5 * time.Millisecond)
	}

	if timedOut.Load() {
		t.Error("keep-alive timed out despite prompt pongs")
	}
	if stats := ka.Stats(); stats.MissedPongs != 0 {
		t.Errorf("MissedPongs = %d, want 0", stats.MissedPongs)
	}
}

func TestKeepAliveTimeoutAfterMissedPongs(t *testing.T) {
	timeoutCh := make(chan struct{}, 1)

	ka := NewKeepAlive(
		KeepAliveConfig{
			PingInterval:   15 * time.Millisecond,
			PongTimeout:    10 * time.Millisecond,
			MaxMissedPongs: 2,
		},
		func(seq uint32) error { return nil },
		func() {
			select {
			case timeoutCh <- struct{}{}:
			default:
			}
		},
	)

	ka.Start()
	defer ka.Stop()

	select {
	case <-timeoutCh:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timeout callback never fired")
	}
}

func TestKeepAliveStaleSequenceIgnored(t *testing.T) {
	ka := NewKeepAlive(
		KeepAliveConfig{
			PingInterval:   25 * time.Millisecond,
			PongTimeout:    10 * time.Millisecond,
			MaxMissedPongs: 100,
		},
		func(seq uint32) error { return nil },
		func() {},
	)

	ka.Start()
	defer ka.Stop()

	// Deliver a pong that never matches any pending ping
	ka.PongReceived(9999)
	time.Sleep(60 * time.Millisecond)

	// Missed count should have accumulated despite the bogus pong
	if stats := ka.Stats(); stats.MissedPongs == 0 {
		t.Error("stale pong should not reset missed count")
	}
}

func TestKeepAliveStopIdempotent(t *testing.T) {
	ka := NewKeepAlive(
		DefaultKeepAliveConfig(),
		func(seq uint32) error { return nil },
		func() {},
	)

	ka.Start()
	if !ka.IsRunning() {
		t.Error("expected running after Start")
	}

	ka.Stop()
	ka.Stop()
	if ka.IsRunning() {
		t.Error("expected stopped after Stop")
	}
}
