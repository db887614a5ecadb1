package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/lens-devtools/lens-go/pkg/log"
)

func TestRunStats(t *testing.T) {
	path := writeTestTrace(t, []log.Event{
		log.NewStateChange("conn-1", "", "connecting", ""),
		log.NewFrame("conn-1", log.DirectionOut, 100, nil, false),
		log.NewFrame("conn-1", log.DirectionIn, 50, nil, false),
		log.NewError("conn-1", "dial", "connection refused", true),
		{
			Timestamp:    time.Now(),
			ConnectionID: "conn-2",
			Category:     log.CategoryStep,
			Step:         &log.StepEvent{Name: "bootstrap", Status: log.StepFailed, Detail: "no response"},
		},
	})

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	output := buf.String()

	if !strings.Contains(output, "Total Events: 5") {
		t.Errorf("expected total count, got: %s", output)
	}
	if !strings.Contains(output, "Connections: 2") {
		t.Errorf("expected connection count, got: %s", output)
	}
	if !strings.Contains(output, "OUT:") || !strings.Contains(output, "100 bytes") {
		t.Errorf("expected outgoing frame traffic, got: %s", output)
	}
	if !strings.Contains(output, "Errors: 1 (1 benign)") {
		t.Errorf("expected error summary, got: %s", output)
	}
	if !strings.Contains(output, "Failed Steps: 1") {
		t.Errorf("expected failed step count, got: %s", output)
	}
}

func TestRunStatsTracksLastState(t *testing.T) {
	path := writeTestTrace(t, []log.Event{
		log.NewStateChange("conn-1", "", "connecting", ""),
		log.NewStateChange("conn-1", "connecting", "connected", ""),
	})

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}

	if !strings.Contains(buf.String(), "Last state: connected") {
		t.Errorf("expected last state, got: %s", buf.String())
	}
}

func TestRunStatsEmptyFile(t *testing.T) {
	path := writeTestTrace(t, nil)

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}

	if !strings.Contains(buf.String(), "Total Events: 0") {
		t.Errorf("expected zero events, got: %s", buf.String())
	}
}
