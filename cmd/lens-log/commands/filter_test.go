package commands

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lens-devtools/lens-go/pkg/log"
)

func countEvents(t *testing.T, path string) int {
	t.Helper()
	reader, err := log.NewReader(path)
	if err != nil {
		t.Fatalf("failed to open filtered trace: %v", err)
	}
	defer reader.Close()

	count := 0
	for {
		_, err := reader.Next()
		if err == io.EOF {
			return count
		}
		if err != nil {
			t.Fatalf("failed to read event: %v", err)
		}
		count++
	}
}

func TestRunFilterByConnection(t *testing.T) {
	path := writeTestTrace(t, []log.Event{
		log.NewStateChange("conn-1", "", "connecting", ""),
		log.NewStateChange("conn-2", "", "connecting", ""),
		log.NewError("conn-1", "dial", "boom", false),
	})

	out := filepath.Join(t.TempDir(), "filtered.llog")
	var buf bytes.Buffer
	err := RunFilter(path, FilterOptions{Output: out, ConnID: "conn-1"}, &buf)
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	if got := countEvents(t, out); got != 2 {
		t.Errorf("got %d filtered events, want 2", got)
	}
	if !strings.Contains(buf.String(), "Filtered 2 events") {
		t.Errorf("unexpected summary: %s", buf.String())
	}
}

func TestRunFilterByCategory(t *testing.T) {
	path := writeTestTrace(t, []log.Event{
		log.NewStateChange("conn-1", "", "connecting", ""),
		log.NewFrame("conn-1", log.DirectionOut, 16, nil, false),
	})

	out := filepath.Join(t.TempDir(), "filtered.llog")
	var buf bytes.Buffer
	err := RunFilter(path, FilterOptions{Output: out, Category: "frame"}, &buf)
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	if got := countEvents(t, out); got != 1 {
		t.Errorf("got %d filtered events, want 1", got)
	}
}

func TestRunFilterInvalidTime(t *testing.T) {
	path := writeTestTrace(t, nil)

	out := filepath.Join(t.TempDir(), "filtered.llog")
	var buf bytes.Buffer
	err := RunFilter(path, FilterOptions{Output: out, TimeStart: "not-a-time"}, &buf)
	if err == nil {
		t.Error("expected error for invalid time-start")
	}
}
