package log

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLogger_WriteAndReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.llog")

	logger, err := NewFileLogger(path)
	require.NoError(t, err)

	logger.Log(NewStateChange("conn-1", "idle", "connecting", ""))
	logger.Log(NewError("conn-1", "dial", "connection refused", true))
	require.NoError(t, logger.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	decoder := NewDecoder(f)

	var first Event
	require.NoError(t, decoder.Decode(&first))
	assert.Equal(t, CategoryState, first.Category)
	assert.Equal(t, "connecting", first.StateChange.NewState)

	var second Event
	require.NoError(t, decoder.Decode(&second))
	assert.Equal(t, CategoryError, second.Category)
	assert.True(t, second.Error.Benign)
}

func TestFileLogger_LogAfterCloseIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.llog")

	logger, err := NewFileLogger(path)
	require.NoError(t, err)
	require.NoError(t, logger.Close())
	require.NoError(t, logger.Close())

	logger.Log(NewError("", "dial", "late event", false))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestEncodeDecodeEvent(t *testing.T) {
	event := Event{
		Timestamp:    time.Now(),
		ConnectionID: "conn-9",
		Category:     CategoryStep,
		Step: &StepEvent{
			Name:    "connect securely",
			Status:  StepFailed,
			Detail:  "peer unavailable",
			Elapsed: 125 * time.Millisecond,
		},
	}

	data, err := EncodeEvent(event)
	require.NoError(t, err)

	decoded, err := DecodeEvent(data)
	require.NoError(t, err)
	assert.Equal(t, event.ConnectionID, decoded.ConnectionID)
	assert.Equal(t, event.Category, decoded.Category)
	require.NotNil(t, decoded.Step)
	assert.Equal(t, event.Step.Name, decoded.Step.Name)
	assert.Equal(t, event.Step.Status, decoded.Step.Status)
	assert.Equal(t, event.Step.Detail, decoded.Step.Detail)
}
