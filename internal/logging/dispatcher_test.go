package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubivismedia/aircraft/pkg/core"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "failed to parse log output")
	return entry
}

func TestDispatcherLogger_TypedFields(t *testing.T) {
	var buf bytes.Buffer
	dl := NewDispatcherLogger(zerolog.New(&buf))

	dl.Error("request failed",
		"command", "design",
		"owner", "alice",
		"blocks", 50,
		"took", 1500*time.Millisecond,
		"material", core.Bricks,
		"error", errors.New("disk full"),
		"args", []string{"Falcon", "3", "5"},
	)

	entry := decodeLine(t, &buf)
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "request failed", entry["message"])
	assert.Equal(t, "design", entry["command"])
	assert.Equal(t, "alice", entry["owner"])
	assert.Equal(t, float64(50), entry["blocks"])
	assert.Equal(t, float64(1500), entry["took"])
	assert.Equal(t, "disk full", entry["error"])
	assert.Equal(t, []any{"Falcon", "3", "5"}, entry["args"])
	assert.Equal(t, string(core.Bricks), entry["material"])
}

func TestDispatcherLogger_BadPairs(t *testing.T) {
	var buf bytes.Buffer
	dl := NewDispatcherLogger(zerolog.New(&buf))

	dl.Info("queued", 7, "load", "dangling")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "load", entry["7"])
	assert.Equal(t, "dangling", entry["!BADKEY"])
}

func TestDispatcherLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	dl := NewDispatcherLogger(zerolog.New(&buf).Level(zerolog.InfoLevel))

	dl.Debug("hidden", "owner", "alice")
	assert.Empty(t, buf.String())

	dl.Info("shown")
	assert.Equal(t, "info", decodeLine(t, &buf)["level"])
}
