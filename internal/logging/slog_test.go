package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// useStdout swaps the stdout writer for the duration of the test.
func useStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	orig := osStdout
	osStdout = &buf
	t.Cleanup(func() { osStdout = orig })
	return &buf
}

func TestSetup_SessionFileOrStdout(t *testing.T) {
	stdout := useStdout(t)

	var file bytes.Buffer
	m := NewSlogManager()
	m.Setup(&file, "info", nil)
	m.Logger().Info("Aircraft designed", "blocks", 50)

	assert.Contains(t, file.String(), "Aircraft designed")
	assert.Contains(t, file.String(), "blocks=50")
	assert.Empty(t, stdout.String())

	m.Setup(nil, "info", nil)
	m.Logger().Info("Aircraft loaded")
	assert.Contains(t, stdout.String(), "Aircraft loaded")
	assert.NotContains(t, file.String(), "Aircraft loaded")
}

func TestSetup_Levels(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantInfo  bool
	}{
		{"debug", true, true},
		{"INFO", false, true},
		{"warning", false, false},
		{"bogus", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			m := NewSlogManager()
			m.Setup(&buf, tt.level, nil)
			m.Logger().Debug("ledger row")
			m.Logger().Info("menu opened")
			m.Logger().Warn("unknown material")

			assert.Equal(t, tt.wantDebug, strings.Contains(buf.String(), "ledger row"))
			assert.Equal(t, tt.wantInfo, strings.Contains(buf.String(), "menu opened"))
			assert.Contains(t, buf.String(), "unknown material")
		})
	}
}

func TestSetup_RequestAndSessionAttrs(t *testing.T) {
	var buf bytes.Buffer
	pending := 0
	m := NewSlogManager()
	m.Context = func() []slog.Attr {
		return []slog.Attr{slog.String("storage", "memory"), slog.Int("pendingSelections", pending)}
	}
	m.Setup(&buf, "info", nil)

	ctx := WithRequest(context.Background(), Request{Owner: "alice", Command: "design"})
	ctx = WithStructure(ctx, "Falcon")
	pending = 1
	m.Logger().InfoContext(ctx, "Aircraft designed")

	line := lastLine(buf.String())
	assert.Contains(t, line, "owner=alice")
	assert.Contains(t, line, "command=design")
	assert.Contains(t, line, "structure=Falcon")
	assert.Contains(t, line, "storage=memory")
	assert.Contains(t, line, "pendingSelections=1")

	m.Logger().Info("Dump finished")
	line = lastLine(buf.String())
	assert.NotContains(t, line, "owner=")
	assert.Contains(t, line, "storage=memory")
}

func TestWriteLog(t *testing.T) {
	var buf bytes.Buffer
	m := NewSlogManager()
	m.WriteLog("sqlite:restore", "ignored before setup", "INFO")

	m.Setup(&buf, "debug", nil)
	for _, level := range []string{"DEBUG", "INFO", "WARN", "ERROR", "TRACE"} {
		m.WriteLog("sqlite:dumpLoop", "dump "+level, level)
	}

	out := buf.String()
	assert.NotContains(t, out, "ignored before setup")
	assert.Contains(t, out, "level=DEBUG msg=\"dump DEBUG\" function=sqlite:dumpLoop")
	assert.Contains(t, out, "level=WARN msg=\"dump WARN\"")
	assert.Contains(t, out, "level=ERROR msg=\"dump ERROR\"")
	assert.Contains(t, out, "level=INFO msg=\"dump TRACE\"")
}

func TestLogger_DefaultBeforeSetup(t *testing.T) {
	assert.Equal(t, slog.Default(), NewSlogManager().Logger())
}

func TestFlush(t *testing.T) {
	m := NewSlogManager()
	assert.NoError(t, m.Flush(context.Background()))

	provider := sdklog.NewLoggerProvider()
	defer provider.Shutdown(context.Background())

	var buf bytes.Buffer
	m.Setup(&buf, "info", provider)
	m.Logger().Info("Aircraft loaded")
	require.NoError(t, m.Flush(context.Background()))
	assert.Contains(t, buf.String(), "Aircraft loaded")
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return lines[len(lines)-1]
}
