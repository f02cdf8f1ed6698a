package otel

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ubivismedia/aircraft/internal/config"
	"go.opentelemetry.io/otel/log"
)

func TestNew_Disabled(t *testing.T) {
	p, err := New(config.OTelConfig{Enabled: false}, nil)
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	assert.Nil(t, p.LoggerProvider())
	assert.NotNil(t, p.Meter("test"))
	assert.NoError(t, p.Flush(context.Background()))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNew_NoExporter(t *testing.T) {
	_, err := New(config.OTelConfig{Enabled: true, ServiceName: "aircraft"}, nil)
	assert.True(t, errors.Is(err, ErrNoExporter))
}

func TestNew_WriterExport(t *testing.T) {
	var buf bytes.Buffer
	p, err := New(config.OTelConfig{
		Enabled:      true,
		ServiceName:  "aircraft",
		BatchTimeout: time.Second,
	}, &buf)
	require.NoError(t, err)
	require.NotNil(t, p.LoggerProvider())

	var rec log.Record
	rec.SetBody(log.StringValue("aircraft built"))
	rec.SetSeverity(log.SeverityInfo)
	p.LoggerProvider().Logger("test").Emit(context.Background(), rec)

	require.NoError(t, p.Flush(context.Background()))
	assert.Contains(t, buf.String(), "aircraft built")
	assert.Contains(t, buf.String(), "aircraft")
	require.NoError(t, p.Shutdown(context.Background()))
}
