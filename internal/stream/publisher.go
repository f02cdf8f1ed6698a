// Package stream publishes build and reload events to a viewer over
// WebSocket. It satisfies handlers.Metrics so it can run next to, or instead
// of, the InfluxDB exporter.
package stream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ubivismedia/aircraft/internal/config"
	"github.com/ubivismedia/aircraft/pkg/core"
	"github.com/ubivismedia/aircraft/pkg/streaming"
)

// Publisher streams events to one WebSocket endpoint.
type Publisher struct {
	conn  *connection
	cfg   config.StreamConfig
	hello streaming.HelloPayload
}

// New creates a publisher. Nothing is dialed until Connect.
func New(cfg config.StreamConfig, hello streaming.HelloPayload, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		conn:  newConnection(logger.With("component", "stream")),
		cfg:   cfg,
		hello: hello,
	}
}

// Connect dials the endpoint and waits for the server to acknowledge the
// hello message.
func (p *Publisher) Connect() error {
	if err := p.conn.dial(p.cfg.URL, p.cfg.Secret); err != nil {
		return err
	}

	data, err := marshalEnvelope(streaming.TypeHello, p.hello)
	if err != nil {
		return err
	}
	p.conn.mu.Lock()
	p.conn.hello = data
	p.conn.mu.Unlock()

	return p.conn.sendAndWait(data, streaming.TypeHello, ackTimeout)
}

// Close says goodbye and disconnects. A missing goodbye ack is not an error.
func (p *Publisher) Close() error {
	p.conn.mu.Lock()
	connected := p.conn.conn != nil
	p.conn.mu.Unlock()

	data, err := marshalEnvelope(streaming.TypeGoodbye, struct{}{})
	if connected && err == nil {
		if err := p.conn.sendAndWait(data, streaming.TypeGoodbye, ackTimeout); err != nil {
			p.conn.logger.Debug("No goodbye ack", "error", err)
		}
	}
	return p.conn.close()
}

// RecordBuild publishes one structure_build message.
func (p *Publisher) RecordBuild(b core.Build) error {
	at := b.CreatedAt
	if at.IsZero() {
		at = time.Now()
	}
	return p.send(streaming.TypeStructureBuild, streaming.BuildPayload{
		Owner:  b.Owner,
		Name:   b.Name,
		Mode:   b.Mode,
		Origin: [3]int{b.Origin.X, b.Origin.Y, b.Origin.Z},
		Blocks: b.Blocks,
		At:     at.UTC(),
	})
}

// RecordReload publishes one structure_reload message.
func (p *Publisher) RecordReload(id core.StructureID, blocks int, took time.Duration) error {
	return p.send(streaming.TypeStructureReload, streaming.ReloadPayload{
		Owner:      id.Owner,
		Name:       id.Name,
		Blocks:     blocks,
		DurationMS: took.Milliseconds(),
		At:         time.Now().UTC(),
	})
}

// send marshals the payload and hands it to the write loop without waiting.
func (p *Publisher) send(msgType string, payload any) error {
	data, err := marshalEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	p.conn.send(data)
	return nil
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	data, err := json.Marshal(streaming.Envelope{Type: msgType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}
