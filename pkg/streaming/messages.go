// Package streaming defines the JSON messages published to a build viewer
// over WebSocket.
package streaming

import (
	"encoding/json"
	"time"

	"github.com/ubivismedia/aircraft/pkg/core"
)

// Message type constants matching the streaming protocol.
const (
	TypeHello           = "hello"
	TypeStructureBuild  = "structure_build"
	TypeStructureReload = "structure_reload"
	TypeGoodbye         = "goodbye"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// HelloPayload opens a session. It is replayed after every reconnect.
type HelloPayload struct {
	Extension string    `json:"extension"`
	Version   string    `json:"version"`
	Started   time.Time `json:"started"`
}

// BuildPayload describes one generation run.
type BuildPayload struct {
	Owner  string         `json:"owner"`
	Name   string         `json:"name"`
	Mode   core.BuildMode `json:"mode"`
	Origin [3]int         `json:"origin"`
	Blocks int            `json:"blocks"`
	At     time.Time      `json:"at"`
}

// ReloadPayload describes one reconstruction.
type ReloadPayload struct {
	Owner      string    `json:"owner"`
	Name       string    `json:"name"`
	Blocks     int       `json:"blocks"`
	DurationMS int64     `json:"durationMs"`
	At         time.Time `json:"at"`
}
