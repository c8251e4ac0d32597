// ABOUTME: Remote-control message type definitions
// ABOUTME: JSON envelopes exchanged over the /multitrack websocket
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message types
const (
	TypeClientHello       = "client/hello"
	TypeServerHello       = "server/hello"
	TypeTransportCommand  = "transport/command"
	TypeTransportState    = "transport/state"
	TypeTransportPosition = "transport/position"
	TypeTransportFinished = "transport/finished"
	TypeError             = "server/error"
)

// Transport commands
const (
	CommandPlay     = "play"
	CommandPause    = "pause"
	CommandStop     = "stop"
	CommandReload   = "reload"
	CommandSeek     = "seek"
	CommandSeekTo   = "seek_to"
	CommandSetDelay = "set_delay"
	CommandSetGain  = "set_gain"
)

// Message is the top-level wrapper for all protocol messages
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// ClientHello is sent by clients to initiate the handshake
type ClientHello struct {
	Name    string `json:"name"`
	Version int    `json:"version"`
}

// ServerHello describes the group to a newly connected client
type ServerHello struct {
	Name       string      `json:"name"`
	Version    int         `json:"version"`
	State      string      `json:"state"`
	DurationMs int64       `json:"duration_ms"`
	PositionMs int64       `json:"position_ms"`
	Tracks     []TrackInfo `json:"tracks"`
}

// TrackInfo describes one track of the group
type TrackInfo struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	DelayMs    int64   `json:"delay_ms"`
	Gain       float64 `json:"gain"`
	DurationMs int64   `json:"duration_ms"`
	SampleRate int     `json:"sample_rate"`
}

// TransportCommand is sent by clients to control playback.
// Fields beyond Command only apply to the commands that use them.
type TransportCommand struct {
	Command    string  `json:"command"`
	DeltaMs    int64   `json:"delta_ms,omitempty"`
	PositionMs int64   `json:"position_ms,omitempty"`
	Index      int     `json:"index,omitempty"`
	DelayMs    int64   `json:"delay_ms,omitempty"`
	Gain       float64 `json:"gain,omitempty"`
}

// TransportState is broadcast on every state change
type TransportState struct {
	State      string `json:"state"`
	PositionMs int64  `json:"position_ms"`
	DurationMs int64  `json:"duration_ms"`
}

// TransportPosition is broadcast on every position update
type TransportPosition struct {
	PositionMs int64 `json:"position_ms"`
}

// TransportFinished is broadcast when playback reaches the end
type TransportFinished struct {
	DurationMs int64 `json:"duration_ms"`
}

// ErrorMessage reports a rejected command
type ErrorMessage struct {
	Command string `json:"command"`
	Message string `json:"message"`
}

// Millis converts a duration to wire milliseconds
func Millis(d time.Duration) int64 {
	return d.Milliseconds()
}

// FromMillis converts wire milliseconds to a duration
func FromMillis(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// DecodePayload re-decodes a generically parsed payload into v
func DecodePayload(msg Message, v interface{}) error {
	data, err := json.Marshal(msg.Payload)
	if err != nil {
		return fmt.Errorf("failed to re-encode %s payload: %w", msg.Type, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", msg.Type, err)
	}
	return nil
}
