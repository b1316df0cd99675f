// Package mqtt publishes engine outputs, alert transitions and lifecycle
// events to an MQTT broker, with an abstraction for testing.
package mqtt

import (
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/Cupra85/bmi160-pro/internal/logic"
)

// TopicRoot is the first segment of every topic.
const TopicRoot = "bmi160"

// Topics is the topic layout of one device: <root>/<device>/...
type Topics struct {
	Base string
}

// NewTopics returns the topic layout for the named device.
func NewTopics(device string) Topics {
	return Topics{Base: TopicRoot + "/" + device}
}

// Channel is the retained state topic of one output channel.
func (t Topics) Channel(c logic.Channel) string {
	return t.Base + "/" + c.String()
}

// Events is the topic for alert transitions.
func (t Topics) Events() string {
	return t.Base + "/events"
}

// System is the topic for lifecycle events and the last will.
func (t Topics) System() string {
	return t.Base + "/system"
}

// Publisher publishes engine data to MQTT. It is a logic.Sink.
type Publisher interface {
	// PublishOutput sends one routed channel value (retained).
	// Returns error if publishing fails (should not crash the process).
	PublishOutput(out logic.Output) error

	// PublishAlert sends an alert transition event.
	PublishAlert(event logic.AlertEvent) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// System event names.
const (
	EventStartup     = "STARTUP"
	EventShutdown    = "SHUTDOWN"
	EventHeartbeat   = "HEARTBEAT"
	EventReconnected = "RECONNECTED"
	EventOffline     = "OFFLINE"
)

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// FormatValue renders a channel value: alerts as ON/OFF, continuous channels
// with their fixed display precision.
func FormatValue(out logic.Output) []byte {
	if out.Channel.Binary() {
		if out.On {
			return []byte(logic.StateOn)
		}
		return []byte(logic.StateOff)
	}
	return strconv.AppendFloat(nil, out.Value, 'f', out.Channel.Decimals(), 64)
}

// AlertPayload is the MQTT message payload for an alert transition.
type AlertPayload struct {
	Alert AlertPayloadInner `json:"alert"`
}

// AlertPayloadInner contains the alert transition details.
type AlertPayloadInner struct {
	Timestamp string       `json:"timestamp"`
	Event     string       `json:"event"`
	Value     float64      `json:"value"`
	Tilt      ChannelState `json:"tilt"`
	Motion    ChannelState `json:"motion"`
}

// ChannelState represents a single alert's state.
type ChannelState struct {
	State string `json:"state"`
}

// FormatAlertPayload creates the JSON payload for an alert event.
// The value is rounded to 3 decimals.
func FormatAlertPayload(event logic.AlertEvent) ([]byte, error) {
	payload := AlertPayload{
		Alert: AlertPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Type),
			Value:     math.Round(event.Value*1000) / 1000,
			Tilt:      ChannelState{State: string(event.TiltState)},
			Motion:    ChannelState{State: string(event.MotionState)},
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
