// Package mqtt publishes app events and lifecycle events, with an
// abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"
)

// TopicPrefix is the root of every picodemos topic.
const TopicPrefix = "picodemos"

// EventsTopic is where an app's input and state events go (QoS 0).
func EventsTopic(app string) string {
	return TopicPrefix + "/" + app + "/events"
}

// SystemTopic is where an app's lifecycle events go (QoS 1).
func SystemTopic(app string) string {
	return TopicPrefix + "/" + app + "/system"
}

// Event types published on the events topic.
const (
	EventClick   = "CLICK"   // State is SINGLE or DOUBLE
	EventMode    = "MODE"    // blinker mode, melody name, clock format
	EventZone    = "ZONE"    // servo clock timezone
	EventThermal = "THERMAL" // State is NORMAL, WARNING, ALARM or DISCONNECTED
	EventBeat    = "BEAT"
	EventMic     = "MIC" // State is PRESENT or ABSENT
	EventMinute  = "BPM_MINUTE"
)

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends an app event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Event is one app-level occurrence: a click, a mode change, a thermal
// state transition, a beat.
type Event struct {
	Timestamp time.Time
	App       string
	Type      string
	State     string
	Values    map[string]float64
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT", "OFFLINE"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload for app events.
type Payload struct {
	Event EventPayload `json:"event"`
}

// EventPayload contains the event details.
type EventPayload struct {
	Timestamp string             `json:"timestamp"`
	App       string             `json:"app"`
	Type      string             `json:"type"`
	State     string             `json:"state,omitempty"`
	Values    map[string]float64 `json:"values,omitempty"`
}

// FormatPayload creates the JSON payload for an app event.
func FormatPayload(event Event) ([]byte, error) {
	payload := Payload{
		Event: EventPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			App:       event.App,
			Type:      event.Type,
			State:     event.State,
			Values:    event.Values,
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

// WillEvent is the retained last-will message the broker publishes when the
// connection drops without a clean disconnect.
func WillEvent(at time.Time) SystemEvent {
	return SystemEvent{
		Timestamp: at,
		Event:     "OFFLINE",
		Reason:    "MQTT_DISCONNECT",
		Retained:  true,
	}
}
