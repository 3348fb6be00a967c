package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string             `json:"event,omitempty"`
	Reason        string             `json:"reason,omitempty"`
	App           string             `json:"app"`
	Instance      string             `json:"instance"`
	State         string             `json:"state"`
	Ready         bool               `json:"ready"`
	UptimeSeconds int64              `json:"uptime_seconds"`
	StartTime     string             `json:"start_time"`
	Timestamp     string             `json:"timestamp"`
	MQTT          MQTTStatus         `json:"mqtt"`
	Counts        CountsJSON         `json:"event_counts"`
	Values        map[string]float64 `json:"values,omitempty"`
	Labels        map[string]string  `json:"labels,omitempty"`
	Network       *NetworkJSON       `json:"network,omitempty"`
	Config        ConfigJSON         `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Edges   int `json:"edges"`
	Singles int `json:"singles"`
	Doubles int `json:"doubles"`
	Beats   int `json:"beats"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of run config.
type ConfigJSON struct {
	LoopMs        int64  `json:"loop_ms"`
	DebounceMs    int64  `json:"debounce_ms"`
	DoubleClickMs int64  `json:"double_click_ms"`
	HeartbeatMs   int64  `json:"heartbeat_ms"`
	Broker        string `json:"broker"`
	HTTPPort      string `json:"http_port"`
	WSBroker      string `json:"ws_broker,omitempty"`
}

func buildInner(snap Snapshot) StatusInner {
	state := snap.State
	if state == "" {
		state = "UNKNOWN"
	}

	inner := StatusInner{
		App:           snap.App,
		Instance:      snap.InstanceID,
		State:         state,
		Ready:         snap.Ready,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Edges:   snap.Counts.Edges,
			Singles: snap.Counts.Singles,
			Doubles: snap.Counts.Doubles,
			Beats:   snap.Counts.Beats,
		},
		Values: snap.Values,
		Labels: snap.Labels,
		Config: ConfigJSON{
			LoopMs:        snap.Config.LoopMs,
			DebounceMs:    snap.Config.DebounceMs,
			DoubleClickMs: snap.Config.DoubleClickMs,
			HeartbeatMs:   snap.Config.HeartbeatMs,
			Broker:        snap.Config.Broker,
			HTTPPort:      snap.Config.HTTPPort,
			WSBroker:      snap.Config.WSBroker,
		},
	}
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
