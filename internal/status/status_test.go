package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/picodemos/internal/logic"
)

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{App: "thermostat", LoopMs: 10, DebounceMs: 20, Broker: "tcp://localhost:1883", HTTPPort: ":80"}
	tr := NewTracker(start, "run-1", cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.App != "thermostat" || snap.InstanceID != "run-1" {
		t.Errorf("identity: got %q/%q", snap.App, snap.InstanceID)
	}
	if snap.Config.LoopMs != 10 {
		t.Errorf("Config.LoopMs: got %d, want 10", snap.Config.LoopMs)
	}
	if snap.Ready {
		t.Error("expected Ready=false before the first report")
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(time.Now(), "", Config{})

	tr.Update(Report{
		State:  "ALARM",
		Values: map[string]float64{"setpoint": 24, "measured": 28},
		Labels: map[string]string{"row1": "Set:24.0C"},
		Counts: logic.EventCounts{Edges: 4, Singles: 1},
	})

	snap := tr.Snapshot()
	if snap.State != "ALARM" {
		t.Errorf("State: got %q, want ALARM", snap.State)
	}
	if !snap.Ready {
		t.Error("expected Ready=true after a report")
	}
	if snap.Values["measured"] != 28 {
		t.Errorf("Values: got %v", snap.Values)
	}
	if snap.Labels["row1"] != "Set:24.0C" {
		t.Errorf("Labels: got %v", snap.Labels)
	}
	if snap.Counts.Edges != 4 || snap.Counts.Singles != 1 {
		t.Errorf("Counts: got %+v", snap.Counts)
	}
}

func TestUpdateCopiesMaps(t *testing.T) {
	tr := NewTracker(time.Now(), "", Config{})
	values := map[string]float64{"bpm": 120}
	tr.Update(Report{State: "LISTENING", Values: values})

	values["bpm"] = 0
	if got := tr.Snapshot().Values["bpm"]; got != 120 {
		t.Errorf("tracker should hold its own copy, got bpm=%v", got)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), "", Config{})
	tr.Update(Report{State: "MODE 1", Values: map[string]float64{"mode": 1}})

	snap := tr.Snapshot()
	snap.Values["mode"] = 3
	snap.State = "MODE 3"

	again := tr.Snapshot()
	if again.State != "MODE 1" || again.Values["mode"] != 1 {
		t.Errorf("mutating a snapshot leaked into the tracker: %+v", again)
	}
}

func TestSetMQTTConnectedAndNetwork(t *testing.T) {
	tr := NewTracker(time.Now(), "", Config{})
	tr.SetMQTTConnected(true)
	tr.SetNetwork(&NetworkInfo{Type: "wifi", IP: "192.168.1.50", Status: "connected"})

	snap := tr.Snapshot()
	if !snap.MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}
	if snap.Network == nil || snap.Network.IP != "192.168.1.50" {
		t.Errorf("Network: got %+v", snap.Network)
	}
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Now().Add(-5 * time.Second)
	tr := NewTracker(start, "", Config{})
	if up := tr.Snapshot().Uptime(); up < 5*time.Second {
		t.Errorf("expected uptime >= 5s, got %v", up)
	}
}

func TestFormatJSON(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		App:           "clock",
		InstanceID:    "abc",
		State:         "24h",
		Ready:         true,
		Values:        map[string]float64{"angle": 97.5},
		Labels:        map[string]string{"zone": "UTC+1"},
		Counts:        logic.EventCounts{Edges: 6, Singles: 2, Doubles: 1},
		StartTime:     start,
		Now:           start.Add(15 * time.Minute),
		MQTTConnected: true,
		Config:        Config{App: "clock", LoopMs: 10, DebounceMs: 20, DoubleClickMs: 400, HeartbeatMs: 900000, Broker: "tcp://localhost:1883", HTTPPort: ":80"},
	}

	data := FormatJSON(snap)

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	s := parsed.Status
	if s.App != "clock" || s.Instance != "abc" || s.State != "24h" {
		t.Errorf("identity/state: got %q %q %q", s.App, s.Instance, s.State)
	}
	if !s.Ready {
		t.Error("expected Ready=true")
	}
	if s.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", s.UptimeSeconds)
	}
	if !s.MQTT.Connected || s.MQTT.Broker != "tcp://localhost:1883" {
		t.Errorf("MQTT: got %+v", s.MQTT)
	}
	if s.Counts.Singles != 2 || s.Counts.Doubles != 1 || s.Counts.Edges != 6 {
		t.Errorf("Counts: got %+v", s.Counts)
	}
	if s.Values["angle"] != 97.5 || s.Labels["zone"] != "UTC+1" {
		t.Errorf("Values/Labels: got %v %v", s.Values, s.Labels)
	}
	if s.Config.DoubleClickMs != 400 {
		t.Errorf("Config.DoubleClickMs: got %d", s.Config.DoubleClickMs)
	}
	if s.Event != "" || s.Reason != "" {
		t.Errorf("web format must not carry event/reason, got %q/%q", s.Event, s.Reason)
	}
	if s.Network != nil {
		t.Error("network should be omitted when nil")
	}
}

func TestFormatJSONUnknownState(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	var parsed StatusJSON
	json.Unmarshal(FormatJSON(snap), &parsed)

	if parsed.Status.State != "UNKNOWN" {
		t.Errorf("State: got %q, want UNKNOWN", parsed.Status.State)
	}
}

func TestFormatStatusEvent(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		App:       "beat",
		State:     "LISTENING",
		StartTime: start,
		Now:       start.Add(time.Hour),
		Network:   &NetworkInfo{Type: "wifi", SSID: "MyNet"},
	}

	data := FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Event != "SHUTDOWN" || parsed.Status.Reason != "SIGTERM" {
		t.Errorf("event/reason: got %q/%q", parsed.Status.Event, parsed.Status.Reason)
	}
	if parsed.Status.Network == nil || parsed.Status.Network.SSID != "MyNet" {
		t.Errorf("Network: got %+v", parsed.Status.Network)
	}
	if parsed.Status.UptimeSeconds != 3600 {
		t.Errorf("UptimeSeconds: got %d", parsed.Status.UptimeSeconds)
	}
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	snap := Snapshot{StartTime: time.Now(), Now: time.Now()}
	var parsed map[string]map[string]interface{}
	if err := json.Unmarshal(FormatStatusEvent(snap, "STARTUP", ""), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := parsed["status"]["reason"]; ok {
		t.Error("reason should be omitted when empty")
	}
	if parsed["status"]["event"] != "STARTUP" {
		t.Errorf("event: got %v", parsed["status"]["event"])
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), "", Config{})
	var wg sync.WaitGroup

	// Writer
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			tr.Update(Report{State: "NORMAL", Values: map[string]float64{"i": float64(i)}, Counts: logic.EventCounts{Edges: i}})
			tr.SetMQTTConnected(i%2 == 0)
			tr.SetNetwork(&NetworkInfo{IP: "1.2.3.4"})
		}
	}()

	// Reader
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := tr.Snapshot()
			_ = snap.Uptime()
			_ = FormatJSON(snap)
		}
	}()

	wg.Wait()
}
