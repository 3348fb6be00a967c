// Package status provides a thread-safe status tracker for a running demo.
// It is written by the host loop and read by the HTTP status server.
package status

import (
	"maps"
	"sync"
	"time"

	"github.com/sweeney/picodemos/internal/logic"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains run configuration for display.
type Config struct {
	App           string
	LoopMs        int64
	DebounceMs    int64
	DoubleClickMs int64
	HeartbeatMs   int64
	Broker        string
	HTTPPort      string
	WSBroker      string // Websocket broker URL for browser MQTT (empty = disabled)
}

// Report is what an app exposes about itself each loop iteration.
type Report struct {
	State  string             // primary state, e.g. "ALARM", "MODE 2", "24h"
	Values map[string]float64 // numeric readings, e.g. setpoint, bpm, angle
	Labels map[string]string  // text details, e.g. timezone, melody, display rows
	Counts logic.EventCounts
}

// Snapshot is a point-in-time view of the running demo.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	App           string
	InstanceID    string
	State         string
	Ready         bool
	Values        map[string]float64
	Labels        map[string]string
	Counts        logic.EventCounts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the demo started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time, run instance ID
// and config.
func NewTracker(startTime time.Time, instanceID string, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			App:        cfg.App,
			InstanceID: instanceID,
			StartTime:  startTime,
			Config:     cfg,
		},
	}
}

// Update stores the app's latest report. Maps are copied.
// Called from the host loop on every tick.
func (t *Tracker) Update(r Report) {
	values := maps.Clone(r.Values)
	labels := maps.Clone(r.Labels)
	t.mu.Lock()
	t.snap.State = r.State
	t.snap.Ready = true
	t.snap.Values = values
	t.snap.Labels = labels
	t.snap.Counts = r.Counts
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Values = maps.Clone(t.snap.Values)
	s.Labels = maps.Clone(t.snap.Labels)
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
