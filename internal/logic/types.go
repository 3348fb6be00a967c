// Package logic contains the pure input-event and cooperative-timing core
// shared by every demo: debouncing, click classification, periodic tasks,
// thermal classification and sensor health tracking.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injected as a wrapping millisecond counter.
package logic

// Edge is a debounced transition of a digital input.
type Edge string

const (
	EdgePressed  Edge = "PRESSED"
	EdgeReleased Edge = "RELEASED"
)

// ClickEvent is the output of the click classifier.
type ClickEvent string

const (
	ClickNone   ClickEvent = ""
	ClickSingle ClickEvent = "SINGLE"
	ClickDouble ClickEvent = "DOUBLE"
)

// ThermalState is the level-triggered classification of a temperature delta.
type ThermalState string

const (
	ThermalNormal  ThermalState = "NORMAL"
	ThermalWarning ThermalState = "WARNING"
	ThermalAlarm   ThermalState = "ALARM"
)

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	Edges   int
	Singles int
	Doubles int
	Beats   int
}

// Count increments the counter matching a click event.
func (c *EventCounts) Count(ev ClickEvent) {
	switch ev {
	case ClickSingle:
		c.Singles++
	case ClickDouble:
		c.Doubles++
	}
}
