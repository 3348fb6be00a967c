package apps

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sweeney/picodemos/internal/analog"
	"github.com/sweeney/picodemos/internal/config"
	"github.com/sweeney/picodemos/internal/logic"
	"github.com/sweeney/picodemos/internal/mqtt"
	"github.com/sweeney/picodemos/internal/status"
)

// Smooth move parameters used by the sweep test and parking.
const (
	sweepSteps = 15
	sweepDelay = 30 * time.Millisecond
)

// ServoClockConfig wires the servo clock.
type ServoClockConfig struct {
	Button ButtonConfig // needs DoubleClickMs > 0
	Servo  *analog.Servo
	Tuning config.Clock
}

// ServoClock shows the hour of a chosen timezone as a servo angle. A single
// click moves to the next zone and a double click toggles 12h/24h dials.
type ServoClock struct {
	events
	env    Env
	button *button
	servo  *analog.Servo
	zones  []config.Zone
	update *logic.PeriodicTask

	zone      int
	is24      bool
	hour, min int
	started   bool
}

// NewServoClock creates a clock on the configured default zone in 12h mode.
func NewServoClock(cfg ServoClockConfig, env Env) *ServoClock {
	zones := cfg.Tuning.Zones
	if len(zones) == 0 {
		zones = []config.Zone{{Name: "UTC", Offset: 0}}
	}
	zone := cfg.Tuning.DefaultZone
	if zone < 0 || zone >= len(zones) {
		zone = 0
	}
	return &ServoClock{
		env:    env.withDefaults(),
		button: newButton(cfg.Button),
		servo:  cfg.Servo,
		zones:  zones,
		zone:   zone,
		update: &logic.PeriodicTask{Interval: cfg.Tuning.UpdateMs},
	}
}

// Name implements App.
func (c *ServoClock) Name() string { return "clock" }

// Zone returns the selected timezone.
func (c *ServoClock) Zone() config.Zone { return c.zones[c.zone] }

// Is24h reports the dial mode.
func (c *ServoClock) Is24h() bool { return c.is24 }

// Start prints usage and sweeps the servo through its range.
func (c *ServoClock) Start(ctx context.Context) error {
	p := c.env.Console
	p.Banner("Servo timezone clock")
	p.Info("Single click: next timezone")
	p.Info("Double click: toggle 12h/24h")
	p.Info("Starting zone: %s", c.Zone().Name)

	c.setAngle(0)
	if err := c.env.Sleep(ctx, time.Second); err != nil {
		return err
	}
	for _, target := range []float64{90, 180, 90} {
		if err := c.servo.SmoothMove(ctx, target, sweepSteps, sweepDelay, c.env.Sleep); err != nil {
			return err
		}
		if err := c.env.Sleep(ctx, 500*time.Millisecond); err != nil {
			return err
		}
	}
	p.Success("Servo test complete")
	return nil
}

// Step implements App.
func (c *ServoClock) Step(now uint32) {
	if !c.started {
		c.started = true
		c.update.Force()
	}

	_, click := c.button.poll(now, &c.counts)
	if click != logic.ClickNone {
		c.emit(mqtt.EventClick, string(click), nil)
	}
	switch click {
	case logic.ClickSingle:
		c.zone = (c.zone + 1) % len(c.zones)
		c.env.Console.Info("Timezone: %s", c.Zone().Name)
		c.emit(mqtt.EventZone, c.Zone().Name, map[string]float64{"offset": float64(c.Zone().Offset)})
		c.update.Force()
	case logic.ClickDouble:
		c.is24 = !c.is24
		c.env.Console.Info("Mode: %s", c.modeName())
		c.emit(mqtt.EventMode, c.modeName(), nil)
		c.update.Force()
	}

	if c.update.Poll(now) {
		c.show(c.env.Now())
	}
}

// show moves the hand to the time at t in the selected zone.
func (c *ServoClock) show(t time.Time) {
	utc := t.UTC()
	c.hour = zoneHour(utc.Hour(), c.Zone().Offset)
	c.min = utc.Minute()
	angle := DialAngle(c.hour, c.min, c.is24)
	c.setAngle(angle)

	tag := "[12H]"
	if c.is24 {
		tag = "[24H]"
	}
	c.env.Console.Info(" %02d:%02d:%02d %s | %s | Angle: %5.1f°",
		c.hour, c.min, utc.Second(), tag, c.Zone().Name, angle)
}

// zoneHour applies a whole-hour offset to a UTC hour.
func zoneHour(utcHour, offset int) int {
	return ((utcHour+offset)%24 + 24) % 24
}

// DialAngle maps a time of day to a servo angle. The 12h dial covers
// 12 hours in 180 degrees and the 24h dial covers the whole day.
func DialAngle(hour, minute int, is24 bool) float64 {
	if is24 {
		return float64(hour)*7.5 + float64(minute)*0.125
	}
	return float64(hour%12)*15 + float64(minute)*0.25
}

func (c *ServoClock) modeName() string {
	if c.is24 {
		return "24h"
	}
	return "12h"
}

func (c *ServoClock) setAngle(a float64) {
	if err := c.servo.SetAngle(a); err != nil {
		log.Printf("clock: servo: %v", err)
	}
}

// Report implements App.
func (c *ServoClock) Report() status.Report {
	z := c.Zone()
	return status.Report{
		State: c.modeName(),
		Values: map[string]float64{
			"angle":  c.servo.Angle(),
			"hour":   float64(c.hour),
			"minute": float64(c.min),
			"offset": float64(z.Offset),
		},
		Labels: map[string]string{
			"zone": fmt.Sprintf("%s (UTC%+d)", z.Name, z.Offset),
		},
		Counts: c.counts,
	}
}

// Shutdown parks the horn at 0 degrees and stops the pulses.
func (c *ServoClock) Shutdown() {
	ctx := context.Background()
	if err := c.servo.SmoothMove(ctx, 0, sweepSteps, sweepDelay, c.env.Sleep); err != nil {
		log.Printf("clock: park: %v", err)
	}
	_ = c.env.Sleep(ctx, 500*time.Millisecond)
	if err := c.servo.Detach(); err != nil {
		log.Printf("clock: detach: %v", err)
	}
	c.env.Console.Info("Servo parked")
}
