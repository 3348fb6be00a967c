package apps

import (
	"fmt"
	"log"

	"github.com/sweeney/picodemos/internal/gpio"
	"github.com/sweeney/picodemos/internal/logic"
	"github.com/sweeney/picodemos/internal/mqtt"
	"github.com/sweeney/picodemos/internal/status"
)

// Blinker modes. Each press advances 1 -> 2 -> 3 -> 1.
const (
	ModeIdle = 0 // before the first press, LED off
	ModeSlow = 1
	ModeFast = 2
	ModeOff  = 3
)

// BlinkerConfig wires the button blinker.
type BlinkerConfig struct {
	Button ButtonConfig
	LED    gpio.Output
	SlowMs uint32
	FastMs uint32
}

// Blinker cycles an LED between slow blink, fast blink and off on each
// button press.
type Blinker struct {
	events
	env    Env
	button *button
	led    gpio.Output
	slow   uint32
	fast   uint32

	mode  int
	blink *logic.PeriodicTask
	ledOn bool
}

// NewBlinker creates a blinker in ModeIdle.
func NewBlinker(cfg BlinkerConfig, env Env) *Blinker {
	return &Blinker{
		env:    env.withDefaults(),
		button: newButton(cfg.Button),
		led:    cfg.LED,
		slow:   cfg.SlowMs,
		fast:   cfg.FastMs,
		blink:  &logic.PeriodicTask{},
	}
}

// Name implements App.
func (b *Blinker) Name() string { return "blink" }

// Mode returns the current mode.
func (b *Blinker) Mode() int { return b.mode }

// Step implements App.
func (b *Blinker) Step(now uint32) {
	if pressed, _ := b.button.poll(now, &b.counts); pressed {
		b.mode = b.mode%3 + 1
		b.enter(now)
	}

	switch b.mode {
	case ModeSlow, ModeFast:
		if b.blink.Poll(now) {
			b.setLED(!b.ledOn)
		}
	}
}

func (b *Blinker) enter(now uint32) {
	switch b.mode {
	case ModeSlow:
		b.blink.Interval = b.slow
	case ModeFast:
		b.blink.Interval = b.fast
	}
	b.blink.Reset(now)
	if b.mode == ModeOff {
		b.setLED(false)
	} else {
		// Start each blinking mode with the LED lit.
		b.setLED(true)
	}
	b.env.Console.Info("Mode %d", b.mode)
	b.emit(mqtt.EventMode, b.modeName(), map[string]float64{"mode": float64(b.mode)})
}

func (b *Blinker) setLED(on bool) {
	if err := b.led.Write(on); err != nil {
		log.Printf("blink: led write: %v", err)
		return
	}
	b.ledOn = on
}

func (b *Blinker) modeName() string {
	switch b.mode {
	case ModeSlow:
		return "SLOW"
	case ModeFast:
		return "FAST"
	case ModeOff:
		return "OFF"
	}
	return "IDLE"
}

// Report implements App.
func (b *Blinker) Report() status.Report {
	led := "off"
	if b.ledOn {
		led = "on"
	}
	labels := map[string]string{"led": led}
	if b.mode == ModeSlow || b.mode == ModeFast {
		labels["period"] = fmt.Sprintf("%dms", b.blink.Interval)
	}
	return status.Report{
		State:  b.modeName(),
		Values: map[string]float64{"mode": float64(b.mode)},
		Labels: labels,
		Counts: b.counts,
	}
}

// Shutdown implements App.
func (b *Blinker) Shutdown() {
	b.setLED(false)
}
