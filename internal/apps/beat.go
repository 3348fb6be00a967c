package apps

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"github.com/sweeney/picodemos/internal/analog"
	"github.com/sweeney/picodemos/internal/bpmlog"
	"github.com/sweeney/picodemos/internal/config"
	"github.com/sweeney/picodemos/internal/logic"
	"github.com/sweeney/picodemos/internal/mathx"
	"github.com/sweeney/picodemos/internal/mqtt"
	"github.com/sweeney/picodemos/internal/status"
)

// Beat bookkeeping windows.
const (
	bpmWindowMs  = 10_000 // beats used for the tempo estimate
	beatKeepMs   = 60_000 // beats kept at all
	minuteMs     = 60_000
	testColorLvl = 10
)

// BeatConfig wires the beat detector.
type BeatConfig struct {
	Sound  analog.Input
	LED    *analog.RGBLed
	Log    *bpmlog.Log
	Rand   *rand.Rand // nil uses a time-seeded source
	Tuning config.Beat
}

// Beat flashes an RGB LED in a random colour on every sound peak and
// estimates the tempo from recent peaks.
type Beat struct {
	events
	env  Env
	cfg  BeatConfig
	tune config.Beat
	rnd  *rand.Rand

	window  *logic.MovingAverage // detection baseline
	noise   *logic.MovingAverage // microphone presence
	health  *logic.SensorHealth  // sound ADC read errors
	micTask *logic.PeriodicTask
	minute  *logic.PeriodicTask

	micPresent bool
	lastBeat   uint32
	hasBeat    bool
	beats      []uint32
	history    []float64
	bpm        float64
	level      uint16
	started    bool
}

// NewBeat creates a detector. The microphone is assumed present until the
// first presence check says otherwise.
func NewBeat(cfg BeatConfig, env Env) *Beat {
	rnd := cfg.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15))
	}
	return &Beat{
		env:        env.withDefaults(),
		cfg:        cfg,
		tune:       cfg.Tuning,
		rnd:        rnd,
		window:     logic.NewMovingAverage(cfg.Tuning.Window),
		noise:      logic.NewMovingAverage(cfg.Tuning.NoiseSamples),
		health:     logic.NewSensorHealth(cfg.Tuning.NoiseSamples),
		micTask:    &logic.PeriodicTask{Interval: cfg.Tuning.MicCheckMs},
		minute:     &logic.PeriodicTask{Interval: minuteMs},
		micPresent: true,
	}
}

// Name implements App.
func (b *Beat) Name() string { return "beat" }

// BPM returns the latest tempo estimate.
func (b *Beat) BPM() float64 { return b.bpm }

// MicPresent reports the last microphone presence check.
func (b *Beat) MicPresent() bool { return b.micPresent }

// Start lights the LED dim white for a second as a wiring check.
func (b *Beat) Start(ctx context.Context) error {
	b.env.Console.Banner("Beat detector")
	b.env.Console.Info("Threshold: %.0f  min interval: %dms", b.tune.Threshold, b.tune.MinIntervalMs)
	b.setColor(analog.Color{R: testColorLvl, G: testColorLvl, B: testColorLvl})
	err := b.env.Sleep(ctx, time.Second)
	b.setColor(analog.Color{})
	if err == nil {
		b.env.Console.Success("LED OK, listening")
	}
	return err
}

// Step implements App.
func (b *Beat) Step(now uint32) {
	if !b.started {
		b.started = true
		b.micTask.Reset(now)
		b.minute.Reset(now)
	}

	level, err := b.cfg.Sound.ReadRaw()
	sampled := err == nil
	if sampled {
		b.level = level
		b.noise.Add(float64(level))
	} else if b.health.Failures() == 0 {
		log.Printf("beat: sound read error: %v", err)
	}
	b.health.Observe(float64(level), err)
	if !b.health.Connected() {
		b.noise.Reset()
	}

	if b.micTask.Poll(now) && (b.noise.Full() || !b.health.Connected()) {
		b.checkMic()
	}

	if b.micPresent {
		if sampled {
			b.detect(now, level)
		}
		if b.minute.Poll(now) {
			b.closeMinute()
		}
	}

	if c := b.cfg.LED.Color(); !c.Off() {
		b.setColor(c.Faded(b.tune.FadeStep))
	}
}

func (b *Beat) checkMic() {
	present := b.health.Connected() && b.noise.StdDev() > b.tune.NoiseFloor
	if present == b.micPresent {
		return
	}
	b.micPresent = present
	if present {
		b.env.Console.Success("Microphone reconnected, resuming detection")
		b.emit(mqtt.EventMic, "PRESENT", nil)
		return
	}
	b.env.Console.Warning("Microphone disconnected")
	b.setColor(analog.Color{})
	b.window.Reset()
	b.emit(mqtt.EventMic, "ABSENT", nil)
}

func (b *Beat) detect(now uint32, level uint16) {
	b.window.Add(float64(level))
	avg := b.window.Mean()

	if float64(level) <= avg+b.tune.Threshold {
		return
	}
	if b.hasBeat && logic.Elapsed(b.lastBeat, now) <= b.tune.MinIntervalMs {
		return
	}
	b.lastBeat = now
	b.hasBeat = true
	b.counts.Beats++

	b.setColor(analog.Color{
		R: uint8(b.rnd.IntN(256)),
		G: uint8(b.rnd.IntN(256)),
		B: uint8(b.rnd.IntN(256)),
	})

	b.beats = append(b.beats, now)
	kept := b.beats[:0]
	for _, t := range b.beats {
		if logic.Elapsed(t, now) < beatKeepMs {
			kept = append(kept, t)
		}
	}
	b.beats = kept

	b.bpm = tempo(b.beats, now)
	values := map[string]float64{"level": float64(level)}
	if b.bpm > 0 {
		b.history = append(b.history, b.bpm)
		values["bpm"] = mathx.Round1(b.bpm)
		b.env.Console.Info("Beat! BPM: %.1f", b.bpm)
	}
	b.emit(mqtt.EventBeat, "", values)
}

// tempo estimates beats per minute from beats in the last bpmWindowMs.
// Fewer than two recent beats give 0.
func tempo(beats []uint32, now uint32) float64 {
	var recent []uint32
	for _, t := range beats {
		if logic.Elapsed(t, now) < bpmWindowMs {
			recent = append(recent, t)
		}
	}
	if len(recent) < 2 {
		return 0
	}
	span := logic.Elapsed(recent[0], recent[len(recent)-1])
	if span == 0 {
		return 0
	}
	mean := float64(span) / float64(len(recent)-1)
	return 60_000 / mean
}

func (b *Beat) closeMinute() {
	if len(b.history) == 0 {
		b.env.Console.Warning("No beats detected this minute")
		return
	}
	var sum float64
	for _, v := range b.history {
		sum += v
	}
	avg := sum / float64(len(b.history))
	b.history = nil

	b.env.Console.Banner(fmt.Sprintf("Average BPM last minute: %.1f", avg))
	if b.cfg.Log != nil {
		if err := b.cfg.Log.Append(b.env.Now(), avg); err != nil {
			log.Printf("beat: %v", err)
		}
	}
	b.emit(mqtt.EventMinute, "", map[string]float64{"bpm": mathx.Round1(avg)})
}

// hexColor formats c as #rrggbb.
func hexColor(c analog.Color) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (b *Beat) setColor(c analog.Color) {
	if err := b.cfg.LED.SetColor(c); err != nil {
		log.Printf("beat: led: %v", err)
	}
}

// Report implements App.
func (b *Beat) Report() status.Report {
	state := "LISTENING"
	if !b.micPresent {
		state = "NO MIC"
	}
	c := b.cfg.LED.Color()
	return status.Report{
		State: state,
		Values: map[string]float64{
			"bpm":      mathx.Round1(b.bpm),
			"level":    float64(b.level),
			"baseline": mathx.Round1(b.window.Mean()),
		},
		Labels: map[string]string{
			"color": hexColor(c),
		},
		Counts: b.counts,
	}
}

// Shutdown implements App.
func (b *Beat) Shutdown() {
	b.setColor(analog.Color{})
}
