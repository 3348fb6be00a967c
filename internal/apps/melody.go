package apps

import (
	"log"

	"github.com/sweeney/picodemos/internal/analog"
	"github.com/sweeney/picodemos/internal/gpio"
	"github.com/sweeney/picodemos/internal/logic"
	"github.com/sweeney/picodemos/internal/mqtt"
	"github.com/sweeney/picodemos/internal/status"
)

// Note is one tone of a melody.
type Note struct {
	Hz uint32
	Ms uint32
}

// Tune is a named, looping melody.
type Tune struct {
	Name  string
	Notes []Note
}

func tune(name string, hz []uint32, ms []uint32) Tune {
	t := Tune{Name: name, Notes: make([]Note, len(hz))}
	for i := range hz {
		t.Notes[i] = Note{Hz: hz[i], Ms: ms[i]}
	}
	return t
}

// Tunes are the built-in melodies, in button order.
var Tunes = []Tune{
	tune("Merry Christmas",
		[]uint32{
			392, 392, 440, 392, 523, 494,
			392, 392, 440, 392, 587, 523,
			392, 392, 784, 659, 523, 494, 440,
			698, 698, 659, 523, 587, 523,
		},
		[]uint32{
			400, 400, 400, 400, 400, 600,
			400, 400, 400, 400, 400, 600,
			400, 400, 400, 400, 400, 400, 600,
			600, 400, 400, 400, 400, 800,
		}),
	tune("Ode to Joy",
		[]uint32{
			330, 330, 349, 392, 392, 349, 330, 294,
			262, 262, 294, 330, 330, 294, 294,
			330, 330, 349, 392, 392, 349, 330, 294,
			262, 262, 294, 330, 294, 262, 262,
		},
		[]uint32{
			300, 300, 300, 300, 300, 300, 300, 300,
			300, 300, 300, 300, 300, 300, 600,
			300, 300, 300, 300, 300, 300, 300, 300,
			300, 300, 300, 300, 300, 300, 600,
		}),
}

// MelodyConfig wires the melody player.
type MelodyConfig struct {
	Button ButtonConfig
	Buzzer analog.Output
	Volume analog.Input // potentiometer, sets buzzer duty
	LED    gpio.Output  // lit while a note sounds
	GapMs  uint32       // silence between notes
	Tunes  []Tune       // defaults to Tunes
}

// Melody plays looping tunes on a buzzer without blocking. A button press
// switches to the next tune from its first note.
type Melody struct {
	events
	env    Env
	button *button
	buzzer analog.Output
	volume analog.Input
	led    gpio.Output
	gap    uint32
	tunes  []Tune

	tune    int
	note    int
	sound   bool // in the note phase rather than the gap
	since   uint32
	started bool
	duty    float32 // latest potentiometer reading
	applied float32 // duty last written to the buzzer
}

// NewMelody creates a player that starts the first tune on its first Step.
func NewMelody(cfg MelodyConfig, env Env) *Melody {
	tunes := cfg.Tunes
	if len(tunes) == 0 {
		tunes = Tunes
	}
	return &Melody{
		env:    env.withDefaults(),
		button: newButton(cfg.Button),
		buzzer: cfg.Buzzer,
		volume: cfg.Volume,
		led:    cfg.LED,
		gap:    cfg.GapMs,
		tunes:  tunes,
	}
}

// Name implements App.
func (m *Melody) Name() string { return "melody" }

// Tune returns the current tune index.
func (m *Melody) Tune() int { return m.tune }

// Note returns the current note index.
func (m *Melody) Note() int { return m.note }

// Sounding reports whether a note is playing (rather than the gap).
func (m *Melody) Sounding() bool { return m.sound }

// Step implements App.
func (m *Melody) Step(now uint32) {
	m.readVolume()

	if pressed, _ := m.button.poll(now, &m.counts); pressed {
		m.tune = (m.tune + 1) % len(m.tunes)
		m.note = 0
		m.env.Console.Info("Melody: %s", m.tunes[m.tune].Name)
		m.emit(mqtt.EventMode, m.tunes[m.tune].Name, map[string]float64{"tune": float64(m.tune)})
		m.startNote(now)
		return
	}

	if !m.started {
		m.started = true
		m.startNote(now)
		return
	}

	cur := m.tunes[m.tune].Notes[m.note]
	elapsed := logic.Elapsed(m.since, now)
	if m.sound {
		// Volume follows the potentiometer while the note sounds.
		if m.duty != m.applied {
			m.setDuty(m.duty)
		}
		if elapsed >= cur.Ms {
			m.sound = false
			m.since = now
			m.setDuty(0)
			m.setLED(false)
		}
		return
	}
	if elapsed >= m.gap {
		m.note = (m.note + 1) % len(m.tunes[m.tune].Notes)
		m.startNote(now)
	}
}

func (m *Melody) startNote(now uint32) {
	n := m.tunes[m.tune].Notes[m.note]
	m.sound = true
	m.since = now
	if err := m.buzzer.SetFrequencyHz(n.Hz); err != nil {
		log.Printf("melody: buzzer frequency: %v", err)
	}
	m.setDuty(m.duty)
	m.setLED(true)
}

func (m *Melody) readVolume() {
	raw, err := m.volume.ReadRaw()
	if err != nil {
		// Keep the previous volume.
		return
	}
	m.duty = float32(raw) / analog.FullScale
}

func (m *Melody) setDuty(d float32) {
	if err := m.buzzer.SetDutyFraction(d); err != nil {
		log.Printf("melody: buzzer duty: %v", err)
		return
	}
	m.applied = d
}

func (m *Melody) setLED(on bool) {
	if err := m.led.Write(on); err != nil {
		log.Printf("melody: led write: %v", err)
	}
}

// Report implements App.
func (m *Melody) Report() status.Report {
	t := m.tunes[m.tune]
	values := map[string]float64{
		"tune":   float64(m.tune),
		"note":   float64(m.note),
		"volume": float64(m.duty),
	}
	if m.sound {
		values["hz"] = float64(t.Notes[m.note].Hz)
	}
	return status.Report{
		State:  t.Name,
		Values: values,
		Counts: m.counts,
	}
}

// Shutdown implements App.
func (m *Melody) Shutdown() {
	m.setDuty(0)
	if err := m.buzzer.SetFrequencyHz(0); err != nil {
		log.Printf("melody: buzzer off: %v", err)
	}
	m.setLED(false)
	m.sound = false
}
