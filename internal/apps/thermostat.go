package apps

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sweeney/picodemos/internal/analog"
	"github.com/sweeney/picodemos/internal/config"
	"github.com/sweeney/picodemos/internal/display"
	"github.com/sweeney/picodemos/internal/logic"
	"github.com/sweeney/picodemos/internal/mathx"
	"github.com/sweeney/picodemos/internal/mqtt"
	"github.com/sweeney/picodemos/internal/sensor"
	"github.com/sweeney/picodemos/internal/status"
)

// StateDisconnected is reported instead of a thermal state while the
// sensor is considered gone.
const StateDisconnected = "DISCONNECTED"

// Display texts.
const (
	alarmText  = "*** ALARM ***"
	absentText = "Sensor absent"
)

// ThermostatConfig wires the thermostat.
type ThermostatConfig struct {
	Setpoint sensor.Thermometer // usually an ADCThermometer on the potentiometer
	Sensor   sensor.Thermometer
	LED      analog.Output
	Buzzer   analog.Output
	Display  display.TextDisplay
	Tuning   config.Thermostat
}

// Thermostat compares a measured temperature with a setpoint and drives
// an LED, a buzzer and a two-line display from the result.
type Thermostat struct {
	events
	env  Env
	cfg  ThermostatConfig
	tune config.Thermostat

	readTask    *logic.PeriodicTask
	blinkTask   *logic.PeriodicTask
	textTask    *logic.PeriodicTask
	displayTask *logic.PeriodicTask
	avg         *logic.MovingAverage
	health      *logic.SensorHealth

	setpoint  float64
	measured  float64
	state     string
	ledOn     bool
	ledDuty   float32
	textAlarm bool
	rows      [display.Rows]string
	shown     [display.Rows]string
	lcdFailed bool
	started   bool
}

// NewThermostat creates a thermostat. Its tasks are anchored on the first Step.
func NewThermostat(cfg ThermostatConfig, env Env) *Thermostat {
	t := cfg.Tuning
	if t.HighThreshold <= 0 {
		t.HighThreshold = logic.DefaultHighThreshold
	}
	if t.DisconnectAfter < 1 {
		t.DisconnectAfter = logic.DefaultDisconnectAfter
	}
	if cfg.Display == nil {
		cfg.Display = display.Nop{}
	}
	return &Thermostat{
		env:         env.withDefaults(),
		cfg:         cfg,
		tune:        t,
		readTask:    &logic.PeriodicTask{Interval: t.ReadMs},
		blinkTask:   &logic.PeriodicTask{Interval: t.WarnBlinkMs},
		textTask:    &logic.PeriodicTask{Interval: t.TextBlinkMs},
		displayTask: &logic.PeriodicTask{Interval: t.DisplayMs},
		avg:         logic.NewMovingAverage(t.Average),
		health:      logic.NewSensorHealth(t.DisconnectAfter),
	}
}

// Name implements App.
func (t *Thermostat) Name() string { return "thermostat" }

// State returns NORMAL, WARNING, ALARM, DISCONNECTED or "" before the
// first good reading.
func (t *Thermostat) State() string { return t.state }

// Start shows a splash screen for two seconds.
func (t *Thermostat) Start(ctx context.Context) error {
	t.env.Console.Info("Thermostat: sensor=%s read=%dms average=%d", t.tune.Sensor, t.tune.ReadMs, t.tune.Average)
	if err := t.cfg.Display.Clear(); err != nil {
		log.Printf("thermostat: display clear: %v", err)
	}
	t.writeRow(0, "Thermostat Pico")
	t.writeRow(1, "Ready")
	return t.env.Sleep(ctx, 2*time.Second)
}

// Step implements App.
func (t *Thermostat) Step(now uint32) {
	if !t.started {
		t.started = true
		for _, task := range []*logic.PeriodicTask{t.blinkTask, t.textTask, t.displayTask} {
			task.Reset(now)
		}
		// First reading happens right away.
		t.readTask.Force()
		if err := t.cfg.LED.SetFrequencyHz(analog.DefaultLEDHz); err != nil {
			log.Printf("thermostat: led frequency: %v", err)
		}
	}

	if sp, err := t.cfg.Setpoint.ReadCelsius(); err == nil {
		t.setpoint = sp
	}

	if t.readTask.Poll(now) {
		t.read()
	}

	next := t.classify()
	if next != t.state {
		t.transition(now, next)
	}

	t.driveLED(now)

	if t.state == string(logic.ThermalAlarm) && t.textTask.Poll(now) {
		t.textAlarm = !t.textAlarm
	}

	t.rows[0] = fmt.Sprintf("Set:%.1fC", t.setpoint)
	switch {
	case t.state == StateDisconnected:
		t.rows[1] = absentText
	case t.state == "":
		t.rows[1] = "Amb:--.-C"
	case t.state == string(logic.ThermalAlarm) && t.textAlarm:
		t.rows[1] = alarmText
	default:
		t.rows[1] = fmt.Sprintf("Amb:%.1fC", t.measured)
	}
	if t.displayTask.Poll(now) {
		t.refreshDisplay()
	}
}

func (t *Thermostat) read() {
	v, err := t.cfg.Sensor.ReadCelsius()
	wasConnected := t.health.Connected()
	if _, ok := t.health.Observe(v, err); ok && err == nil {
		t.avg.Add(v)
		t.measured = mathx.Round1(t.avg.Mean())
	}
	if err != nil {
		if errors.Is(err, sensor.ErrTransient) {
			log.Printf("thermostat: sensor read (%d in a row): %v", t.health.Failures(), err)
		} else {
			log.Printf("thermostat: sensor read: %v", err)
		}
	}
	if wasConnected && !t.health.Connected() {
		// Start smoothing afresh when the sensor comes back.
		t.avg.Reset()
	}
}

func (t *Thermostat) classify() string {
	if !t.health.Connected() {
		return StateDisconnected
	}
	if t.avg.Len() == 0 {
		return ""
	}
	return string(logic.Classify(t.measured, t.setpoint, t.tune.HighThreshold))
}

func (t *Thermostat) transition(now uint32, next string) {
	prev := t.state
	t.state = next

	t.ledOn = false
	t.textAlarm = false
	t.textTask.Reset(now)
	t.blinkTask.Reset(now)

	if prev == StateDisconnected && next != StateDisconnected {
		t.env.Console.Success("Sensor reconnected")
	}

	switch next {
	case string(logic.ThermalAlarm):
		t.blinkTask.Interval = t.tune.AlarmBlinkMs
		t.env.Console.Alert("ALARM: Amb:%.1fC Set:%.1fC", t.measured, t.setpoint)
		t.setBuzzer(true)
	case string(logic.ThermalWarning):
		t.blinkTask.Interval = t.tune.WarnBlinkMs
		t.env.Console.Warning("Warning: Amb:%.1fC Set:%.1fC", t.measured, t.setpoint)
		t.setBuzzer(false)
	case StateDisconnected:
		t.env.Console.Warning("Sensor disconnected")
		t.setBuzzer(false)
	default:
		t.setBuzzer(false)
	}

	if next == "" {
		return
	}
	t.emit(mqtt.EventThermal, next, t.values())
}

func (t *Thermostat) driveLED(now uint32) {
	var duty float32
	switch t.state {
	case string(logic.ThermalWarning):
		if t.blinkTask.Poll(now) {
			t.ledOn = !t.ledOn
		}
		if t.ledOn {
			duty = 1
		}
	case string(logic.ThermalAlarm):
		if t.blinkTask.Poll(now) {
			t.ledOn = !t.ledOn
		}
		if t.ledOn {
			delta := t.measured - t.setpoint
			duty = float32(mathx.Clamp((delta-t.tune.HighThreshold)/5, 0, 1))
		}
	}
	if duty == t.ledDuty {
		return
	}
	if err := t.cfg.LED.SetDutyFraction(duty); err != nil {
		log.Printf("thermostat: led: %v", err)
		return
	}
	t.ledDuty = duty
}

func (t *Thermostat) setBuzzer(on bool) {
	var err error
	if on {
		err = errors.Join(t.cfg.Buzzer.SetFrequencyHz(t.tune.BuzzerHz), t.cfg.Buzzer.SetDutyFraction(0.5))
	} else {
		err = t.cfg.Buzzer.SetDutyFraction(0)
	}
	if err != nil {
		log.Printf("thermostat: buzzer: %v", err)
	}
}

func (t *Thermostat) refreshDisplay() {
	for row := range t.rows {
		if t.rows[row] == t.shown[row] {
			continue
		}
		if !t.writeRow(uint8(row), t.rows[row]) {
			return
		}
	}
}

// writeRow logs only the first failure of a run so a missing panel does
// not flood the log.
func (t *Thermostat) writeRow(row uint8, text string) bool {
	if err := display.WriteRow(t.cfg.Display, row, text); err != nil {
		if !t.lcdFailed {
			log.Printf("thermostat: display: %v", err)
			t.lcdFailed = true
		}
		return false
	}
	if t.lcdFailed {
		log.Printf("thermostat: display recovered")
		t.lcdFailed = false
	}
	t.shown[row] = text
	return true
}

func (t *Thermostat) values() map[string]float64 {
	v := map[string]float64{"setpoint": t.setpoint}
	if t.health.Connected() && t.avg.Len() > 0 {
		v["measured"] = t.measured
		v["delta"] = mathx.Round1(t.measured - t.setpoint)
	}
	return v
}

// Report implements App.
func (t *Thermostat) Report() status.Report {
	values := t.values()
	values["led"] = float64(t.ledDuty)
	sensorState := "connected"
	if !t.health.Connected() {
		sensorState = "disconnected"
	}
	return status.Report{
		State:  t.state,
		Values: values,
		Labels: map[string]string{
			"sensor": t.tune.Sensor + " (" + sensorState + ")",
			"row1":   t.rows[0],
			"row2":   t.rows[1],
		},
		Counts: t.counts,
	}
}

// Shutdown implements App.
func (t *Thermostat) Shutdown() {
	if err := t.cfg.LED.SetDutyFraction(0); err != nil {
		log.Printf("thermostat: led off: %v", err)
	}
	t.ledDuty = 0
	t.setBuzzer(false)
	if err := t.cfg.Display.Clear(); err != nil {
		log.Printf("thermostat: display clear: %v", err)
	}
	t.writeRow(0, "System stopped")
}
