// Package config loads the deployment file that wires pins, buses and
// per-app tuning. Every field has a default, so an empty or missing file
// is a valid configuration.
package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/picodemos/internal/sensor"
)

// Config is the top-level picodemos.yml document.
type Config struct {
	LoopMs    int    `yaml:"loop_ms"`
	Heartbeat string `yaml:"heartbeat"`
	Broker    string `yaml:"broker"`
	WSBroker  string `yaml:"ws_broker"`
	HTTP      string `yaml:"http"`
	SysfsRoot string `yaml:"sysfs_root"`

	Pins  Pins  `yaml:"pins"`
	ADC   ADC   `yaml:"adc"`
	PWM   PWM   `yaml:"pwm"`
	I2C   I2C   `yaml:"i2c"`
	Input Input `yaml:"input"`

	Blink      Blink      `yaml:"blink"`
	Melody     Melody     `yaml:"melody"`
	Thermostat Thermostat `yaml:"thermostat"`
	Beat       Beat       `yaml:"beat"`
	Clock      Clock      `yaml:"clock"`
}

// Pins selects the GPIO character device and line offsets.
type Pins struct {
	Chip      string `yaml:"chip"`
	Button    int    `yaml:"button"`
	LED       int    `yaml:"led"`
	Pull      string `yaml:"pull"` // "up", "down" or "none"
	ActiveLow bool   `yaml:"active_low"`
}

// ADC selects the IIO device and channel for each analog signal.
type ADC struct {
	Device int  `yaml:"device"`
	Bits   uint `yaml:"bits"`
	Pot    int  `yaml:"pot"`
	Sensor int  `yaml:"sensor"`
	Sound  int  `yaml:"sound"`
}

// PWM selects the sysfs pwmchip and channel for each PWM output.
type PWM struct {
	Chip   int    `yaml:"chip"`
	Buzzer int    `yaml:"buzzer"`
	LED    int    `yaml:"led"`
	Servo  int    `yaml:"servo"`
	RGB    [3]int `yaml:"rgb"`
}

// I2C selects the bus and device addresses.
type I2C struct {
	Bus     int    `yaml:"bus"`
	Display uint16 `yaml:"display"`
}

// Input tunes the button pipeline.
type Input struct {
	DebounceMs    uint32 `yaml:"debounce_ms"`
	DoubleClickMs uint32 `yaml:"double_click_ms"`
}

// Blink tunes the button blinker.
type Blink struct {
	SlowMs uint32 `yaml:"slow_ms"`
	FastMs uint32 `yaml:"fast_ms"`
}

// Melody tunes the melody player.
type Melody struct {
	GapMs uint32 `yaml:"gap_ms"`
}

// Thermostat tunes the thermostat. ReadMs and Average are filled from the
// sensor preset when left at zero.
type Thermostat struct {
	Sensor          string  `yaml:"sensor"`
	ReadMs          uint32  `yaml:"read_ms"`
	Average         int     `yaml:"average"`
	SetpointMin     float64 `yaml:"setpoint_min"`
	SetpointMax     float64 `yaml:"setpoint_max"`
	HighThreshold   float64 `yaml:"high_threshold"`
	DisconnectAfter int     `yaml:"disconnect_after"`
	WarnBlinkMs     uint32  `yaml:"warn_blink_ms"`
	AlarmBlinkMs    uint32  `yaml:"alarm_blink_ms"`
	TextBlinkMs     uint32  `yaml:"text_blink_ms"`
	DisplayMs       uint32  `yaml:"display_ms"`
	BuzzerHz        uint32  `yaml:"buzzer_hz"`
	DHT11Device     int     `yaml:"dht11_device"`
}

// Beat tunes the beat detector.
type Beat struct {
	Threshold     float64 `yaml:"threshold"`
	MinIntervalMs uint32  `yaml:"min_interval_ms"`
	Window        int     `yaml:"window"`
	NoiseFloor    float64 `yaml:"noise_floor"`
	NoiseSamples  int     `yaml:"noise_samples"`
	MicCheckMs    uint32  `yaml:"mic_check_ms"`
	FadeStep      uint8   `yaml:"fade_step"`
	LogPath       string  `yaml:"log_path"`
}

// Zone is one entry of the servo clock's timezone list.
type Zone struct {
	Name   string `yaml:"name"`
	Offset int    `yaml:"offset"`
}

// Clock tunes the servo clock.
type Clock struct {
	Zones       []Zone `yaml:"zones"`
	DefaultZone int    `yaml:"default_zone"`
	UpdateMs    uint32 `yaml:"update_ms"`
	MinDuty     uint16 `yaml:"min_duty"`
	MaxDuty     uint16 `yaml:"max_duty"`
	ServoHz     uint32 `yaml:"servo_hz"`
}

// Preset is the read cadence and smoothing for one sensor variant.
type Preset struct {
	ReadMs  uint32
	Average int
}

// Presets holds the per-variant thermostat defaults.
var Presets = map[sensor.Kind]Preset{
	sensor.KindSim:   {ReadMs: 100, Average: 1},
	sensor.KindDHT20: {ReadMs: 2000, Average: 10},
	sensor.KindDHT11: {ReadMs: 1000, Average: 5},
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LoopMs:    10,
		Heartbeat: "15m",
		Broker:    "tcp://192.168.1.200:1883",
		WSBroker:  "=broker",
		HTTP:      ":80",
		SysfsRoot: "/sys",
		Pins: Pins{
			Chip:   "gpiochip0",
			Button: 18,
			LED:    16,
			Pull:   "down",
		},
		ADC:   ADC{Device: 0, Bits: 12, Pot: 0, Sensor: 1, Sound: 2},
		PWM:   PWM{Chip: 0, Buzzer: 0, LED: 1, Servo: 0, RGB: [3]int{1, 2, 3}},
		I2C:   I2C{Bus: 1, Display: 0x3E},
		Input: Input{DebounceMs: 20, DoubleClickMs: 400},
		Blink: Blink{SlowMs: 1000, FastMs: 300},
		Melody: Melody{
			GapMs: 50,
		},
		Thermostat: Thermostat{
			Sensor:          string(sensor.KindSim),
			SetpointMin:     15,
			SetpointMax:     35,
			HighThreshold:   3.0,
			DisconnectAfter: 2,
			WarnBlinkMs:     500,
			AlarmBlinkMs:    250,
			TextBlinkMs:     500,
			DisplayMs:       100,
			BuzzerHz:        800,
		},
		Beat: Beat{
			Threshold:     25000,
			MinIntervalMs: 1000,
			Window:        50,
			NoiseFloor:    500,
			NoiseSamples:  20,
			MicCheckMs:    5000,
			FadeStep:      5,
			LogPath:       "bpm_log.txt",
		},
		Clock: Clock{
			Zones: []Zone{
				{Name: "UTC", Offset: 0},
				{Name: "UTC+1", Offset: 1},
				{Name: "UTC+2", Offset: 2},
				{Name: "UTC-5", Offset: -5},
				{Name: "UTC+9", Offset: 9},
				{Name: "UTC-8", Offset: -8},
			},
			DefaultZone: 1,
			UpdateMs:    1000,
			MinDuty:     1640,
			MaxDuty:     8190,
			ServoHz:     50,
		},
	}
}

// Load reads path over the defaults and validates the result. An empty
// path returns the validated defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks ranges and fills thermostat preset fields left at zero.
func (c *Config) Validate() error {
	if c.LoopMs < 1 || c.LoopMs > 100 {
		return fmt.Errorf("loop_ms must be between 1 and 100, got %d", c.LoopMs)
	}
	if _, err := c.HeartbeatInterval(); err != nil {
		return err
	}

	switch c.Pins.Pull {
	case "up", "down", "none":
	default:
		return fmt.Errorf("pins.pull must be up, down or none, got %q", c.Pins.Pull)
	}
	if c.ADC.Bits < 1 || c.ADC.Bits > 16 {
		return fmt.Errorf("adc.bits must be between 1 and 16, got %d", c.ADC.Bits)
	}
	if c.Input.DebounceMs == 0 {
		return fmt.Errorf("input.debounce_ms must be > 0")
	}
	if c.Input.DoubleClickMs == 0 {
		return fmt.Errorf("input.double_click_ms must be > 0")
	}

	if err := c.Thermostat.validate(); err != nil {
		return err
	}

	if c.Beat.Window < 1 || c.Beat.NoiseSamples < 2 {
		return fmt.Errorf("beat.window must be >= 1 and beat.noise_samples >= 2")
	}
	if c.Beat.LogPath == "" {
		return fmt.Errorf("beat.log_path must not be empty")
	}

	if len(c.Clock.Zones) == 0 {
		return fmt.Errorf("clock.zones must list at least one timezone")
	}
	if c.Clock.DefaultZone < 0 || c.Clock.DefaultZone >= len(c.Clock.Zones) {
		return fmt.Errorf("clock.default_zone %d out of range (0-%d)", c.Clock.DefaultZone, len(c.Clock.Zones)-1)
	}
	if c.Clock.MinDuty >= c.Clock.MaxDuty {
		return fmt.Errorf("clock.min_duty (%d) must be below clock.max_duty (%d)", c.Clock.MinDuty, c.Clock.MaxDuty)
	}
	return nil
}

func (t *Thermostat) validate() error {
	kind, err := sensor.ParseKind(t.Sensor)
	if err != nil {
		return fmt.Errorf("thermostat.sensor: %w", err)
	}
	preset := Presets[kind]
	if t.ReadMs == 0 {
		t.ReadMs = preset.ReadMs
	}
	if t.Average == 0 {
		t.Average = preset.Average
	}
	if t.Average < 0 {
		return fmt.Errorf("thermostat.average must be >= 1, got %d", t.Average)
	}
	if t.SetpointMin >= t.SetpointMax {
		return fmt.Errorf("thermostat.setpoint_min must be below setpoint_max")
	}
	if t.HighThreshold <= 0 {
		return fmt.Errorf("thermostat.high_threshold must be > 0, got %v", t.HighThreshold)
	}
	if t.DisconnectAfter < 1 {
		return fmt.Errorf("thermostat.disconnect_after must be >= 1, got %d", t.DisconnectAfter)
	}
	return nil
}

// SensorKind returns the parsed thermostat sensor variant.
func (c *Config) SensorKind() sensor.Kind {
	return sensor.Kind(c.Thermostat.Sensor)
}

// Loop returns the host loop period.
func (c *Config) Loop() time.Duration {
	return time.Duration(c.LoopMs) * time.Millisecond
}

// MaxHeartbeat is the longest heartbeat the wrapping millisecond clock can time.
const MaxHeartbeat = time.Duration(math.MaxUint32) * time.Millisecond

// HeartbeatInterval parses the heartbeat period. "0" or "" disables it.
func (c *Config) HeartbeatInterval() (time.Duration, error) {
	if c.Heartbeat == "" || c.Heartbeat == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Heartbeat)
	if err != nil {
		return 0, fmt.Errorf("heartbeat: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("heartbeat must not be negative, got %v", d)
	}
	// The loop clock wraps at 2^32 ms.
	if d.Milliseconds() > math.MaxUint32 {
		return 0, fmt.Errorf("heartbeat must be under %v, got %v", MaxHeartbeat, d)
	}
	return d, nil
}
