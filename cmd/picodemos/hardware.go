package main

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/sweeney/picodemos/internal/analog"
	"github.com/sweeney/picodemos/internal/apps"
	"github.com/sweeney/picodemos/internal/bpmlog"
	"github.com/sweeney/picodemos/internal/config"
	"github.com/sweeney/picodemos/internal/display"
	"github.com/sweeney/picodemos/internal/gpio"
	"github.com/sweeney/picodemos/internal/hw"
	"github.com/sweeney/picodemos/internal/i2cbus"
	"github.com/sweeney/picodemos/internal/sensor"
)

// board opens peripherals on demand and closes them all on exit.
type board struct {
	cfg     *config.Config
	chip    *gpio.Chip
	i2c     *i2cbus.Dev
	closers []io.Closer
}

func openBoard(cfg *config.Config) (*board, error) {
	chip, err := gpio.OpenChip(cfg.Pins.Chip)
	if err != nil {
		return nil, fmt.Errorf("init gpio: %w", err)
	}
	return &board{cfg: cfg, chip: chip}, nil
}

// Close releases peripherals in reverse order of opening.
func (b *board) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i].Close())
	}
	errs = append(errs, b.chip.Close())
	return errors.Join(errs...)
}

func (b *board) button(doubleClick bool) (apps.ButtonConfig, error) {
	pull, err := gpio.ParsePull(b.cfg.Pins.Pull)
	if err != nil {
		return apps.ButtonConfig{}, err
	}
	in, err := b.chip.Input(b.cfg.Pins.Button, pull)
	if err != nil {
		return apps.ButtonConfig{}, fmt.Errorf("button: %w", err)
	}
	cfg := apps.ButtonConfig{
		Input:      in,
		ActiveLow:  b.cfg.Pins.ActiveLow,
		DebounceMs: b.cfg.Input.DebounceMs,
	}
	if doubleClick {
		cfg.DoubleClickMs = b.cfg.Input.DoubleClickMs
	}
	return cfg, nil
}

func (b *board) led() (gpio.Output, error) {
	out, err := b.chip.Output(b.cfg.Pins.LED, false)
	if err != nil {
		return nil, fmt.Errorf("led: %w", err)
	}
	return out, nil
}

func (b *board) adc(name string, channel int) (analog.Input, error) {
	in, err := analog.NewIIOInput(b.cfg.SysfsRoot, b.cfg.ADC.Device, channel, b.cfg.ADC.Bits)
	if err != nil {
		return nil, fmt.Errorf("%s adc: %w", name, err)
	}
	return in, nil
}

// pwm opens a PWM channel. A missing channel is logged and replaced by a
// silent output so the demo still runs.
func (b *board) pwm(name string, channel int) analog.Output {
	p, err := analog.OpenSysfsPWM(b.cfg.SysfsRoot, b.cfg.PWM.Chip, channel)
	if err != nil {
		log.Printf("%v, continuing without it", &hw.PeripheralInitError{Peripheral: name, Err: err})
		return analog.NopPWM{}
	}
	b.closers = append(b.closers, p)
	return p
}

func (b *board) bus() (*i2cbus.Dev, error) {
	if b.i2c != nil {
		return b.i2c, nil
	}
	dev, err := i2cbus.Open(b.cfg.I2C.Bus)
	if err != nil {
		return nil, err
	}
	b.i2c = dev
	b.closers = append(b.closers, dev)
	return dev, nil
}

// display opens the LCD, degrading to a no-op panel when it is absent.
func (b *board) display() display.TextDisplay {
	dev, err := b.bus()
	if err != nil {
		log.Printf("%v, continuing without display", &hw.PeripheralInitError{Peripheral: "lcd", Err: err})
		return display.Nop{}
	}
	lcd, err := display.OpenGrove(dev, b.cfg.I2C.Display)
	if err != nil {
		var initErr *hw.PeripheralInitError
		if errors.As(err, &initErr) {
			log.Printf("%v, continuing without display", initErr)
			return display.Nop{}
		}
		log.Printf("lcd: %v, continuing without display", err)
		return display.Nop{}
	}
	return lcd
}

func (b *board) thermometer(kind sensor.Kind) (sensor.Thermometer, error) {
	switch kind {
	case sensor.KindDHT20:
		dev, err := b.bus()
		if err != nil {
			return nil, &hw.PeripheralInitError{Peripheral: "dht20", Err: err}
		}
		return sensor.NewDHT20(dev), nil
	case sensor.KindDHT11:
		return sensor.NewDHT11(b.cfg.SysfsRoot, b.cfg.Thermostat.DHT11Device), nil
	default:
		adc, err := b.adc("sensor", b.cfg.ADC.Sensor)
		if err != nil {
			return nil, err
		}
		return sensor.NewADCThermometer(adc, sensor.SimMinC, sensor.SimMaxC), nil
	}
}

func buildBlinker(cfg *config.Config, b *board, env apps.Env) (apps.App, error) {
	btn, err := b.button(false)
	if err != nil {
		return nil, err
	}
	led, err := b.led()
	if err != nil {
		return nil, err
	}
	return apps.NewBlinker(apps.BlinkerConfig{
		Button: btn,
		LED:    led,
		SlowMs: cfg.Blink.SlowMs,
		FastMs: cfg.Blink.FastMs,
	}, env), nil
}

func buildMelody(cfg *config.Config, b *board, env apps.Env) (apps.App, error) {
	btn, err := b.button(false)
	if err != nil {
		return nil, err
	}
	led, err := b.led()
	if err != nil {
		return nil, err
	}
	pot, err := b.adc("volume", cfg.ADC.Pot)
	if err != nil {
		return nil, err
	}
	return apps.NewMelody(apps.MelodyConfig{
		Button: btn,
		Buzzer: b.pwm("buzzer", cfg.PWM.Buzzer),
		Volume: pot,
		LED:    led,
		GapMs:  cfg.Melody.GapMs,
	}, env), nil
}

func buildThermostat(cfg *config.Config, b *board, env apps.Env) (apps.App, error) {
	pot, err := b.adc("setpoint", cfg.ADC.Pot)
	if err != nil {
		return nil, err
	}
	therm, err := b.thermometer(cfg.SensorKind())
	if err != nil {
		return nil, err
	}
	return apps.NewThermostat(apps.ThermostatConfig{
		Setpoint: sensor.NewADCThermometer(pot, cfg.Thermostat.SetpointMin, cfg.Thermostat.SetpointMax),
		Sensor:   therm,
		LED:      b.pwm("led", cfg.PWM.LED),
		Buzzer:   b.pwm("buzzer", cfg.PWM.Buzzer),
		Display:  b.display(),
		Tuning:   cfg.Thermostat,
	}, env), nil
}

func buildBeat(cfg *config.Config, b *board, env apps.Env) (apps.App, error) {
	mic, err := b.adc("sound", cfg.ADC.Sound)
	if err != nil {
		return nil, err
	}
	rgb := cfg.PWM.RGB
	led, err := analog.NewRGBLed(b.pwm("red", rgb[0]), b.pwm("green", rgb[1]), b.pwm("blue", rgb[2]))
	if err != nil {
		log.Printf("rgb led: %v", err)
	}
	return apps.NewBeat(apps.BeatConfig{
		Sound:  mic,
		LED:    led,
		Log:    bpmlog.Open(cfg.Beat.LogPath),
		Tuning: cfg.Beat,
	}, env), nil
}

func buildClock(cfg *config.Config, b *board, env apps.Env) (apps.App, error) {
	btn, err := b.button(true)
	if err != nil {
		return nil, err
	}
	servo, err := analog.NewServo(b.pwm("servo", cfg.PWM.Servo), cfg.Clock.ServoHz, cfg.Clock.MinDuty, cfg.Clock.MaxDuty)
	if err != nil {
		return nil, fmt.Errorf("servo: %w", err)
	}
	return apps.NewServoClock(apps.ServoClockConfig{
		Button: btn,
		Servo:  servo,
		Tuning: cfg.Clock,
	}, env), nil
}

// printState reads every input once.
func printState(w io.Writer, cfg *config.Config, b *board) error {
	btn, err := b.button(false)
	if err != nil {
		return err
	}
	level, err := btn.Input.Read()
	if err != nil {
		return fmt.Errorf("read button: %w", err)
	}
	fmt.Fprintf(w, "Button: %s\n", buttonState(level, btn.ActiveLow))

	for _, ch := range []struct {
		name    string
		channel int
	}{
		{"Potentiometer", cfg.ADC.Pot},
		{"Sensor", cfg.ADC.Sensor},
		{"Sound", cfg.ADC.Sound},
	} {
		in, err := b.adc(ch.name, ch.channel)
		if err != nil {
			fmt.Fprintf(w, "%s: unavailable (%v)\n", ch.name, err)
			continue
		}
		raw, err := in.ReadRaw()
		if err != nil {
			fmt.Fprintf(w, "%s: read error (%v)\n", ch.name, err)
			continue
		}
		fmt.Fprintf(w, "%s: %d\n", ch.name, raw)
	}

	therm, err := b.thermometer(cfg.SensorKind())
	if err != nil {
		fmt.Fprintf(w, "Temperature (%s): unavailable (%v)\n", cfg.Thermostat.Sensor, err)
		return nil
	}
	c, err := therm.ReadCelsius()
	if err != nil {
		fmt.Fprintf(w, "Temperature (%s): %v\n", cfg.Thermostat.Sensor, err)
		return nil
	}
	fmt.Fprintf(w, "Temperature (%s): %.1fC\n", cfg.Thermostat.Sensor, c)
	return nil
}

func buttonState(level, activeLow bool) string {
	if level != activeLow {
		return "PRESSED"
	}
	return "RELEASED"
}
