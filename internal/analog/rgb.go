package analog

import "errors"

// Color is an 8-bit RGB triple.
type Color struct {
	R, G, B uint8
}

// Off reports whether every channel is zero.
func (c Color) Off() bool {
	return c.R == 0 && c.G == 0 && c.B == 0
}

// Faded returns c with step subtracted from each channel, floored at zero.
func (c Color) Faded(step uint8) Color {
	sub := func(v uint8) uint8 {
		if v < step {
			return 0
		}
		return v - step
	}
	return Color{R: sub(c.R), G: sub(c.G), B: sub(c.B)}
}

// RGBLed drives a common-cathode RGB LED from three PWM channels.
type RGBLed struct {
	r, g, b Output
	color   Color
}

// DefaultLEDHz is the PWM frequency used for LEDs.
const DefaultLEDHz = 1000

// NewRGBLed configures the three channels at DefaultLEDHz and turns them off.
func NewRGBLed(r, g, b Output) (*RGBLed, error) {
	var errs []error
	for _, ch := range []Output{r, g, b} {
		if err := ch.SetFrequencyHz(DefaultLEDHz); err != nil {
			errs = append(errs, err)
		}
	}
	led := &RGBLed{r: r, g: g, b: b}
	if err := led.SetColor(Color{}); err != nil {
		errs = append(errs, err)
	}
	return led, errors.Join(errs...)
}

// SetColor writes c to the LED.
func (l *RGBLed) SetColor(c Color) error {
	err := errors.Join(
		l.r.SetDutyFraction(float32(c.R)/255),
		l.g.SetDutyFraction(float32(c.G)/255),
		l.b.SetDutyFraction(float32(c.B)/255),
	)
	if err == nil {
		l.color = c
	}
	return err
}

// Color returns the last colour written successfully.
func (l *RGBLed) Color() Color {
	return l.color
}
