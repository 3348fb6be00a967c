package sensor

import (
	"github.com/sweeney/picodemos/internal/analog"
	"github.com/sweeney/picodemos/internal/mathx"
)

// Range of the simulated sensor and of the setpoint potentiometer.
const (
	SimMinC = 15.0
	SimMaxC = 35.0
)

// ADCThermometer maps a potentiometer or analog sensor linearly onto a
// temperature range, rounded to one decimal.
type ADCThermometer struct {
	adc      analog.Input
	min, max float64
}

// NewADCThermometer maps 0..65535 onto [minC, maxC].
func NewADCThermometer(adc analog.Input, minC, maxC float64) *ADCThermometer {
	return &ADCThermometer{adc: adc, min: minC, max: maxC}
}

// ReadCelsius converts the current ADC reading.
func (s *ADCThermometer) ReadCelsius() (float64, error) {
	raw, err := s.adc.ReadRaw()
	if err != nil {
		return 0, transient(err)
	}
	return mathx.Round1(mathx.MapRange(float64(raw), 0, analog.FullScale, s.min, s.max)), nil
}
