package sensor

// Reading is one scripted FakeThermometer result.
type Reading struct {
	Celsius float64
	Err     error
}

// FakeThermometer returns scripted readings; the last one repeats.
type FakeThermometer struct {
	Readings []Reading
	index    int
	Reads    int
}

// NewFakeThermometer creates a thermometer holding a single value.
func NewFakeThermometer(c float64) *FakeThermometer {
	return &FakeThermometer{Readings: []Reading{{Celsius: c}}}
}

// Script replaces the readings.
func (f *FakeThermometer) Script(r ...Reading) {
	f.Readings = r
	f.index = 0
}

// ReadCelsius returns the next scripted reading. Errors are reported as
// transient, like the real sensors.
func (f *FakeThermometer) ReadCelsius() (float64, error) {
	f.Reads++
	if len(f.Readings) == 0 {
		return 0, ErrTransient
	}
	r := f.Readings[f.index]
	if f.index < len(f.Readings)-1 {
		f.index++
	}
	if r.Err != nil {
		return 0, transient(r.Err)
	}
	return r.Celsius, nil
}
