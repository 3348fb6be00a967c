package analog

import "errors"

// FakeInput is a test double that returns scripted ADC values.
type FakeInput struct {
	// Values contains scripted readings; the last one repeats.
	Values []uint16

	index int

	// ReadError, if set, will be returned by ReadRaw.
	ReadError error
}

// NewFakeInput creates a FakeInput with the given values.
func NewFakeInput(values ...uint16) *FakeInput {
	return &FakeInput{Values: values}
}

// ReadRaw returns the next scripted value.
func (f *FakeInput) ReadRaw() (uint16, error) {
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	if len(f.Values) == 0 {
		return 0, errors.New("no values configured")
	}
	v := f.Values[f.index]
	if f.index < len(f.Values)-1 {
		f.index++
	}
	return v, nil
}

// Set holds a single value.
func (f *FakeInput) Set(v uint16) {
	f.Values = []uint16{v}
	f.index = 0
}

// FakePWM records PWM settings.
type FakePWM struct {
	FrequencyHz uint32
	Duty        float32

	// Frequencies records every frequency set, in order.
	Frequencies []uint32

	// Err, if set, is returned by every call.
	Err error
}

// NewFakePWM creates a silent FakePWM.
func NewFakePWM() *FakePWM {
	return &FakePWM{}
}

// SetFrequencyHz records hz.
func (f *FakePWM) SetFrequencyHz(hz uint32) error {
	if f.Err != nil {
		return f.Err
	}
	f.FrequencyHz = hz
	f.Frequencies = append(f.Frequencies, hz)
	return nil
}

// SetDutyFraction records duty.
func (f *FakePWM) SetDutyFraction(duty float32) error {
	if f.Err != nil {
		return f.Err
	}
	f.Duty = duty
	return nil
}

// Active reports a non-zero frequency and duty.
func (f *FakePWM) Active() bool {
	return f.FrequencyHz > 0 && f.Duty > 0
}
