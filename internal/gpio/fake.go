package gpio

import "errors"

// FakeInput is a test double that returns scripted levels.
type FakeInput struct {
	// Samples contains scripted levels to return.
	// Each call to Read() consumes the next sample.
	Samples []bool

	// index tracks current position in Samples
	index int

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeInput creates a FakeInput with the given samples.
func NewFakeInput(samples ...bool) *FakeInput {
	return &FakeInput{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeInput) Read() (bool, error) {
	if f.ReadError != nil {
		return false, f.ReadError
	}

	if len(f.Samples) == 0 {
		return false, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample, nil
}

// Set replaces the script with a single held level.
func (f *FakeInput) Set(level bool) {
	f.Samples = []bool{level}
	f.index = 0
}

// Reset resets the input to the beginning of samples.
func (f *FakeInput) Reset() {
	f.index = 0
}

// FakeOutput records every level written to it.
type FakeOutput struct {
	// High is the current level.
	High bool

	// Writes contains every level written, including toggles.
	Writes []bool

	// WriteError, if set, will be returned by Write and Toggle.
	WriteError error
}

// NewFakeOutput creates an output starting low.
func NewFakeOutput() *FakeOutput {
	return &FakeOutput{}
}

// Write records the level.
func (f *FakeOutput) Write(high bool) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.High = high
	f.Writes = append(f.Writes, high)
	return nil
}

// Toggle inverts the level.
func (f *FakeOutput) Toggle() error {
	return f.Write(!f.High)
}

// Toggles counts level changes in the recorded writes.
func (f *FakeOutput) Toggles() int {
	n := 0
	prev := false
	for _, w := range f.Writes {
		if w != prev {
			n++
		}
		prev = w
	}
	return n
}
