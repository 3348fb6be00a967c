//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// Chip is not available on non-Linux platforms.
type Chip struct{}

// OpenChip returns an error on non-Linux platforms.
func OpenChip(name string) (*Chip, error) {
	return nil, errUnsupported
}

// Input is not implemented on non-Linux platforms.
func (c *Chip) Input(pin int, pull Pull) (*RealInput, error) {
	return nil, errUnsupported
}

// Output is not implemented on non-Linux platforms.
func (c *Chip) Output(pin int, initial bool) (*RealOutput, error) {
	return nil, errUnsupported
}

// Close is a no-op on non-Linux platforms.
func (c *Chip) Close() error {
	return nil
}

// RealInput is not available on non-Linux platforms.
type RealInput struct{}

// Read is not implemented on non-Linux platforms.
func (r *RealInput) Read() (bool, error) {
	return false, errUnsupported
}

// RealOutput is not available on non-Linux platforms.
type RealOutput struct{}

// Write is not implemented on non-Linux platforms.
func (o *RealOutput) Write(high bool) error {
	return errUnsupported
}

// Toggle is not implemented on non-Linux platforms.
func (o *RealOutput) Toggle() error {
	return errUnsupported
}
