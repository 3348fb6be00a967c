//go:build !linux

package i2cbus

import "errors"

// Dev is not available on non-Linux platforms.
type Dev struct{}

// Open returns an error on non-Linux platforms.
func Open(bus int) (*Dev, error) {
	return nil, errors.New("i2c: not supported on this platform (requires Linux)")
}

// Tx is not implemented on non-Linux platforms.
func (d *Dev) Tx(addr uint16, w, r []byte) error {
	return errors.New("i2c: not supported")
}

// Close is a no-op on non-Linux platforms.
func (d *Dev) Close() error {
	return nil
}
