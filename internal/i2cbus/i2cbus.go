// Package i2cbus exposes an I2C adapter in the Tx shape used by
// tinygo.org/x/drivers, so the same device drivers run on a Linux host.
package i2cbus

import (
	"fmt"

	"tinygo.org/x/drivers"
)

// Bus is the subset of drivers.I2C every device here needs.
type Bus = drivers.I2C

// Probe reports whether a device answers at addr by reading one byte.
func Probe(bus Bus, addr uint16) error {
	buf := make([]byte, 1)
	if err := bus.Tx(addr, nil, buf); err != nil {
		return fmt.Errorf("no device at %#02x: %w", addr, err)
	}
	return nil
}
