// Package gpio provides digital input and output lines with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "fmt"

// Input reads one digital line.
type Input interface {
	// Read returns the raw level of the line (true = high).
	Read() (bool, error)
}

// Output drives one digital line.
type Output interface {
	Write(high bool) error
	Toggle() error
}

// Pull selects the bias applied to an input line.
type Pull int

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

// Default pin assignments (board numbering).
const (
	DefaultButtonPin = 18
	DefaultLEDPin    = 16
)

// ParsePull converts "up", "down" or "none" to a Pull.
func ParsePull(s string) (Pull, error) {
	switch s {
	case "up":
		return PullUp, nil
	case "down":
		return PullDown, nil
	case "none", "":
		return PullNone, nil
	}
	return PullNone, fmt.Errorf("unknown pull %q (want up, down or none)", s)
}
