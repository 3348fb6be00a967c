//go:build linux

package gpio

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// Chip owns the lines requested from one GPIO character device.
type Chip struct {
	chip  *gpiocdev.Chip
	lines []*gpiocdev.Line
}

// OpenChip opens a GPIO chip by name, e.g. "gpiochip0".
func OpenChip(name string) (*Chip, error) {
	chip, err := gpiocdev.NewChip(name)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	return &Chip{chip: chip}, nil
}

func pullOption(p Pull) gpiocdev.LineReqOption {
	switch p {
	case PullUp:
		return gpiocdev.WithPullUp
	case PullDown:
		return gpiocdev.WithPullDown
	default:
		return gpiocdev.WithBiasDisabled
	}
}

// Input requests pin as an input with the given bias.
func (c *Chip) Input(pin int, pull Pull) (*RealInput, error) {
	line, err := c.chip.RequestLine(pin, gpiocdev.AsInput, pullOption(pull))
	if err != nil {
		return nil, fmt.Errorf("request input pin %d: %w", pin, err)
	}
	c.lines = append(c.lines, line)
	return &RealInput{line: line}, nil
}

// Output requests pin as an output driven to initial.
func (c *Chip) Output(pin int, initial bool) (*RealOutput, error) {
	line, err := c.chip.RequestLine(pin, gpiocdev.AsOutput(level(initial)))
	if err != nil {
		return nil, fmt.Errorf("request output pin %d: %w", pin, err)
	}
	c.lines = append(c.lines, line)
	return &RealOutput{line: line, high: initial}, nil
}

// Close releases all lines and the chip.
// Lines are reconfigured to input with pull-down (matching Pi boot defaults)
// before closing so nothing is left driven after exit.
func (c *Chip) Close() error {
	var errs []error
	for _, l := range c.lines {
		if err := l.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure line %d: %w", l.Offset(), err))
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line %d: %w", l.Offset(), err))
		}
	}
	c.lines = nil
	if c.chip != nil {
		if err := c.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealInput is a requested input line.
type RealInput struct {
	line *gpiocdev.Line
}

// Read returns the raw line level.
func (r *RealInput) Read() (bool, error) {
	v, err := r.line.Value()
	if err != nil {
		return false, fmt.Errorf("read pin %d: %w", r.line.Offset(), err)
	}
	return v != 0, nil
}

// RealOutput is a requested output line. It remembers the last level so
// Toggle does not need to read back the line.
type RealOutput struct {
	mu   sync.Mutex
	line *gpiocdev.Line
	high bool
}

// Write drives the line.
func (o *RealOutput) Write(high bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.line.SetValue(level(high)); err != nil {
		return fmt.Errorf("write pin %d: %w", o.line.Offset(), err)
	}
	o.high = high
	return nil
}

// Toggle inverts the line.
func (o *RealOutput) Toggle() error {
	o.mu.Lock()
	next := !o.high
	o.mu.Unlock()
	return o.Write(next)
}

func level(high bool) int {
	if high {
		return 1
	}
	return 0
}
