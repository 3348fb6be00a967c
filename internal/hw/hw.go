// Package hw holds the pieces shared by every peripheral backend: the
// wrapping millisecond clock and the startup error that degrades a
// missing peripheral to a no-op.
package hw

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Clock is a monotonic millisecond counter that wraps at 2^32.
type Clock interface {
	NowMillis() uint32
}

// MonotonicClock counts milliseconds since it was created, using the
// monotonic reading carried by time.Time.
type MonotonicClock struct {
	start time.Time
}

// NewMonotonicClock creates a clock starting at zero.
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{start: time.Now()}
}

// NowMillis returns elapsed milliseconds truncated to 32 bits.
func (c *MonotonicClock) NowMillis() uint32 {
	return uint32(time.Since(c.start).Milliseconds())
}

// FakeClock is a settable clock for tests.
type FakeClock struct {
	now atomic.Uint32
}

// NewFakeClock creates a clock reading start.
func NewFakeClock(start uint32) *FakeClock {
	c := &FakeClock{}
	c.now.Store(start)
	return c
}

// NowMillis returns the current fake time.
func (c *FakeClock) NowMillis() uint32 {
	return c.now.Load()
}

// Set moves the clock to ms.
func (c *FakeClock) Set(ms uint32) {
	c.now.Store(ms)
}

// Advance moves the clock forward by d milliseconds, wrapping like hardware.
func (c *FakeClock) Advance(d uint32) uint32 {
	return c.now.Add(d)
}

// PeripheralInitError reports a peripheral that could not be brought up at
// startup. Callers log it and fall back to a no-op implementation.
type PeripheralInitError struct {
	Peripheral string
	Err        error
}

func (e *PeripheralInitError) Error() string {
	return fmt.Sprintf("init %s: %v", e.Peripheral, e.Err)
}

func (e *PeripheralInitError) Unwrap() error {
	return e.Err
}
