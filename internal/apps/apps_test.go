package apps

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/sweeney/picodemos/internal/console"
	"github.com/sweeney/picodemos/internal/gpio"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// testEnv records console output and sleeps without waiting.
type testEnv struct {
	out    bytes.Buffer
	sleeps []time.Duration
	now    time.Time
}

func newTestEnv() *testEnv {
	return &testEnv{now: time.Date(2026, 1, 1, 15, 30, 0, 0, time.UTC)}
}

func (e *testEnv) Env() Env {
	return Env{
		Console: console.New(&e.out),
		Sleep: func(ctx context.Context, d time.Duration) error {
			e.sleeps = append(e.sleeps, d)
			return ctx.Err()
		},
		Now: func() time.Time { return e.now },
	}
}

func (e *testEnv) slept() time.Duration {
	var total time.Duration
	for _, d := range e.sleeps {
		total += d
	}
	return total
}

// drive steps a every 10ms from from to to inclusive and returns the next
// free timestamp.
func drive(a App, from, to uint32) uint32 {
	for t := from; t <= to; t += 10 {
		a.Step(t)
	}
	return to + 10
}

// tap holds the button for 70ms starting at at, then releases it for
// 70ms. The pressed level is !idle.
func tap(a App, in *gpio.FakeInput, idle bool, at uint32) uint32 {
	in.Set(!idle)
	next := drive(a, at, at+60)
	in.Set(idle)
	return drive(a, next, next+60)
}

// drainType drains a and keeps the events of one type.
func drainType(a App, typ string) []Event {
	var out []Event
	for _, ev := range a.Drain() {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}
