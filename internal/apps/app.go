// Package apps holds the demo programs and the host loop that drives them.
// Each app is a set of owned components stepped once per loop iteration;
// nothing in an app blocks except its bounded Start and Shutdown routines.
package apps

import (
	"context"
	"time"

	"github.com/sweeney/picodemos/internal/console"
	"github.com/sweeney/picodemos/internal/logic"
	"github.com/sweeney/picodemos/internal/status"
)

// App is one demo program.
type App interface {
	// Name is the short name used in topics and logs.
	Name() string

	// Step runs one cooperative iteration at now (wrapping milliseconds).
	Step(now uint32)

	// Drain returns events raised since the last call.
	Drain() []Event

	// Report summarises current state for the status surfaces.
	Report() status.Report

	// Shutdown drives every output to a safe state.
	Shutdown()
}

// Starter is implemented by apps with a bounded startup routine such as a
// self-test or splash screen.
type Starter interface {
	Start(ctx context.Context) error
}

// Event is something an app wants published.
type Event struct {
	Type   string
	State  string
	Values map[string]float64
}

type events struct {
	pending []Event
	counts  logic.EventCounts
}

func (e *events) emit(typ, state string, values map[string]float64) {
	e.pending = append(e.pending, Event{Type: typ, State: state, Values: values})
}

// Drain returns and clears pending events.
func (e *events) Drain() []Event {
	out := e.pending
	e.pending = nil
	return out
}

// Env carries the ambient services apps share.
type Env struct {
	Console *console.Printer
	// Sleep pauses for d or until ctx is done. Only Start and Shutdown use it.
	Sleep func(ctx context.Context, d time.Duration) error
	// Now is the wall clock, used for timestamps and time of day.
	Now func() time.Time
}

// DefaultEnv prints to stdout and uses real time.
func DefaultEnv() Env {
	return Env{Console: console.Stdout, Sleep: Sleep, Now: time.Now}
}

func (e Env) withDefaults() Env {
	d := DefaultEnv()
	if e.Console == nil {
		e.Console = d.Console
	}
	if e.Sleep == nil {
		e.Sleep = d.Sleep
	}
	if e.Now == nil {
		e.Now = d.Now
	}
	return e
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
