package apps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/picodemos/internal/gpio"
	"github.com/sweeney/picodemos/internal/mqtt"
)

func newTestBlinker(te *testEnv) (*Blinker, *gpio.FakeInput, *gpio.FakeOutput) {
	in := gpio.NewFakeInput(false)
	led := gpio.NewFakeOutput()
	b := NewBlinker(BlinkerConfig{
		Button: ButtonConfig{Input: in, DebounceMs: 20},
		LED:    led,
		SlowMs: 1000,
		FastMs: 300,
	}, te.Env())
	return b, in, led
}

func TestBlinkerStartsIdle(t *testing.T) {
	b, _, led := newTestBlinker(newTestEnv())
	drive(b, 0, 2000)

	assert.Equal(t, ModeIdle, b.Mode())
	assert.Empty(t, led.Writes, "LED must stay untouched before the first press")
	assert.Equal(t, "IDLE", b.Report().State)
}

func TestBlinkerCyclesModes(t *testing.T) {
	te := newTestEnv()
	b, in, led := newTestBlinker(te)

	at := uint32(0)
	var modes []int
	for i := 0; i < 4; i++ {
		at = tap(b, in, false, at)
		modes = append(modes, b.Mode())
	}

	assert.Equal(t, []int{ModeSlow, ModeFast, ModeOff, ModeSlow}, modes)
	assert.True(t, led.High, "slow mode starts lit")

	events := b.Drain()
	require.Len(t, events, 4)
	var states []string
	for _, ev := range events {
		assert.Equal(t, mqtt.EventMode, ev.Type)
		states = append(states, ev.State)
	}
	assert.Equal(t, []string{"SLOW", "FAST", "OFF", "SLOW"}, states)
	assert.Empty(t, b.Drain(), "Drain clears pending events")

	assert.Equal(t, 8, b.Report().Counts.Edges)
	assert.Contains(t, te.out.String(), "Mode 3")
}

func TestBlinkerOffModeTurnsLEDOff(t *testing.T) {
	b, in, led := newTestBlinker(newTestEnv())

	at := uint32(0)
	for i := 0; i < 3; i++ {
		at = tap(b, in, false, at)
	}
	require.Equal(t, ModeOff, b.Mode())
	writes := len(led.Writes)

	drive(b, at, at+3000)
	assert.False(t, led.High)
	assert.Len(t, led.Writes, writes, "off mode must not blink")
}

func TestBlinkerSlowPeriod(t *testing.T) {
	b, in, led := newTestBlinker(newTestEnv())

	// Press edge lands at 20ms.
	next := tap(b, in, false, 0)
	drive(b, next, 1010)
	assert.True(t, led.High, "no toggle before a full period")

	b.Step(1020)
	assert.False(t, led.High, "toggle one period after entering the mode")

	drive(b, 1030, 2010)
	assert.False(t, led.High)
	b.Step(2020)
	assert.True(t, led.High)
}

func TestBlinkerFastPeriod(t *testing.T) {
	b, in, led := newTestBlinker(newTestEnv())

	at := tap(b, in, false, 0)
	at = tap(b, in, false, at) // fast entered at 160ms
	require.Equal(t, ModeFast, b.Mode())
	toggles := led.Toggles()

	drive(b, at, 160+3000)
	assert.Equal(t, toggles+10, led.Toggles())
}

func TestBlinkerReportAndShutdown(t *testing.T) {
	b, in, led := newTestBlinker(newTestEnv())
	tap(b, in, false, 0)

	r := b.Report()
	assert.Equal(t, "SLOW", r.State)
	assert.Equal(t, "on", r.Labels["led"])
	assert.Equal(t, "1000ms", r.Labels["period"])
	assert.Equal(t, float64(ModeSlow), r.Values["mode"])

	b.Shutdown()
	assert.False(t, led.High)
	assert.Equal(t, "off", b.Report().Labels["led"])
}
