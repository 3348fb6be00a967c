package apps

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/picodemos/internal/hw"
	"github.com/sweeney/picodemos/internal/mqtt"
	"github.com/sweeney/picodemos/internal/status"
)

// stubApp raises one event per step and records lifecycle calls.
type stubApp struct {
	events
	stepped  chan uint32 // receives every step when set
	steps    []uint32
	started  bool
	shutdown bool
	startErr error
}

func (a *stubApp) Name() string { return "stub" }

func (a *stubApp) Start(ctx context.Context) error {
	a.started = true
	if a.startErr != nil {
		return a.startErr
	}
	return ctx.Err()
}

func (a *stubApp) Step(now uint32) {
	a.steps = append(a.steps, now)
	a.counts.Edges++
	a.emit(mqtt.EventClick, "SINGLE", map[string]float64{"n": float64(len(a.steps))})
	if a.stepped != nil {
		a.stepped <- now
	}
}

func (a *stubApp) Report() status.Report {
	return status.Report{State: "RUNNING", Values: map[string]float64{"steps": float64(len(a.steps))}, Counts: a.counts}
}

func (a *stubApp) Shutdown() { a.shutdown = true }

type hostRig struct {
	host  *Host
	app   *stubApp
	clock *hw.FakeClock
	pub   *mqtt.FakePublisher
	tick  chan time.Time
	sig   chan os.Signal
	done  chan error
}

func newHostRig(heartbeat time.Duration) *hostRig {
	r := &hostRig{
		app:   &stubApp{stepped: make(chan uint32, 1)},
		clock: hw.NewFakeClock(0),
		pub:   mqtt.NewFakePublisher(),
		tick:  make(chan time.Time),
		sig:   make(chan os.Signal, 1),
		done:  make(chan error, 1),
	}
	r.pub.Connected = true
	r.host = &Host{
		App:       r.app,
		Clock:     r.clock,
		Publisher: r.pub,
		MQTT:      r.pub,
		Tracker:   status.NewTracker(time.Now(), "test-instance", status.Config{App: "stub"}),
		Heartbeat: heartbeat,
	}
	return r
}

func (r *hostRig) start(ctx context.Context) {
	go func() { r.done <- r.host.Run(ctx, r.tick, r.sig) }()
}

// step advances the clock by ms, ticks and waits until the app has stepped,
// so the next clock change cannot race the host reading it.
func (r *hostRig) step(t *testing.T, ms uint32) {
	t.Helper()
	r.clock.Advance(ms)
	r.tick <- time.Now()
	select {
	case <-r.app.stepped:
	case <-time.After(2 * time.Second):
		t.Fatal("app was not stepped")
	}
}

func (r *hostRig) wait(t *testing.T) {
	t.Helper()
	select {
	case err := <-r.done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("host did not stop")
	}
}

func systemEvents(p *mqtt.FakePublisher) []string {
	var out []string
	for _, e := range p.SystemEvents {
		out = append(out, e.Event)
	}
	return out
}

func TestHostLifecycle(t *testing.T) {
	r := newHostRig(0)
	r.start(context.Background())

	for i := 0; i < 3; i++ {
		r.step(t, 10)
	}
	r.sig <- syscall.SIGTERM
	r.wait(t)

	assert.True(t, r.app.started)
	assert.True(t, r.app.shutdown)
	assert.Equal(t, []uint32{10, 20, 30}, r.app.steps)

	assert.Equal(t, []string{"STARTUP", "SHUTDOWN"}, systemEvents(r.pub))
	assert.True(t, r.pub.SystemEvents[0].Retained)
	assert.True(t, r.pub.SystemEvents[1].Retained)
	assert.Equal(t, "SIGTERM", r.pub.SystemEvents[1].Reason)
	assert.NotEmpty(t, r.pub.SystemEvents[1].RawPayload, "lifecycle events carry a status snapshot")

	require.Len(t, r.pub.Events, 3)
	for _, ev := range r.pub.Events {
		assert.Equal(t, "stub", ev.App)
		assert.Equal(t, mqtt.EventClick, ev.Type)
	}

	snap := r.host.Tracker.Snapshot()
	assert.True(t, snap.Ready)
	assert.Equal(t, "RUNNING", snap.State)
	assert.Equal(t, 3.0, snap.Values["steps"])
	assert.Equal(t, 3, snap.Counts.Edges)
	assert.True(t, snap.MQTTConnected)
}

func TestHostSigint(t *testing.T) {
	r := newHostRig(0)
	r.start(context.Background())
	r.step(t, 10)
	r.sig <- syscall.SIGINT
	r.wait(t)
	assert.Equal(t, []string{"STARTUP", "SHUTDOWN"}, systemEvents(r.pub))
	assert.Equal(t, "SIGINT", r.pub.SystemEvents[1].Reason)
}

func TestHostContextCancel(t *testing.T) {
	r := newHostRig(0)
	ctx, cancel := context.WithCancel(context.Background())
	r.start(ctx)
	r.step(t, 10)
	cancel()
	r.wait(t)

	assert.True(t, r.app.shutdown)
	require.Len(t, r.pub.SystemEvents, 2)
	assert.Equal(t, "CANCELLED", r.pub.SystemEvents[1].Reason)
}

func TestHostCancelledDuringStart(t *testing.T) {
	r := newHostRig(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.start(ctx)
	r.wait(t)

	assert.True(t, r.app.shutdown)
	assert.Equal(t, []string{"SHUTDOWN"}, systemEvents(r.pub), "no STARTUP when start was interrupted")
	assert.Equal(t, "CANCELLED", r.pub.SystemEvents[0].Reason)
	assert.True(t, r.pub.SystemEvents[0].Retained)
	assert.Empty(t, r.app.steps)
}

func TestHostStartErrorIsNotFatal(t *testing.T) {
	r := newHostRig(0)
	r.app.startErr = assert.AnError
	r.start(context.Background())
	r.step(t, 10)
	r.sig <- syscall.SIGTERM
	r.wait(t)

	assert.Len(t, r.app.steps, 1)
	assert.Equal(t, []string{"STARTUP", "SHUTDOWN"}, systemEvents(r.pub))
}

func TestHostHeartbeat(t *testing.T) {
	r := newHostRig(time.Second)
	network := &status.NetworkInfo{Type: "wifi", IP: "10.0.0.5"}
	r.host.Network = func() *status.NetworkInfo { return network }
	r.start(context.Background())

	r.step(t, 500)
	r.step(t, 500)
	r.step(t, 500)
	r.sig <- syscall.SIGTERM
	r.wait(t)

	assert.Equal(t, []string{"STARTUP", "HEARTBEAT", "SHUTDOWN"}, systemEvents(r.pub))
	assert.False(t, r.pub.SystemEvents[1].Retained)
	require.NotNil(t, r.host.Tracker.Snapshot().Network)
	assert.Equal(t, "10.0.0.5", r.host.Tracker.Snapshot().Network.IP)
}

func TestHostPublishErrorKeepsRunning(t *testing.T) {
	r := newHostRig(0)
	r.pub.PublishError = assert.AnError
	r.start(context.Background())
	for i := 0; i < 2; i++ {
		r.step(t, 10)
	}
	r.sig <- syscall.SIGTERM
	r.wait(t)

	assert.Len(t, r.app.steps, 2)
	assert.Empty(t, r.pub.Events)
}

func TestHostWithoutTracker(t *testing.T) {
	r := newHostRig(0)
	r.host.Tracker = nil
	r.start(context.Background())
	r.step(t, 10)
	r.sig <- syscall.SIGTERM
	r.wait(t)

	require.Len(t, r.pub.SystemEvents, 2)
	assert.Empty(t, r.pub.SystemEvents[0].RawPayload)
}

func TestHostClockWrap(t *testing.T) {
	r := newHostRig(0)
	r.clock.Set(0xFFFFFFF0)
	r.start(context.Background())
	r.step(t, 0x20)
	r.sig <- syscall.SIGTERM
	r.wait(t)
	assert.Equal(t, []uint32{0x10}, r.app.steps)
}

// blockingStart waits in Start until cancelled.
type blockingStart struct {
	stubApp
	entered chan struct{}
}

func (a *blockingStart) Start(ctx context.Context) error {
	close(a.entered)
	<-ctx.Done()
	return ctx.Err()
}

func TestHostSignalDuringStart(t *testing.T) {
	r := newHostRig(0)
	app := &blockingStart{entered: make(chan struct{})}
	r.host.App = app
	r.start(context.Background())

	<-app.entered
	r.sig <- syscall.SIGINT
	r.wait(t)

	assert.True(t, app.shutdown)
	require.Equal(t, []string{"SHUTDOWN"}, systemEvents(r.pub))
	assert.Equal(t, "SIGINT", r.pub.SystemEvents[0].Reason)
	assert.True(t, r.pub.SystemEvents[0].Retained)
	assert.NotEmpty(t, r.pub.SystemEvents[0].RawPayload)
}
