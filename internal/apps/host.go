package apps

import (
	"context"
	"log"
	"os"
	"syscall"
	"time"

	"github.com/sweeney/picodemos/internal/hw"
	"github.com/sweeney/picodemos/internal/logic"
	"github.com/sweeney/picodemos/internal/mqtt"
	"github.com/sweeney/picodemos/internal/status"
)

// Host runs one App: it steps it on every tick, publishes its events,
// keeps the status tracker current and emits lifecycle events.
type Host struct {
	App       App
	Clock     hw.Clock
	Publisher mqtt.Publisher

	// Optional.
	MQTT      mqtt.ConnectionStatus
	Tracker   *status.Tracker
	Heartbeat time.Duration
	Network   func() *status.NetworkInfo
	Now       func() time.Time

	heartbeat *logic.PeriodicTask
}

// Run starts the app, publishes STARTUP and loops until ctx is done or a
// signal arrives. On exit the app is shut down and a retained SHUTDOWN is
// published, also when startup was interrupted. Loop errors are logged and
// never end the loop.
func (h *Host) Run(ctx context.Context, tick <-chan time.Time, sig <-chan os.Signal) error {
	if h.Now == nil {
		h.Now = time.Now
	}

	if s, ok := h.App.(Starter); ok {
		if reason, ok := h.start(ctx, s, sig); !ok {
			h.stop(reason)
			return nil
		}
	}

	h.refresh()
	h.publishSystem("STARTUP", "", true)

	if h.Heartbeat > 0 {
		h.heartbeat = logic.NewPeriodicTask(uint32(h.Heartbeat.Milliseconds()), h.Clock.NowMillis())
	}

	for {
		select {
		case <-ctx.Done():
			log.Printf("context done, shutting down")
			h.stop("CANCELLED")
			return nil

		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			h.stop(signalName(s))
			return nil

		case <-tick:
			h.step()
		}
	}
}

// start runs the startup routine, abandoning it on cancel or signal.
// When the host should exit without running the loop it returns false and
// the shutdown reason.
func (h *Host) start(ctx context.Context, s Starter, sig <-chan os.Signal) (string, bool) {
	startCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Start(startCtx) }()

	select {
	case err := <-done:
		if err == nil {
			return "", true
		}
		if ctx.Err() != nil {
			return "CANCELLED", false
		}
		log.Printf("%s: start: %v", h.App.Name(), err)
		return "", true

	case sg := <-sig:
		log.Printf("received %v during startup, shutting down", sg)
		cancel()
		<-done
		return signalName(sg), false

	case <-ctx.Done():
		<-done
		return "CANCELLED", false
	}
}

func (h *Host) step() {
	now := h.Clock.NowMillis()
	h.App.Step(now)

	for _, ev := range h.App.Drain() {
		log.Printf("event: %s %s", ev.Type, ev.State)
		err := h.Publisher.Publish(mqtt.Event{
			Timestamp: h.Now(),
			App:       h.App.Name(),
			Type:      ev.Type,
			State:     ev.State,
			Values:    ev.Values,
		})
		if err != nil {
			log.Printf("publish error: %v", err)
			// Don't crash on publish failure
		}
	}

	h.refresh()

	if h.heartbeat != nil && h.heartbeat.Poll(now) {
		if h.Network != nil {
			if net := h.Network(); net != nil && h.Tracker != nil {
				h.Tracker.SetNetwork(net)
			}
		}
		r := h.App.Report()
		log.Printf("heartbeat: state=%s edges=%d singles=%d doubles=%d beats=%d",
			r.State, r.Counts.Edges, r.Counts.Singles, r.Counts.Doubles, r.Counts.Beats)
		h.publishSystem("HEARTBEAT", "", false)
	}
}

// refresh copies app and connection state into the tracker.
func (h *Host) refresh() {
	if h.Tracker == nil {
		return
	}
	h.Tracker.Update(h.App.Report())
	if h.MQTT != nil {
		h.Tracker.SetMQTTConnected(h.MQTT.IsConnected())
	}
}

func (h *Host) stop(reason string) {
	h.App.Shutdown()
	h.refresh()
	h.publishSystem("SHUTDOWN", reason, true)
}

func (h *Host) publishSystem(event, reason string, retained bool) {
	ev := mqtt.SystemEvent{
		Timestamp: h.Now(),
		Event:     event,
		Reason:    reason,
		Retained:  retained,
	}
	if h.Tracker != nil {
		ev.RawPayload = status.FormatStatusEvent(h.Tracker.Snapshot(), event, reason)
	}
	if err := h.Publisher.PublishSystem(ev); err != nil {
		log.Printf("failed to publish %s event: %v", event, err)
		return
	}
	log.Printf("published %s event", event)
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}
