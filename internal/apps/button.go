package apps

import (
	"github.com/sweeney/picodemos/internal/gpio"
	"github.com/sweeney/picodemos/internal/logic"
)

// ButtonConfig wires a push button.
type ButtonConfig struct {
	Input         gpio.Input
	ActiveLow     bool
	DebounceMs    uint32
	DoubleClickMs uint32 // 0 disables click classification
}

// button couples a debouncer with optional click classification.
type button struct {
	deb    *logic.Debouncer
	clicks *logic.ClickClassifier
}

func newButton(cfg ButtonConfig) *button {
	debounce := cfg.DebounceMs
	if debounce == 0 {
		debounce = logic.DefaultDebounceMs
	}
	b := &button{deb: logic.NewDebouncer(cfg.Input, debounce, cfg.ActiveLow)}
	if cfg.DoubleClickMs > 0 {
		b.clicks = logic.NewClickClassifier(cfg.DoubleClickMs)
	}
	return b
}

// poll samples the button and counts what it sees. pressed is true on the
// debounced press edge; click is ClickNone without a classifier.
func (b *button) poll(now uint32, counts *logic.EventCounts) (pressed bool, click logic.ClickEvent) {
	edge, ok := b.deb.Poll(now)
	if ok {
		counts.Edges++
	}
	if b.clicks != nil {
		click = b.clicks.Update(now, edge, ok)
		counts.Count(click)
	}
	return ok && edge == logic.EdgePressed, click
}
