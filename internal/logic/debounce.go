package logic

// DefaultDebounceMs is the quiet period a new level must survive.
const DefaultDebounceMs = 20

// RawInput is a single digital line read once per call.
type RawInput interface {
	Read() (bool, error)
}

// Debouncer filters mechanical bounce on a digital input and emits one edge
// per physical actuation.
type Debouncer struct {
	in        RawInput
	quiet     uint32
	activeLow bool

	stable       bool
	pending      bool
	pendingSince uint32
}

// NewDebouncer wraps in with the given quiet period in milliseconds.
// With activeLow set, a low raw level reads as pressed (pull-up wiring).
// The input starts in the released state.
func NewDebouncer(in RawInput, quietMs uint32, activeLow bool) *Debouncer {
	return &Debouncer{
		in:        in,
		quiet:     quietMs,
		activeLow: activeLow,
	}
}

// Sample reads the raw pin, corrected for polarity. Read errors look idle.
func (d *Debouncer) Sample() bool {
	v, err := d.in.Read()
	if err != nil {
		return d.stable
	}
	return v != d.activeLow
}

// Pressed returns the current confirmed level.
func (d *Debouncer) Pressed() bool {
	return d.stable
}

// Poll reads the input and returns an edge once a changed level has held
// for the quiet period. A reading back at the stable level cancels a pending
// change, so an isolated one-tick glitch never produces an edge.
func (d *Debouncer) Poll(now uint32) (Edge, bool) {
	level := d.Sample()

	if level == d.stable {
		d.pending = false
		return "", false
	}

	if !d.pending {
		d.pending = true
		d.pendingSince = now
		return "", false
	}

	if Elapsed(d.pendingSince, now) < d.quiet {
		return "", false
	}

	d.stable = level
	d.pending = false
	if level {
		return EdgePressed, true
	}
	return EdgeReleased, true
}
