package logic

// DefaultDoubleClickMs is the window in which a second tap makes a double click.
const DefaultDoubleClickMs = 400

// ClickClassifier turns debounced edges into single and double clicks.
// A tap is a press followed by a release. The first tap opens a window;
// a second tap pressed inside it is a Double, even when its release comes
// after the window. Otherwise the window closes as a Single.
type ClickClassifier struct {
	window uint32

	pressed  bool
	awaiting bool
	tapAt    uint32
}

// NewClickClassifier creates a classifier with the given window in milliseconds.
func NewClickClassifier(windowMs uint32) *ClickClassifier {
	return &ClickClassifier{window: windowMs}
}

// Awaiting reports whether a first tap is waiting for a possible second one.
func (c *ClickClassifier) Awaiting() bool {
	return c.awaiting
}

// Update advances the classifier. It must be called every loop iteration,
// with hasEdge false when no edge was seen, because the window expiring is
// itself an event.
func (c *ClickClassifier) Update(now uint32, edge Edge, hasEdge bool) ClickEvent {
	result := ClickNone

	// A second press already inside the window holds the deadline.
	if c.awaiting && !c.pressed && Elapsed(c.tapAt, now) >= c.window {
		c.awaiting = false
		result = ClickSingle
	}

	if !hasEdge {
		return result
	}

	switch edge {
	case EdgePressed:
		c.pressed = true
	case EdgeReleased:
		if !c.pressed {
			return result
		}
		c.pressed = false
		if c.awaiting {
			c.awaiting = false
			return ClickDouble
		}
		c.awaiting = true
		c.tapAt = now
	}
	return result
}
