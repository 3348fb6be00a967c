package logic

// Elapsed returns now - since on a 32-bit millisecond counter.
// Unsigned subtraction keeps the result correct across the 2^32 wrap.
func Elapsed(since, now uint32) uint32 {
	return now - since
}

// PeriodicTask gates work to run at most once per Interval milliseconds.
// The zero value fires on its first poll once Interval has passed since
// timestamp 0; use NewPeriodicTask to anchor it to the loop start.
type PeriodicTask struct {
	Interval  uint32
	LastFired uint32
	forced    bool
}

// NewPeriodicTask creates a task whose first period starts at now.
func NewPeriodicTask(interval, now uint32) *PeriodicTask {
	return &PeriodicTask{Interval: interval, LastFired: now}
}

// Poll reports whether the interval has elapsed since the last firing.
// On true, LastFired is set to now; on false the task is left untouched.
func (t *PeriodicTask) Poll(now uint32) bool {
	if t.forced || Elapsed(t.LastFired, now) >= t.Interval {
		t.forced = false
		t.LastFired = now
		return true
	}
	return false
}

// Force makes the next Poll fire regardless of elapsed time.
func (t *PeriodicTask) Force() {
	t.forced = true
}

// Reset restarts the period at now and drops any pending Force.
func (t *PeriodicTask) Reset(now uint32) {
	t.LastFired = now
	t.forced = false
}
