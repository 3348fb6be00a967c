package logic

// DefaultDisconnectAfter is the number of consecutive failed reads that
// mark a sensor as disconnected.
const DefaultDisconnectAfter = 2

// SensorHealth tracks consecutive read failures and the last good value.
// A single failure keeps the previous value; threshold failures in a row
// report the device as disconnected until the next good read.
type SensorHealth struct {
	threshold int
	failures  int
	lastGood  float64
	hasGood   bool
}

// NewSensorHealth creates a tracker. A threshold below 1 is treated as 1.
func NewSensorHealth(threshold int) *SensorHealth {
	if threshold < 1 {
		threshold = 1
	}
	return &SensorHealth{threshold: threshold}
}

// Observe records the outcome of one read and returns the value to use
// along with whether it is valid (connected and at least one good read).
func (h *SensorHealth) Observe(value float64, err error) (float64, bool) {
	if err != nil {
		h.failures++
		return h.lastGood, h.hasGood && h.Connected()
	}
	h.failures = 0
	h.lastGood = value
	h.hasGood = true
	return value, true
}

// Connected reports false once threshold consecutive failures were seen.
func (h *SensorHealth) Connected() bool {
	return h.failures < h.threshold
}

// Failures returns the current run of consecutive failures.
func (h *SensorHealth) Failures() int {
	return h.failures
}

// LastGood returns the most recent successful value, if any.
func (h *SensorHealth) LastGood() (float64, bool) {
	return h.lastGood, h.hasGood
}
