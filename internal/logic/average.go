package logic

import "math"

// MovingAverage keeps the last N samples and reports their mean.
type MovingAverage struct {
	buf   []float64
	head  int
	count int
	sum   float64
}

// NewMovingAverage creates a window of size n (at least 1).
func NewMovingAverage(n int) *MovingAverage {
	if n < 1 {
		n = 1
	}
	return &MovingAverage{buf: make([]float64, n)}
}

// Add pushes a sample, evicting the oldest once the window is full.
func (m *MovingAverage) Add(v float64) {
	if m.count == len(m.buf) {
		m.sum -= m.buf[m.head]
	} else {
		m.count++
	}
	m.buf[m.head] = v
	m.sum += v
	m.head = (m.head + 1) % len(m.buf)
}

// Len returns the number of samples currently held.
func (m *MovingAverage) Len() int {
	return m.count
}

// Full reports whether the window holds N samples.
func (m *MovingAverage) Full() bool {
	return m.count == len(m.buf)
}

// Mean returns the average of held samples, or 0 when empty.
func (m *MovingAverage) Mean() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sum / float64(m.count)
}

// StdDev returns the population standard deviation of held samples.
func (m *MovingAverage) StdDev() float64 {
	if m.count == 0 {
		return 0
	}
	mean := m.Mean()
	var acc float64
	for i := 0; i < m.count; i++ {
		d := m.buf[i] - mean
		acc += d * d
	}
	return math.Sqrt(acc / float64(m.count))
}

// Reset drops all samples.
func (m *MovingAverage) Reset() {
	m.head = 0
	m.count = 0
	m.sum = 0
}
