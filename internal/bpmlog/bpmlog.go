// Package bpmlog appends per-minute tempo averages to a text log, one
// "<unix-seconds>,<bpm>" line per record.
package bpmlog

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// Log is an append-only tempo log.
type Log struct {
	mu   sync.Mutex
	path string
}

// Open returns a Log writing to path. The file is created on first append.
func Open(path string) *Log {
	return &Log{path: path}
}

// Path returns the file the log appends to.
func (l *Log) Path() string {
	return l.path
}

// Append writes one record.
func (l *Log) Append(at time.Time, bpm float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open bpm log: %w", err)
	}
	if _, err := fmt.Fprintf(f, "%d,%.2f\n", at.Unix(), bpm); err != nil {
		f.Close()
		return fmt.Errorf("write bpm log: %w", err)
	}
	return f.Close()
}
