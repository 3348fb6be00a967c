package display

import (
	"strings"
	"sync"
)

// Fake is an in-memory panel for tests.
type Fake struct {
	mu     sync.Mutex
	rows   [Rows][]byte
	Clears int
	Writes int

	// Err, if set, is returned by every call.
	Err error
}

// NewFake creates a blank panel.
func NewFake() *Fake {
	f := &Fake{}
	f.blank()
	return f
}

func (f *Fake) blank() {
	for i := range f.rows {
		f.rows[i] = []byte(strings.Repeat(" ", Columns))
	}
}

// Clear blanks the panel.
func (f *Fake) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.blank()
	f.Clears++
	return nil
}

// WriteAt writes text into the row buffer.
func (f *Fake) WriteAt(row, col uint8, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	if int(row) >= Rows {
		return nil
	}
	copy(f.rows[row][col:], Clip(col, text))
	f.Writes++
	return nil
}

// Row returns the row contents with trailing spaces trimmed.
func (f *Fake) Row(row int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return strings.TrimRight(string(f.rows[row]), " ")
}
