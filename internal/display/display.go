// Package display drives small character displays used as status panels.
package display

import (
	"strings"
	"unicode/utf8"
)

// Columns is the width of every supported panel.
const Columns = 16

// Rows is the height of every supported panel.
const Rows = 2

// TextDisplay is a character panel addressed by row and column.
type TextDisplay interface {
	Clear() error
	// WriteAt writes text starting at (row, col). Text past the last
	// column is dropped.
	WriteAt(row, col uint8, text string) error
}

// degreeCell is the character ROM code for the degree sign.
const degreeCell = 0xDF

// Clip converts text to panel cells, one byte per character, and limits it
// to what fits from col to the end of the row. Characters outside ASCII
// show as '?', except the degree sign.
func Clip(col uint8, text string) string {
	if int(col) >= Columns {
		return ""
	}
	room := Columns - int(col)
	cells := make([]byte, 0, room)
	for _, r := range text {
		if len(cells) == room {
			break
		}
		switch {
		case r < utf8.RuneSelf:
			cells = append(cells, byte(r))
		case r == '°':
			cells = append(cells, degreeCell)
		default:
			cells = append(cells, '?')
		}
	}
	return string(cells)
}

// WriteRow writes text at column 0 padded with spaces to the full width,
// overwriting whatever the row held before without a flickering Clear.
func WriteRow(d TextDisplay, row uint8, text string) error {
	text = Clip(0, text)
	return d.WriteAt(row, 0, text+strings.Repeat(" ", Columns-len(text)))
}

// Nop is a display that accepts and discards everything. It stands in for
// a panel that was not found at startup.
type Nop struct{}

func (Nop) Clear() error { return nil }
func (Nop) WriteAt(uint8, uint8, string) error { return nil }
