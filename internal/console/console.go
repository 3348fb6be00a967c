// Package console prints operator-facing status lines, coloured by severity.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

func init() {
	// Force color output even when not connected to TTY
	// Users can disable with NO_COLOR environment variable
	if os.Getenv("NO_COLOR") == "" {
		color.NoColor = false
	}
}

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

// Printer writes status lines to w.
type Printer struct {
	mu sync.Mutex
	w  io.Writer
}

// New creates a Printer writing to w.
func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Stdout is the default printer.
var Stdout = New(os.Stdout)

func (p *Printer) print(c *color.Color, prefix, format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if c == nil {
		fmt.Fprint(p.w, prefix+msg)
		return
	}
	c.Fprint(p.w, prefix+msg)
}

// Info prints a plain status line.
func (p *Printer) Info(format string, a ...any) {
	p.print(nil, "", format, a...)
}

// Success prints a green line with a checkmark prefix.
func (p *Printer) Success(format string, a ...any) {
	p.print(green, "✓ ", format, a...)
}

// Warning prints a yellow line with a warning prefix.
func (p *Printer) Warning(format string, a ...any) {
	p.print(yellow, "⚠️  ", format, a...)
}

// Alert prints a bold red line.
func (p *Printer) Alert(format string, a ...any) {
	p.print(red, "", format, a...)
}

// Banner prints a cyan title between rules.
func (p *Printer) Banner(title string) {
	rule := strings.Repeat("=", 60)
	p.print(cyan, "", "%s\n%s\n%s", rule, title, rule)
}
