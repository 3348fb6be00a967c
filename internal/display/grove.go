package display

import (
	"fmt"
	"time"

	"github.com/sweeney/picodemos/internal/hw"
	"github.com/sweeney/picodemos/internal/i2cbus"
)

// GroveAddress is the I2C address of the Grove 16x2 LCD text controller.
const GroveAddress = 0x3E

// Control bytes preceding a command or a run of data.
const (
	ctrlCommand = 0x80
	ctrlData    = 0x40
)

// HD44780-compatible commands.
const (
	cmdClear       = 0x01
	cmdEntryMode   = 0x06 // increment, no shift
	cmdDisplayOn   = 0x0C // display on, cursor off, blink off
	cmdFunctionSet = 0x28 // 4-bit equivalent, 2 lines, 5x8
	cmdRow0        = 0x80
	cmdRow1        = 0xC0
)

// Grove drives a Grove LCD over I2C.
type Grove struct {
	bus  i2cbus.Bus
	addr uint16

	// Sleep is used for controller settle delays. Defaults to time.Sleep.
	Sleep func(time.Duration)
}

// OpenGrove probes addr on bus and initialises the panel. A missing panel
// is reported as *hw.PeripheralInitError.
func OpenGrove(bus i2cbus.Bus, addr uint16) (*Grove, error) {
	g := &Grove{bus: bus, addr: addr, Sleep: time.Sleep}
	if err := i2cbus.Probe(bus, addr); err != nil {
		return nil, &hw.PeripheralInitError{Peripheral: "lcd", Err: err}
	}
	if err := g.Configure(); err != nil {
		return nil, &hw.PeripheralInitError{Peripheral: "lcd", Err: err}
	}
	return g, nil
}

// Configure runs the controller power-up sequence.
func (g *Grove) Configure() error {
	g.Sleep(50 * time.Millisecond)
	for i := 0; i < 3; i++ {
		if err := g.command(cmdFunctionSet); err != nil {
			return err
		}
		g.Sleep(5 * time.Millisecond)
	}
	for _, c := range []byte{cmdDisplayOn, cmdEntryMode} {
		if err := g.command(c); err != nil {
			return err
		}
	}
	return g.Clear()
}

// Clear blanks the panel and homes the cursor.
func (g *Grove) Clear() error {
	if err := g.command(cmdClear); err != nil {
		return err
	}
	g.Sleep(2 * time.Millisecond)
	return nil
}

// WriteAt moves the cursor and writes text, clipped to the row.
func (g *Grove) WriteAt(row, col uint8, text string) error {
	if row >= Rows {
		return fmt.Errorf("lcd: row %d out of range", row)
	}
	text = Clip(col, text)
	if text == "" {
		return nil
	}
	base := byte(cmdRow0)
	if row == 1 {
		base = cmdRow1
	}
	if err := g.command(base + col); err != nil {
		return err
	}
	buf := make([]byte, 0, len(text)+1)
	buf = append(buf, ctrlData)
	buf = append(buf, text...)
	if err := g.bus.Tx(g.addr, buf, nil); err != nil {
		return fmt.Errorf("lcd data: %w", err)
	}
	return nil
}

func (g *Grove) command(c byte) error {
	if err := g.bus.Tx(g.addr, []byte{ctrlCommand, c}, nil); err != nil {
		return fmt.Errorf("lcd command %#02x: %w", c, err)
	}
	return nil
}
