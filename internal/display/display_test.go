package display

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/picodemos/internal/hw"
	"github.com/sweeney/picodemos/internal/i2cbus"
)

func noSleep(time.Duration) {}

func TestClip(t *testing.T) {
	assert.Equal(t, "0123456789abcdef", Clip(0, "0123456789abcdefXYZ"))
	assert.Equal(t, "0123", Clip(12, "0123456789"))
	assert.Equal(t, "", Clip(16, "x"))
	assert.Equal(t, "ok", Clip(3, "ok"))
}

func TestClipNonASCII(t *testing.T) {
	assert.Equal(t, "Amb:21.5\xdfC", Clip(0, "Amb:21.5°C"))
	assert.Equal(t, "h?", Clip(14, "héllo"))
	assert.Equal(t, strings.Repeat("?", Columns), Clip(0, strings.Repeat("é", 20)))
}

func TestWriteRowPadsNonASCII(t *testing.T) {
	f := NewFake()
	require.NoError(t, WriteRow(f, 0, "Zone: Zürich"))
	assert.Equal(t, "Zone: Z?rich", f.Row(0))
}

func TestWriteRowPads(t *testing.T) {
	f := NewFake()
	require.NoError(t, f.WriteAt(1, 0, "Amb:24.3C-long"))
	require.NoError(t, WriteRow(f, 1, "ALARM"))
	assert.Equal(t, "ALARM", f.Row(1))
}

func TestFakeWriteAtColumn(t *testing.T) {
	f := NewFake()
	require.NoError(t, f.WriteAt(0, 10, "abcdefghij"))
	assert.Equal(t, "          abcdef", f.Row(0))
	require.NoError(t, f.Clear())
	assert.Equal(t, "", f.Row(0))
	assert.Equal(t, 1, f.Clears)
}

func TestOpenGroveMissing(t *testing.T) {
	bus := i2cbus.NewFakeBus()
	_, err := OpenGrove(bus, GroveAddress)
	require.Error(t, err)

	var pe *hw.PeripheralInitError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "lcd", pe.Peripheral)
	assert.True(t, errors.Is(err, i2cbus.ErrNoAck))
}

func TestGroveInitAndWrite(t *testing.T) {
	bus := i2cbus.NewFakeBus(GroveAddress)
	g := &Grove{bus: bus, addr: GroveAddress, Sleep: noSleep}

	require.NoError(t, g.Configure())
	writes := bus.Writes(GroveAddress)
	require.Len(t, writes, 6)
	assert.Equal(t, []byte{ctrlCommand, cmdFunctionSet}, writes[0])
	assert.Equal(t, []byte{ctrlCommand, cmdDisplayOn}, writes[3])
	assert.Equal(t, []byte{ctrlCommand, cmdEntryMode}, writes[4])
	assert.Equal(t, []byte{ctrlCommand, cmdClear}, writes[5])

	require.NoError(t, g.WriteAt(1, 2, "Set:24.0C"))
	writes = bus.Writes(GroveAddress)
	assert.Equal(t, []byte{ctrlCommand, 0xC2}, writes[6])
	assert.Equal(t, append([]byte{ctrlData}, "Set:24.0C"...), writes[7])
}

func TestGroveRejectsBadRow(t *testing.T) {
	bus := i2cbus.NewFakeBus(GroveAddress)
	g := &Grove{bus: bus, addr: GroveAddress, Sleep: noSleep}
	assert.Error(t, g.WriteAt(2, 0, "x"))
}

func TestNopDisplay(t *testing.T) {
	var d TextDisplay = Nop{}
	assert.NoError(t, d.Clear())
	assert.NoError(t, d.WriteAt(0, 0, "anything"))
}
