// Package analog provides ADC inputs, PWM outputs and an RGB LED built on
// PWM, each with a Linux sysfs implementation and a test double.
package analog

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// FullScale is the top of the normalised 16-bit ADC range.
const FullScale = 65535

// Input reads one analog channel normalised to 0..65535.
type Input interface {
	ReadRaw() (uint16, error)
}

// DefaultSysfsRoot is where the kernel exposes IIO and PWM devices.
const DefaultSysfsRoot = "/sys"

// IIOInput reads an ADC channel through the Linux industrial I/O sysfs
// interface and scales it to 16 bits.
type IIOInput struct {
	path string
	bits uint
}

// NewIIOInput opens in_voltage<channel>_raw of iio:device<device> below root.
// bits is the converter resolution (e.g. 12 for an ADS1015, 10 for an MCP3008).
func NewIIOInput(root string, device, channel int, bits uint) (*IIOInput, error) {
	if bits == 0 || bits > 16 {
		return nil, fmt.Errorf("adc: unsupported resolution %d bits", bits)
	}
	path := filepath.Join(root, "bus", "iio", "devices",
		fmt.Sprintf("iio:device%d", device), fmt.Sprintf("in_voltage%d_raw", channel))
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("adc channel %d: %w", channel, err)
	}
	return &IIOInput{path: path, bits: bits}, nil
}

// ReadRaw returns the latest conversion scaled to 0..65535.
func (a *IIOInput) ReadRaw() (uint16, error) {
	data, err := os.ReadFile(a.path)
	if err != nil {
		return 0, fmt.Errorf("read adc: %w", err)
	}
	v, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse adc value %q: %w", strings.TrimSpace(string(data)), err)
	}
	if v < 0 {
		v = 0
	}
	top := int64(1)<<a.bits - 1
	if v > top {
		v = top
	}
	return uint16(v * FullScale / top), nil
}
