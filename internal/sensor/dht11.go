package sensor

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DHT11 reads a DHT11 through the Linux dht11 IIO driver, which bit-bangs
// the one-wire protocol in the kernel and reports milli-degrees Celsius.
// Checksum and timing failures surface as EIO or ETIMEDOUT on read.
type DHT11 struct {
	path string
}

// NewDHT11 reads in_temp_input of iio:device<device> below root.
func NewDHT11(root string, device int) *DHT11 {
	return &DHT11{path: filepath.Join(root, "bus", "iio", "devices",
		fmt.Sprintf("iio:device%d", device), "in_temp_input")}
}

// ReadCelsius returns the latest temperature.
func (d *DHT11) ReadCelsius() (float64, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return 0, transient(err)
	}
	milli, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, transient(fmt.Errorf("parse %q: %w", strings.TrimSpace(string(data)), err))
	}
	return float64(milli) / 1000, nil
}
