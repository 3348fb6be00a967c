package sensor

import (
	"tinygo.org/x/drivers/aht20"

	"github.com/sweeney/picodemos/internal/i2cbus"
	"github.com/sweeney/picodemos/internal/mathx"
)

// ahtDevice is the part of the aht20 driver used here.
type ahtDevice interface {
	Read() error
	Celsius() float32
}

// DHT20 reads the AHT20-family sensor inside a DHT20 module over I2C.
type DHT20 struct {
	dev ahtDevice
}

// NewDHT20 configures the sensor at its fixed address on bus. A sensor that
// is absent at startup is not an error here: reads fail as transient until
// it answers.
func NewDHT20(bus i2cbus.Bus) *DHT20 {
	dev := aht20.New(bus)
	dev.Configure()
	return &DHT20{dev: &dev}
}

// ReadCelsius triggers a measurement and waits for it (about 80 ms).
func (d *DHT20) ReadCelsius() (float64, error) {
	if err := d.dev.Read(); err != nil {
		return 0, transient(err)
	}
	return mathx.Round1(float64(d.dev.Celsius())), nil
}
