// Package sensor reads ambient temperature from the thermostat's sensor
// variants. Every failed read is reported as ErrTransient; deciding when a
// run of failures means the device is gone is left to logic.SensorHealth.
package sensor

import (
	"errors"
	"fmt"
)

// ErrTransient marks a single bad reading. The caller keeps its last good value.
var ErrTransient = errors.New("sensor: transient read error")

// Thermometer reads a temperature in degrees Celsius.
type Thermometer interface {
	ReadCelsius() (float64, error)
}

// Kind names a thermostat sensor variant.
type Kind string

const (
	KindSim   Kind = "sim"
	KindDHT20 Kind = "dht20"
	KindDHT11 Kind = "dht11"
)

// ParseKind validates a variant name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindSim, KindDHT20, KindDHT11:
		return k, nil
	}
	return "", fmt.Errorf("unknown sensor kind %q (want sim, dht20 or dht11)", s)
}

func transient(err error) error {
	return fmt.Errorf("%w: %v", ErrTransient, err)
}
