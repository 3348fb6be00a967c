package logic

// DefaultHighThreshold is the delta above setpoint that raises an alarm.
const DefaultHighThreshold = 3.0

// Classify returns the thermal state for a measurement against a setpoint.
// Alarm requires delta strictly greater than highThreshold; Warning requires
// 0 < delta <= highThreshold. It holds no state and is recomputed every cycle.
func Classify(measured, setpoint, highThreshold float64) ThermalState {
	delta := measured - setpoint
	switch {
	case delta > highThreshold:
		return ThermalAlarm
	case delta > 0:
		return ThermalWarning
	default:
		return ThermalNormal
	}
}
