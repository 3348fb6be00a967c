package logic

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		measured, setpoint, high float64
		want                     ThermalState
	}{
		{28, 24, 3, ThermalAlarm},
		{25, 24, 3, ThermalWarning},
		{23, 24, 3, ThermalNormal},
		{27, 24, 3, ThermalWarning},
		{24, 24, 3, ThermalNormal},
		{24.1, 24, 3, ThermalWarning},
		{27.1, 24, 3, ThermalAlarm},
	}

	for _, tt := range tests {
		got := Classify(tt.measured, tt.setpoint, tt.high)
		if got != tt.want {
			t.Errorf("Classify(%v, %v, %v) = %s, want %s", tt.measured, tt.setpoint, tt.high, got, tt.want)
		}
	}
}

func TestClassifyIsLevelTriggered(t *testing.T) {
	// A glitch reading recovers on the next cycle without any reset.
	if Classify(40, 24, 3) != ThermalAlarm {
		t.Fatal("expected alarm for glitch value")
	}
	if Classify(22, 24, 3) != ThermalNormal {
		t.Error("expected normal immediately after glitch")
	}
}
