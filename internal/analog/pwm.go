package analog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/sweeney/picodemos/internal/mathx"
)

// Output drives one PWM channel.
type Output interface {
	SetFrequencyHz(hz uint32) error
	SetDutyFraction(duty float32) error
}

// PeriodFromHz returns the period in nanoseconds for a frequency.
// 0 Hz is coerced to 1 Hz to avoid division by zero.
func PeriodFromHz(hz uint32) uint64 {
	if hz == 0 {
		hz = 1
	}
	return 1_000_000_000 / uint64(hz)
}

// SysfsPWM drives a channel of /sys/class/pwm/pwmchipN.
type SysfsPWM struct {
	mu       sync.Mutex
	chipDir  string
	dir      string
	channel  int
	periodNs uint64
	duty     float32
	enabled  bool
}

// OpenSysfsPWM exports channel on pwmchip<chip> below root if needed.
func OpenSysfsPWM(root string, chip, channel int) (*SysfsPWM, error) {
	chipDir := filepath.Join(root, "class", "pwm", fmt.Sprintf("pwmchip%d", chip))
	if _, err := os.Stat(chipDir); err != nil {
		return nil, fmt.Errorf("pwm chip %d: %w", chip, err)
	}
	dir := filepath.Join(chipDir, fmt.Sprintf("pwm%d", channel))
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		if err := writeAttr(chipDir, "export", strconv.Itoa(channel)); err != nil {
			return nil, fmt.Errorf("export pwm channel %d: %w", channel, err)
		}
	}
	return &SysfsPWM{chipDir: chipDir, dir: dir, channel: channel}, nil
}

// SetFrequencyHz changes the period and reapplies the current duty.
// 0 Hz disables the output.
func (p *SysfsPWM) SetFrequencyHz(hz uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if hz == 0 {
		return p.setEnabled(false)
	}
	period := PeriodFromHz(hz)
	if period == p.periodNs {
		return p.setEnabled(true)
	}
	// duty_cycle must never exceed period, so clear it first.
	if err := writeAttr(p.dir, "duty_cycle", "0"); err != nil {
		return fmt.Errorf("pwm%d duty: %w", p.channel, err)
	}
	if err := writeAttr(p.dir, "period", strconv.FormatUint(period, 10)); err != nil {
		return fmt.Errorf("pwm%d period: %w", p.channel, err)
	}
	p.periodNs = period
	return p.applyDuty()
}

// SetDutyFraction sets the high fraction of the period, clamped to [0,1].
func (p *SysfsPWM) SetDutyFraction(duty float32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.duty = mathx.Clamp(duty, 0, 1)
	if p.periodNs == 0 {
		return nil
	}
	return p.applyDuty()
}

func (p *SysfsPWM) applyDuty() error {
	ns := uint64(float64(p.periodNs) * float64(p.duty))
	if err := writeAttr(p.dir, "duty_cycle", strconv.FormatUint(ns, 10)); err != nil {
		return fmt.Errorf("pwm%d duty: %w", p.channel, err)
	}
	return p.setEnabled(true)
}

func (p *SysfsPWM) setEnabled(on bool) error {
	if on == p.enabled {
		return nil
	}
	v := "0"
	if on {
		v = "1"
	}
	if err := writeAttr(p.dir, "enable", v); err != nil {
		return fmt.Errorf("pwm%d enable: %w", p.channel, err)
	}
	p.enabled = on
	return nil
}

// Close disables and unexports the channel.
func (p *SysfsPWM) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if err := p.setEnabled(false); err != nil {
		errs = append(errs, err)
	}
	if err := writeAttr(p.chipDir, "unexport", strconv.Itoa(p.channel)); err != nil {
		errs = append(errs, fmt.Errorf("unexport pwm%d: %w", p.channel, err))
	}
	return errors.Join(errs...)
}

func writeAttr(dir, name, value string) error {
	return os.WriteFile(filepath.Join(dir, name), []byte(value), 0o644)
}

// NopPWM discards every setting. It stands in for a PWM channel that could
// not be opened at startup.
type NopPWM struct{}

func (NopPWM) SetFrequencyHz(uint32) error { return nil }
func (NopPWM) SetDutyFraction(float32) error { return nil }
