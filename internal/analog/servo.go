package analog

import (
	"context"
	"time"

	"github.com/sweeney/picodemos/internal/mathx"
)

// Hobby servo defaults: 50 Hz frame, 0.5 ms to 2.5 ms pulse as 16-bit duty.
const (
	ServoHz      = 50
	ServoMinDuty = 1640
	ServoMaxDuty = 8190
)

// Servo positions a hobby servo on a PWM channel.
type Servo struct {
	out     Output
	minDuty uint16
	maxDuty uint16
	angle   float64
}

// NewServo sets the channel to hz. The horn does not move until SetAngle.
func NewServo(out Output, hz uint32, minDuty, maxDuty uint16) (*Servo, error) {
	s := &Servo{out: out, minDuty: minDuty, maxDuty: maxDuty, angle: 90}
	if err := out.SetFrequencyHz(hz); err != nil {
		return s, err
	}
	return s, nil
}

// Duty returns the 16-bit duty for angle, clamped to 0..180 degrees.
func (s *Servo) Duty(angle float64) uint16 {
	angle = mathx.Clamp(angle, 0, 180)
	span := float64(s.maxDuty - s.minDuty)
	return s.minDuty + uint16(angle/180*span)
}

// SetAngle moves the horn to angle degrees.
func (s *Servo) SetAngle(angle float64) error {
	angle = mathx.Clamp(angle, 0, 180)
	if err := s.out.SetDutyFraction(float32(s.Duty(angle)) / FullScale); err != nil {
		return err
	}
	s.angle = angle
	return nil
}

// Angle returns the last commanded angle.
func (s *Servo) Angle() float64 {
	return s.angle
}

// SmoothMove steps to target in steps moves, pausing delay between them.
// It stops early when ctx is done.
func (s *Servo) SmoothMove(ctx context.Context, target float64, steps int, delay time.Duration, sleep func(context.Context, time.Duration) error) error {
	if steps < 1 {
		steps = 1
	}
	start := s.angle
	step := (target - start) / float64(steps)
	for i := 1; i < steps; i++ {
		if err := s.SetAngle(start + step*float64(i)); err != nil {
			return err
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
	return s.SetAngle(target)
}

// Detach stops the pulse train.
func (s *Servo) Detach() error {
	if err := s.out.SetDutyFraction(0); err != nil {
		return err
	}
	return s.out.SetFrequencyHz(0)
}
