package logic

import (
	"fmt"
	"math"
	"time"
)

// TiltSource selects the quantity compared against the tilt threshold.
type TiltSource string

const (
	// TiltFromInclination compares the inclination from vertical.
	TiltFromInclination TiltSource = "inclination"
	// TiltFromMaxAxis compares max(|pitch|, |roll|).
	TiltFromMaxAxis TiltSource = "max_axis"
)

// Defaults for Config fields left at their zero value by DefaultConfig callers.
const (
	DefaultTiltThresholdDeg      = 15.0
	DefaultMotionThresholdMS2    = 0.3
	DefaultVibrationThresholdMS2 = 0.5
	DefaultFilterAlpha           = 0.98
	DefaultPollInterval          = 5 * time.Second
	DefaultAccelRangeG           = 2
	DefaultGyroRangeDPS          = 2000
	DefaultBaselineSmoothing     = 0.01
)

// Config is the immutable engine configuration.
type Config struct {
	TiltThresholdDeg      float64
	MotionThresholdMS2    float64
	VibrationThresholdMS2 float64
	FilterAlpha           float64
	PollInterval          time.Duration

	AccelRangeG  int
	GyroRangeDPS int

	BaselineSmoothing float64
	TiltSource        TiltSource

	TiltHysteresisDeg   float64
	MotionHysteresisMS2 float64

	Outputs ChannelSet
}

// DefaultConfig returns a Config with every field at its documented default
// and the given outputs enabled.
func DefaultConfig(outputs ChannelSet) Config {
	return Config{
		TiltThresholdDeg:      DefaultTiltThresholdDeg,
		MotionThresholdMS2:    DefaultMotionThresholdMS2,
		VibrationThresholdMS2: DefaultVibrationThresholdMS2,
		FilterAlpha:           DefaultFilterAlpha,
		PollInterval:          DefaultPollInterval,
		AccelRangeG:           DefaultAccelRangeG,
		GyroRangeDPS:          DefaultGyroRangeDPS,
		BaselineSmoothing:     DefaultBaselineSmoothing,
		TiltSource:            TiltFromMaxAxis,
		Outputs:               outputs,
	}
}

// Validate checks every field against its allowed range.
// The returned error wraps ErrInvalidConfiguration.
func (c Config) Validate() error {
	if err := checkRange("tilt_threshold_deg", c.TiltThresholdDeg, 0, 90); err != nil {
		return err
	}
	if err := checkRange("motion_threshold_ms2", c.MotionThresholdMS2, 0, 10); err != nil {
		return err
	}
	if err := checkRange("vibration_threshold_ms2", c.VibrationThresholdMS2, 0, 50); err != nil {
		return err
	}
	if err := checkRange("filter_alpha", c.FilterAlpha, 0.80, 0.999); err != nil {
		return err
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: update_interval must be > 0", ErrInvalidConfiguration)
	}
	if !validAccelRange(c.AccelRangeG) {
		return fmt.Errorf("%w: accel_range_g must be one of 2, 4, 8, 16 (got %d)", ErrInvalidConfiguration, c.AccelRangeG)
	}
	if !validGyroRange(c.GyroRangeDPS) {
		return fmt.Errorf("%w: gyro_range_dps must be one of 125, 250, 500, 1000, 2000 (got %d)", ErrInvalidConfiguration, c.GyroRangeDPS)
	}
	if c.BaselineSmoothing <= 0 || c.BaselineSmoothing > 0.5 {
		return fmt.Errorf("%w: baseline_smoothing must be in (0, 0.5] (got %g)", ErrInvalidConfiguration, c.BaselineSmoothing)
	}
	switch c.TiltSource {
	case TiltFromInclination, TiltFromMaxAxis:
	default:
		return fmt.Errorf("%w: tilt_source must be %q or %q (got %q)", ErrInvalidConfiguration, TiltFromInclination, TiltFromMaxAxis, c.TiltSource)
	}
	if err := checkRange("tilt_hysteresis_deg", c.TiltHysteresisDeg, 0, c.TiltThresholdDeg); err != nil {
		return err
	}
	if err := checkRange("motion_hysteresis_ms2", c.MotionHysteresisMS2, 0, c.MotionThresholdMS2); err != nil {
		return err
	}
	return nil
}

// maxDt is the largest integration step the orientation filter accepts.
func (c Config) maxDt() time.Duration {
	return 2 * c.PollInterval
}

func checkRange(name string, v, lo, hi float64) error {
	if math.IsNaN(v) || v < lo || v > hi {
		return fmt.Errorf("%w: %s must be in [%g, %g] (got %g)", ErrInvalidConfiguration, name, lo, hi, v)
	}
	return nil
}
