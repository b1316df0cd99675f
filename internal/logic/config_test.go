package logic

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig(AllChannels())
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.TiltSource != TiltFromMaxAxis {
		t.Errorf("TiltSource: got %q, want %q", cfg.TiltSource, TiltFromMaxAxis)
	}
	if cfg.maxDt() != 10*time.Second {
		t.Errorf("maxDt: got %v, want 10s", cfg.maxDt())
	}
}

func TestConfigValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"tilt above 90", func(c *Config) { c.TiltThresholdDeg = 91 }},
		{"negative tilt", func(c *Config) { c.TiltThresholdDeg = -1 }},
		{"NaN tilt", func(c *Config) { c.TiltThresholdDeg = math.NaN() }},
		{"motion above 10", func(c *Config) { c.MotionThresholdMS2 = 10.5 }},
		{"vibration above 50", func(c *Config) { c.VibrationThresholdMS2 = 51 }},
		{"alpha too low", func(c *Config) { c.FilterAlpha = 0.5 }},
		{"alpha too high", func(c *Config) { c.FilterAlpha = 1 }},
		{"zero interval", func(c *Config) { c.PollInterval = 0 }},
		{"accel range", func(c *Config) { c.AccelRangeG = 3 }},
		{"gyro range", func(c *Config) { c.GyroRangeDPS = 300 }},
		{"smoothing zero", func(c *Config) { c.BaselineSmoothing = 0 }},
		{"smoothing too high", func(c *Config) { c.BaselineSmoothing = 0.9 }},
		{"tilt source", func(c *Config) { c.TiltSource = "heading" }},
		{"tilt hysteresis above threshold", func(c *Config) { c.TiltHysteresisDeg = 16 }},
		{"negative motion hysteresis", func(c *Config) { c.MotionHysteresisMS2 = -0.1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig(AllChannels())
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("expected ErrInvalidConfiguration, got %v", err)
			}
		})
	}
}

func TestConfigValidateAcceptsBoundaries(t *testing.T) {
	cfg := DefaultConfig(0)
	cfg.TiltThresholdDeg = 90
	cfg.MotionThresholdMS2 = 0
	cfg.VibrationThresholdMS2 = 50
	cfg.FilterAlpha = 0.80
	cfg.AccelRangeG = 16
	cfg.GyroRangeDPS = 125
	cfg.BaselineSmoothing = 0.5
	cfg.TiltSource = TiltFromInclination
	cfg.TiltHysteresisDeg = 90
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
