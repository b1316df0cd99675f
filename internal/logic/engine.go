package logic

import (
	"fmt"
	"time"
)

// SampleSource delivers one raw sample per call.
type SampleSource interface {
	ReadRawSample() (RawSample, error)
}

// Engine runs one calibration, orientation, vibration and alert pass per tick.
// It is not safe for concurrent use; a single scheduler owns it.
type Engine struct {
	cfg         Config
	cal         Calibration
	orientation *OrientationFilter
	vibration   *VibrationEstimator
	alerts      *AlertEngine

	lastTick time.Time
}

// NewEngine validates cfg and creates an engine with fresh state.
// The gyro bias is subtracted from every calibrated sample.
func NewEngine(cfg Config, bias GyroBias) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cal := NewCalibration(cfg.AccelRangeG, cfg.GyroRangeDPS, bias)
	cal.skipTemp = !cfg.Outputs.Has(ChannelTemperature)

	return &Engine{
		cfg:         cfg,
		cal:         cal,
		orientation: NewOrientationFilter(cfg.FilterAlpha, cfg.maxDt()),
		vibration:   NewVibrationEstimator(cfg.BaselineSmoothing),
		alerts:      NewAlertEngine(cfg),
	}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Tick reads one sample from src and advances every stage exactly once.
// If the read fails the returned error wraps ErrSampleUnavailable and no
// state is modified.
func (e *Engine) Tick(now time.Time, src SampleSource) (Reading, error) {
	raw, err := src.ReadRawSample()
	if err != nil {
		return Reading{}, fmt.Errorf("%w: %v", ErrSampleUnavailable, err)
	}
	return e.Process(now, raw), nil
}

// Process advances the engine with a sample that has already been read.
func (e *Engine) Process(now time.Time, raw RawSample) Reading {
	var dt time.Duration
	if !e.lastTick.IsZero() {
		dt = now.Sub(e.lastTick)
	}
	e.lastTick = now

	s := e.cal.Apply(raw)
	o := e.orientation.Update(s, dt, now)
	vib := e.vibration.Update(s)
	events := e.alerts.Evaluate(now, o, vib)

	return Reading{
		Time:          now,
		Sample:        s,
		Orientation:   o,
		Vibration:     vib,
		VibrationHigh: vib > e.cfg.VibrationThresholdMS2,
		TiltAlert:     e.alerts.Tilt().Active,
		MotionAlert:   e.alerts.Motion().Active,
		Events:        events,
	}
}

// Calibrate converts a raw sample without touching engine state.
func (e *Engine) Calibrate(raw RawSample) CalibratedSample {
	return e.cal.Apply(raw)
}

// State returns a copy of all persisted engine state.
func (e *Engine) State() EngineState {
	return EngineState{
		Orientation: e.orientation.State(),
		Vibration:   e.vibration.State(),
		Tilt:        e.alerts.Tilt(),
		Motion:      e.alerts.Motion(),
		LastTick:    e.lastTick,
	}
}

// EventCountsSnapshot returns a copy of the alert event counts.
func (e *Engine) EventCountsSnapshot() EventCounts {
	return e.alerts.EventCountsSnapshot()
}
