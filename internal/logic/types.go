// Package logic contains the pure IMU orientation-and-alert engine.
// This package has NO external dependencies (no I2C, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import (
	"errors"
	"time"
)

// StandardGravity is the conventional value of g in m/s².
const StandardGravity = 9.80665

var (
	// ErrSampleUnavailable is returned when the bus could not deliver a sample.
	// The tick is abandoned and no engine state changes.
	ErrSampleUnavailable = errors.New("sample unavailable")

	// ErrInvalidConfiguration is returned when a config value is outside its range.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// State represents the logical state of an alert.
type State string

const (
	StateOn  State = "ON"
	StateOff State = "OFF"
)

// EventType represents an alert transition event.
type EventType string

const (
	EventTiltOn    EventType = "TILT_ON"
	EventTiltOff   EventType = "TILT_OFF"
	EventMotionOn  EventType = "MOTION_ON"
	EventMotionOff EventType = "MOTION_OFF"
)

// RawSample is one register snapshot as read from the bus.
type RawSample struct {
	Ax, Ay, Az int16
	Gx, Gy, Gz int16
	Temp       int16
}

// CalibratedSample is a RawSample converted to physical units.
type CalibratedSample struct {
	// Acceleration in m/s².
	Ax, Ay, Az float64
	// Angular rate in deg/s.
	Gx, Gy, Gz float64
	// Temperature in °C.
	Temperature float64
}

// OrientationState is the persisted state of the orientation filter.
type OrientationState struct {
	Pitch       float64
	Roll        float64
	Inclination float64
	Initialized bool
	UpdatedAt   time.Time
}

// VibrationState is the persisted state of the vibration estimator.
type VibrationState struct {
	// Baseline is the slowly tracked gravity magnitude in m/s².
	Baseline float64
	// Magnitude is the last reported deviation from Baseline, never negative.
	Magnitude float64
}

// AlertState tracks a single boolean alert.
type AlertState struct {
	Active bool
	// Since is the time of the last transition (zero until the first one).
	Since time.Time
}

// State returns the alert as ON/OFF.
func (a AlertState) State() State {
	return boolToState(a.Active)
}

// AlertEvent represents an alert transition to be published.
type AlertEvent struct {
	Timestamp time.Time
	Type      EventType
	// Value is the comparand that caused the transition.
	Value       float64
	TiltState   State
	MotionState State
}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	TiltOn    int
	TiltOff   int
	MotionOn  int
	MotionOff int
}

// Reading is the result of one successful engine tick.
type Reading struct {
	Time        time.Time
	Sample      CalibratedSample
	Orientation OrientationState
	Vibration   float64
	// VibrationHigh reports vibration above the configured vibration threshold.
	VibrationHigh bool
	TiltAlert     bool
	MotionAlert   bool
	Events        []AlertEvent
}

// EngineState is a copy of every piece of state the engine persists across ticks.
type EngineState struct {
	Orientation OrientationState
	Vibration   VibrationState
	Tilt        AlertState
	Motion      AlertState
	LastTick    time.Time
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}

func boolToState(b bool) State {
	if b {
		return StateOn
	}
	return StateOff
}
