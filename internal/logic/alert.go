package logic

import (
	"math"
	"time"
)

// AlertEngine evaluates the tilt and motion alerts once per tick.
type AlertEngine struct {
	tiltThreshold    float64
	tiltHysteresis   float64
	tiltSource       TiltSource
	motionThreshold  float64
	motionHysteresis float64

	tilt        AlertState
	motion      AlertState
	eventCounts EventCounts
}

// NewAlertEngine creates an alert engine with both alerts inactive.
func NewAlertEngine(cfg Config) *AlertEngine {
	return &AlertEngine{
		tiltThreshold:    cfg.TiltThresholdDeg,
		tiltHysteresis:   cfg.TiltHysteresisDeg,
		tiltSource:       cfg.TiltSource,
		motionThreshold:  cfg.MotionThresholdMS2,
		motionHysteresis: cfg.MotionHysteresisMS2,
	}
}

// Evaluate compares the current values against the thresholds and returns any
// transitions. Order: tilt first, then motion if both change on the same tick.
func (a *AlertEngine) Evaluate(now time.Time, o OrientationState, vibration float64) []AlertEvent {
	tiltValue := a.TiltValue(o)

	tiltChanged := step(&a.tilt, tiltValue, a.tiltThreshold, a.tiltHysteresis, now)
	motionChanged := step(&a.motion, vibration, a.motionThreshold, a.motionHysteresis, now)

	var events []AlertEvent
	if tiltChanged {
		t := EventTiltOff
		if a.tilt.Active {
			t = EventTiltOn
		}
		events = append(events, a.event(now, t, tiltValue))
	}
	if motionChanged {
		t := EventMotionOff
		if a.motion.Active {
			t = EventMotionOn
		}
		events = append(events, a.event(now, t, vibration))
	}

	for _, e := range events {
		switch e.Type {
		case EventTiltOn:
			a.eventCounts.TiltOn++
		case EventTiltOff:
			a.eventCounts.TiltOff++
		case EventMotionOn:
			a.eventCounts.MotionOn++
		case EventMotionOff:
			a.eventCounts.MotionOff++
		}
	}
	return events
}

// TiltValue returns the quantity compared against the tilt threshold.
func (a *AlertEngine) TiltValue(o OrientationState) float64 {
	if a.tiltSource == TiltFromMaxAxis {
		return math.Max(math.Abs(o.Pitch), math.Abs(o.Roll))
	}
	return o.Inclination
}

// Tilt returns the tilt alert state.
func (a *AlertEngine) Tilt() AlertState { return a.tilt }

// Motion returns the motion alert state.
func (a *AlertEngine) Motion() AlertState { return a.motion }

// EventCountsSnapshot returns a copy of the event counts.
func (a *AlertEngine) EventCountsSnapshot() EventCounts {
	return a.eventCounts
}

func (a *AlertEngine) event(now time.Time, t EventType, v float64) AlertEvent {
	return AlertEvent{
		Timestamp:   now,
		Type:        t,
		Value:       v,
		TiltState:   a.tilt.State(),
		MotionState: a.motion.State(),
	}
}

// step advances one alert. It activates above threshold and releases below
// threshold-hysteresis; in between the current state holds.
// Returns true if the state changed.
func step(s *AlertState, value, threshold, hysteresis float64, now time.Time) bool {
	if math.IsNaN(value) {
		return false
	}
	switch {
	case !s.Active && value > threshold:
		s.Active = true
	case s.Active && value < threshold-hysteresis:
		s.Active = false
	default:
		return false
	}
	s.Since = now
	return true
}
