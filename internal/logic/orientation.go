package logic

import (
	"math"
	"time"
)

const (
	// Below this fraction of g the accelerometer carries no usable tilt (free fall).
	degenerateNormG = 0.1
	// An angle is unobservable from gravity when its rotation axis is near
	// vertical, i.e. the gravity projection onto the plane perpendicular to
	// that axis is shorter than this fraction of |a|.
	degenerateRatio = 0.05

	maxTiltDeg = 90.0
)

// OrientationFilter is a complementary filter fusing integrated gyro rate with
// accelerometer tilt.
//
// Pitch is the rotation about the sensor x axis (gyro x) and roll the rotation
// about the sensor y axis (gyro y). Inclination is the angle between the
// measured gravity vector and the sensor z axis, saturating at 90 once the
// device is on its side or inverted.
type OrientationFilter struct {
	alpha float64
	maxDt time.Duration
	state OrientationState
}

// NewOrientationFilter creates a filter with blend factor alpha. Integration
// steps longer than maxDt are clamped to maxDt.
func NewOrientationFilter(alpha float64, maxDt time.Duration) *OrientationFilter {
	return &OrientationFilter{alpha: alpha, maxDt: maxDt}
}

// State returns the current filter state.
func (f *OrientationFilter) State() OrientationState {
	return f.state
}

// Update fuses one calibrated sample taken dt after the previous one.
func (f *OrientationFilter) Update(s CalibratedSample, dt time.Duration, at time.Time) OrientationState {
	if dt < 0 {
		dt = 0
	}
	if dt > f.maxDt {
		dt = f.maxDt
	}
	secs := dt.Seconds()

	prev := f.state
	accPitch, accRoll, pitchOK, rollOK := accelTilt(s)

	next := prev
	if !prev.Initialized && pitchOK && rollOK {
		// First usable sample: there is no gyro history to blend with yet.
		next.Pitch = clampAngle(accPitch, -maxTiltDeg, maxTiltDeg, prev.Pitch)
		next.Roll = clampAngle(accRoll, -maxTiltDeg, maxTiltDeg, prev.Roll)
		next.Initialized = true
	} else {
		if !pitchOK {
			accPitch = prev.Pitch
		}
		if !rollOK {
			accRoll = prev.Roll
		}
		next.Pitch = f.fuse(prev.Pitch, s.Gx, accPitch, secs)
		next.Roll = f.fuse(prev.Roll, s.Gy, accRoll, secs)
	}
	if incl, ok := inclination(s); ok {
		next.Inclination = incl
	}
	next.UpdatedAt = at

	f.state = next
	return next
}

func (f *OrientationFilter) fuse(prev, rate, acc, secs float64) float64 {
	v := f.alpha*(prev+rate*secs) + (1-f.alpha)*acc
	return clampAngle(v, -maxTiltDeg, maxTiltDeg, prev)
}

// accelTilt derives pitch and roll (degrees) from the gravity vector.
// The ok flags are false when the respective angle is ill-conditioned.
func accelTilt(s CalibratedSample) (pitch, roll float64, pitchOK, rollOK bool) {
	norm := math.Sqrt(s.Ax*s.Ax + s.Ay*s.Ay + s.Az*s.Az)
	if norm < degenerateNormG*StandardGravity {
		return 0, 0, false, false
	}

	yz := math.Hypot(s.Ay, s.Az) // projection perpendicular to x
	xz := math.Hypot(s.Ax, s.Az) // projection perpendicular to y

	if yz >= degenerateRatio*norm {
		pitch = rad2deg(math.Atan2(s.Ay, xz))
		pitchOK = true
	}
	if xz >= degenerateRatio*norm {
		roll = rad2deg(math.Atan2(-s.Ax, yz))
		rollOK = true
	}
	return pitch, roll, pitchOK, rollOK
}

// inclination returns the angle (degrees) between the gravity vector and the
// sensor z axis, clamped to [0, 90]. ok is false in free fall.
func inclination(s CalibratedSample) (deg float64, ok bool) {
	norm := math.Sqrt(s.Ax*s.Ax + s.Ay*s.Ay + s.Az*s.Az)
	if norm < degenerateNormG*StandardGravity || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return 0, false
	}
	c := math.Max(-1, math.Min(1, s.Az/norm))
	return clampAngle(rad2deg(math.Acos(c)), 0, maxTiltDeg, maxTiltDeg), true
}

// clampAngle bounds v to [lo, hi]; non-finite values yield fallback.
func clampAngle(v, lo, hi, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = fallback
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func rad2deg(r float64) float64 { return r * 180 / math.Pi }
