package logic

import "math"

// VibrationEstimator reports how far the acceleration magnitude deviates from
// a slowly tracked gravity baseline.
//
// The baseline is an exponential moving average with per-tick weight
// smoothing, kept much slower than the orientation filter so real vibration
// is not absorbed into it.
type VibrationEstimator struct {
	smoothing float64
	state     VibrationState
}

// NewVibrationEstimator creates an estimator whose baseline starts at standard gravity.
func NewVibrationEstimator(smoothing float64) *VibrationEstimator {
	return &VibrationEstimator{
		smoothing: smoothing,
		state:     VibrationState{Baseline: StandardGravity},
	}
}

// State returns the current estimator state.
func (v *VibrationEstimator) State() VibrationState {
	return v.state
}

// Update measures one sample against the current baseline, then moves the
// baseline toward it. The returned magnitude is never negative.
func (v *VibrationEstimator) Update(s CalibratedSample) float64 {
	norm := math.Sqrt(s.Ax*s.Ax + s.Ay*s.Ay + s.Az*s.Az)
	if math.IsNaN(norm) || math.IsInf(norm, 0) {
		return v.state.Magnitude
	}

	mag := math.Abs(norm - v.state.Baseline)
	v.state.Baseline += v.smoothing * (norm - v.state.Baseline)
	v.state.Magnitude = mag
	return mag
}
