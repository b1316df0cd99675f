// Package calib estimates the stationary gyro bias at startup.
package calib

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Cupra85/bmi160-pro/internal/logic"
	"gonum.org/v1/gonum/stat"
)

// MaxStdDevDPS is the largest per-axis rate spread (deg/s) accepted as stationary.
const MaxStdDevDPS = 1.0

var (
	// ErrMoving is returned when the rate spread shows the device was moving.
	ErrMoving = errors.New("calib: device moving during bias estimation")

	// ErrTooFewSamples is returned when fewer than two samples were collected.
	ErrTooFewSamples = errors.New("calib: too few samples")
)

// Result is a gyro bias estimate.
type Result struct {
	Bias    logic.GyroBias
	StdDev  logic.GyroBias
	Samples int
}

// Estimate computes the per-axis mean rate of samples taken at rest.
// The samples must be calibrated without a bias.
func Estimate(samples []logic.CalibratedSample) (Result, error) {
	if len(samples) < 2 {
		return Result{}, ErrTooFewSamples
	}

	xs := make([]float64, len(samples))
	ys := make([]float64, len(samples))
	zs := make([]float64, len(samples))
	for i, s := range samples {
		xs[i], ys[i], zs[i] = s.Gx, s.Gy, s.Gz
	}

	var r Result
	r.Samples = len(samples)
	r.Bias.X, r.StdDev.X = stat.MeanStdDev(xs, nil)
	r.Bias.Y, r.StdDev.Y = stat.MeanStdDev(ys, nil)
	r.Bias.Z, r.StdDev.Z = stat.MeanStdDev(zs, nil)

	if r.StdDev.X > MaxStdDevDPS || r.StdDev.Y > MaxStdDevDPS || r.StdDev.Z > MaxStdDevDPS {
		return r, fmt.Errorf("%w: rate stddev (%.2f, %.2f, %.2f) °/s", ErrMoving, r.StdDev.X, r.StdDev.Y, r.StdDev.Z)
	}
	return r, nil
}

// Collect reads n samples from src, one per interval, and estimates the bias.
// Failed reads are skipped; more than n failures abort the estimate.
func Collect(ctx context.Context, src logic.SampleSource, cal logic.Calibration, n int, interval time.Duration) (Result, error) {
	samples := make([]logic.CalibratedSample, 0, n)
	failures := 0

	for len(samples) < n {
		raw, err := src.ReadRawSample()
		if err != nil {
			failures++
			if failures > n {
				return Result{}, fmt.Errorf("calib: %d failed reads: %w", failures, err)
			}
		} else {
			samples = append(samples, cal.Apply(raw))
		}

		if interval > 0 && len(samples) < n {
			select {
			case <-ctx.Done():
				return Result{}, ctx.Err()
			case <-time.After(interval):
			}
		} else if err := ctx.Err(); err != nil {
			return Result{}, err
		}
	}
	return Estimate(samples)
}
