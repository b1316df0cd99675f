//go:build !linux

package gpio

import (
	"errors"

	"github.com/Cupra85/bmi160-pro/internal/logic"
)

// RealIndicator is not available on non-Linux platforms.
type RealIndicator struct{}

// NewRealIndicator returns an error on non-Linux platforms.
func NewRealIndicator(chipName string, pins Pins) (*RealIndicator, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// PublishOutput is not implemented on non-Linux platforms.
func (r *RealIndicator) PublishOutput(out logic.Output) error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *RealIndicator) Close() error {
	return nil
}
