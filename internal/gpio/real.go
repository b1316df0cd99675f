//go:build linux

package gpio

import (
	"errors"
	"fmt"

	"github.com/Cupra85/bmi160-pro/internal/logic"
	"github.com/warthog618/go-gpiocdev"
)

// RealIndicator drives indicator lines on actual hardware using the Linux
// GPIO character device.
type RealIndicator struct {
	chip  *gpiocdev.Chip
	lines map[logic.Channel]*gpiocdev.Line
	last  map[logic.Channel]int
}

// NewRealIndicator requests the configured lines as outputs, initially low.
func NewRealIndicator(chipName string, pins Pins) (*RealIndicator, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	r := &RealIndicator{
		chip:  chip,
		lines: make(map[logic.Channel]*gpiocdev.Line),
		last:  make(map[logic.Channel]int),
	}
	for _, c := range []logic.Channel{logic.ChannelTiltAlert, logic.ChannelMotionAlert} {
		offset := pins.lineFor(c)
		if offset <= 0 {
			continue
		}
		line, err := chip.RequestLine(offset, gpiocdev.AsOutput(0))
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", c, offset, err)
		}
		r.lines[c] = line
		r.last[c] = 0
	}
	return r, nil
}

// PublishOutput sets the line of an alert channel. Lines are only written
// when the level changes.
func (r *RealIndicator) PublishOutput(out logic.Output) error {
	line, ok := r.lines[out.Channel]
	if !ok {
		return nil
	}
	v := level(out.On)
	if r.last[out.Channel] == v {
		return nil
	}
	if err := line.SetValue(v); err != nil {
		return fmt.Errorf("set %s pin: %w", out.Channel, err)
	}
	r.last[out.Channel] = v
	return nil
}

// Close releases GPIO resources.
// Lines are driven low and returned to input with pull-down (the Pi boot
// default) before closing so nothing stays lit across a restart.
func (r *RealIndicator) Close() error {
	var errs []error
	for c, line := range r.lines {
		if err := line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear %s pin: %w", c, err))
		}
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s pin: %w", c, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", c, err))
		}
	}
	r.lines = nil
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		r.chip = nil
	}
	return errors.Join(errs...)
}
