// Package gpio drives alert indicator lines (LEDs, relays) from the tilt and
// motion alert channels.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "github.com/Cupra85/bmi160-pro/internal/logic"

// Indicator is a sink that mirrors alert channels onto output lines.
// Continuous channels are ignored.
type Indicator interface {
	PublishOutput(out logic.Output) error

	// Close drives every line low and releases GPIO resources.
	Close() error
}

// DefaultChip is the GPIO character device on a Raspberry Pi.
const DefaultChip = "gpiochip0"

// Pins maps the alert channels to line offsets (BCM numbering).
// Zero leaves the alert without an indicator.
type Pins struct {
	Tilt   int
	Motion int
}

// Enabled reports whether any indicator line is configured.
func (p Pins) Enabled() bool {
	return p.Tilt > 0 || p.Motion > 0
}

// lineFor returns the offset assigned to c, or 0.
func (p Pins) lineFor(c logic.Channel) int {
	switch c {
	case logic.ChannelTiltAlert:
		return p.Tilt
	case logic.ChannelMotionAlert:
		return p.Motion
	}
	return 0
}

func level(on bool) int {
	if on {
		return 1
	}
	return 0
}
