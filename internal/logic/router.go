package logic

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Channel is one named output of the engine.
type Channel int

const (
	ChannelAccelX Channel = iota
	ChannelAccelY
	ChannelAccelZ
	ChannelGyroX
	ChannelGyroY
	ChannelGyroZ
	ChannelPitch
	ChannelRoll
	ChannelInclination
	ChannelTemperature
	ChannelVibration
	ChannelTiltAlert
	ChannelMotionAlert

	numChannels
)

var channelNames = [numChannels]string{
	"accel_x", "accel_y", "accel_z",
	"gyro_x", "gyro_y", "gyro_z",
	"pitch", "roll", "inclination",
	"temperature", "vibration",
	"tilt_alert", "motion_alert",
}

// Display precision per channel, in decimals.
var channelDecimals = [numChannels]int{
	3, 3, 3,
	3, 3, 3,
	1, 1, 1,
	1, 3,
	0, 0,
}

// Channels returns every channel in fixed routing order.
func Channels() []Channel {
	out := make([]Channel, numChannels)
	for i := range out {
		out[i] = Channel(i)
	}
	return out
}

// String returns the configuration name of the channel.
func (c Channel) String() string {
	if c < 0 || c >= numChannels {
		return fmt.Sprintf("channel(%d)", int(c))
	}
	return channelNames[c]
}

// Binary reports whether the channel carries a boolean.
func (c Channel) Binary() bool {
	return c == ChannelTiltAlert || c == ChannelMotionAlert
}

// Decimals returns the display precision of a continuous channel.
func (c Channel) Decimals() int {
	if c < 0 || c >= numChannels {
		return 0
	}
	return channelDecimals[c]
}

// Unit returns the physical unit of the channel ("" for alerts).
func (c Channel) Unit() string {
	switch c {
	case ChannelAccelX, ChannelAccelY, ChannelAccelZ, ChannelVibration:
		return "m/s²"
	case ChannelGyroX, ChannelGyroY, ChannelGyroZ:
		return "°/s"
	case ChannelPitch, ChannelRoll, ChannelInclination:
		return "°"
	case ChannelTemperature:
		return "°C"
	}
	return ""
}

// ParseChannel looks up a channel by its configuration name.
func ParseChannel(name string) (Channel, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, cn := range channelNames {
		if cn == n {
			return Channel(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown output %q", ErrInvalidConfiguration, name)
}

// ChannelSet is a fixed set of enabled channels.
type ChannelSet uint32

// NewChannelSet returns a set with the given channels enabled.
func NewChannelSet(chs ...Channel) ChannelSet {
	var s ChannelSet
	for _, c := range chs {
		s = s.With(c)
	}
	return s
}

// ParseChannelSet builds a set from configuration names. Duplicates are ignored.
func ParseChannelSet(names []string) (ChannelSet, error) {
	var s ChannelSet
	for _, n := range names {
		c, err := ParseChannel(n)
		if err != nil {
			return 0, err
		}
		s = s.With(c)
	}
	return s, nil
}

// AllChannels returns a set with every channel enabled.
func AllChannels() ChannelSet {
	return ChannelSet(1<<numChannels - 1)
}

// With returns the set with c enabled.
func (s ChannelSet) With(c Channel) ChannelSet {
	if c < 0 || c >= numChannels {
		return s
	}
	return s | 1<<uint(c)
}

// Has reports whether c is enabled.
func (s ChannelSet) Has(c Channel) bool {
	if c < 0 || c >= numChannels {
		return false
	}
	return s&(1<<uint(c)) != 0
}

// Names returns the enabled channel names in routing order.
func (s ChannelSet) Names() []string {
	var out []string
	for _, c := range Channels() {
		if s.Has(c) {
			out = append(out, c.String())
		}
	}
	return out
}

// Output is one routed channel value.
type Output struct {
	Time    time.Time
	Channel Channel
	// Value holds continuous channels; alerts carry 1 or 0.
	Value float64
	// On holds the state of binary channels.
	On bool
}

// Sink receives routed outputs.
type Sink interface {
	PublishOutput(out Output) error
}

// Router forwards the enabled outputs of each reading to its sinks.
type Router struct {
	enabled ChannelSet
	sinks   []Sink
}

// NewRouter creates a router. The enabled set is fixed for its lifetime.
func NewRouter(enabled ChannelSet, sinks ...Sink) *Router {
	return &Router{enabled: enabled, sinks: sinks}
}

// Enabled returns the enabled channel set.
func (r *Router) Enabled() ChannelSet {
	return r.enabled
}

// Route returns the enabled outputs of a reading in fixed channel order.
func (r *Router) Route(rd Reading) []Output {
	var outs []Output
	for _, c := range Channels() {
		if !r.enabled.Has(c) {
			continue
		}
		out := Output{Time: rd.Time, Channel: c}
		switch c {
		case ChannelAccelX:
			out.Value = rd.Sample.Ax
		case ChannelAccelY:
			out.Value = rd.Sample.Ay
		case ChannelAccelZ:
			out.Value = rd.Sample.Az
		case ChannelGyroX:
			out.Value = rd.Sample.Gx
		case ChannelGyroY:
			out.Value = rd.Sample.Gy
		case ChannelGyroZ:
			out.Value = rd.Sample.Gz
		case ChannelPitch:
			out.Value = rd.Orientation.Pitch
		case ChannelRoll:
			out.Value = rd.Orientation.Roll
		case ChannelInclination:
			out.Value = rd.Orientation.Inclination
		case ChannelTemperature:
			out.Value = rd.Sample.Temperature
		case ChannelVibration:
			out.Value = rd.Vibration
		case ChannelTiltAlert:
			out.On = rd.TiltAlert
		case ChannelMotionAlert:
			out.On = rd.MotionAlert
		}
		if c.Binary() && out.On {
			out.Value = 1
		}
		outs = append(outs, out)
	}
	return outs
}

// Forward delivers every enabled output of the reading to every sink, once.
// A failing sink does not stop delivery to the others; errors are joined.
func (r *Router) Forward(rd Reading) error {
	var errs []error
	for _, out := range r.Route(rd) {
		for _, s := range r.sinks {
			if err := s.PublishOutput(out); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", out.Channel, err))
			}
		}
	}
	return errors.Join(errs...)
}
