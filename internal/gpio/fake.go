package gpio

import "github.com/Cupra85/bmi160-pro/internal/logic"

// FakeIndicator is a test double that records line levels.
type FakeIndicator struct {
	Pins Pins

	// Levels holds the current level per alert channel with a configured pin.
	Levels map[logic.Channel]int

	// Writes counts level changes per channel.
	Writes map[logic.Channel]int

	// WriteError, if set, is returned by PublishOutput for configured lines.
	WriteError error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeIndicator creates a FakeIndicator with all configured lines low.
func NewFakeIndicator(pins Pins) *FakeIndicator {
	f := &FakeIndicator{
		Pins:   pins,
		Levels: make(map[logic.Channel]int),
		Writes: make(map[logic.Channel]int),
	}
	for _, c := range []logic.Channel{logic.ChannelTiltAlert, logic.ChannelMotionAlert} {
		if pins.lineFor(c) > 0 {
			f.Levels[c] = 0
		}
	}
	return f
}

// PublishOutput records the level of an alert channel.
func (f *FakeIndicator) PublishOutput(out logic.Output) error {
	cur, ok := f.Levels[out.Channel]
	if !ok {
		return nil
	}
	if f.WriteError != nil {
		return f.WriteError
	}
	if v := level(out.On); v != cur {
		f.Levels[out.Channel] = v
		f.Writes[out.Channel]++
	}
	return nil
}

// Lit reports whether the line of c is high.
func (f *FakeIndicator) Lit(c logic.Channel) bool {
	return f.Levels[c] == 1
}

// Close drives every line low and marks the indicator closed.
func (f *FakeIndicator) Close() error {
	for c := range f.Levels {
		f.Levels[c] = 0
	}
	f.Closed = true
	return nil
}
