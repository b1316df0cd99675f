package logic

import (
	"errors"
	"reflect"
	"testing"
)

type recordingSink struct {
	outs []Output
	err  error
}

func (s *recordingSink) PublishOutput(out Output) error {
	s.outs = append(s.outs, out)
	return s.err
}

func sampleReading() Reading {
	return Reading{
		Time: t0,
		Sample: CalibratedSample{
			Ax: 0.1, Ay: 0.2, Az: 9.8,
			Gx: 1, Gy: 2, Gz: 3,
			Temperature: 24.5,
		},
		Orientation: OrientationState{Pitch: 5, Roll: -3, Inclination: 5.8},
		Vibration:   0.42,
		TiltAlert:   true,
		MotionAlert: false,
	}
}

func TestRouteAllChannelsInOrder(t *testing.T) {
	r := NewRouter(AllChannels())
	outs := r.Route(sampleReading())

	if len(outs) != int(numChannels) {
		t.Fatalf("expected %d outputs, got %d", numChannels, len(outs))
	}
	for i, out := range outs {
		if out.Channel != Channel(i) {
			t.Errorf("output %d: got channel %s, want %s", i, out.Channel, Channel(i))
		}
		if !out.Time.Equal(t0) {
			t.Errorf("output %d: wrong time %v", i, out.Time)
		}
	}

	want := map[Channel]float64{
		ChannelAccelZ:      9.8,
		ChannelGyroY:       2,
		ChannelRoll:        -3,
		ChannelTemperature: 24.5,
		ChannelVibration:   0.42,
		ChannelTiltAlert:   1,
		ChannelMotionAlert: 0,
	}
	for c, v := range want {
		if outs[c].Value != v {
			t.Errorf("%s: got %v, want %v", c, outs[c].Value, v)
		}
	}
	if !outs[ChannelTiltAlert].On || outs[ChannelMotionAlert].On {
		t.Errorf("alert flags: tilt=%v motion=%v", outs[ChannelTiltAlert].On, outs[ChannelMotionAlert].On)
	}
}

func TestRouteSkipsDisabledChannels(t *testing.T) {
	r := NewRouter(NewChannelSet(ChannelMotionAlert, ChannelPitch))
	outs := r.Route(sampleReading())

	var got []Channel
	for _, o := range outs {
		got = append(got, o.Channel)
	}
	want := []Channel{ChannelPitch, ChannelMotionAlert}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("channels: got %v, want %v", got, want)
	}
}

func TestRouteEmptySet(t *testing.T) {
	r := NewRouter(0)
	if outs := r.Route(sampleReading()); len(outs) != 0 {
		t.Errorf("expected no outputs, got %v", outs)
	}
}

func TestForwardDeliversToEverySinkDespiteErrors(t *testing.T) {
	bad := &recordingSink{err: errors.New("broker down")}
	good := &recordingSink{}
	r := NewRouter(NewChannelSet(ChannelPitch, ChannelRoll), bad, good)

	err := r.Forward(sampleReading())
	if err == nil {
		t.Fatal("expected joined error")
	}
	if len(good.outs) != 2 || len(bad.outs) != 2 {
		t.Errorf("deliveries: good=%d bad=%d, want 2 each", len(good.outs), len(bad.outs))
	}
}

func TestForwardNoError(t *testing.T) {
	s := &recordingSink{}
	r := NewRouter(AllChannels(), s)
	if err := r.Forward(sampleReading()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.outs) != int(numChannels) {
		t.Errorf("got %d outputs, want %d", len(s.outs), numChannels)
	}
}

func TestParseChannelSet(t *testing.T) {
	s, err := ParseChannelSet([]string{"pitch", " Roll ", "tilt_alert", "pitch"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.Names(); !reflect.DeepEqual(got, []string{"pitch", "roll", "tilt_alert"}) {
		t.Errorf("names: got %v", got)
	}

	_, err = ParseChannelSet([]string{"pitch", "heading"})
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestChannelMetadata(t *testing.T) {
	tests := []struct {
		c        Channel
		name     string
		decimals int
		unit     string
		binary   bool
	}{
		{ChannelAccelX, "accel_x", 3, "m/s²", false},
		{ChannelGyroZ, "gyro_z", 3, "°/s", false},
		{ChannelInclination, "inclination", 1, "°", false},
		{ChannelTemperature, "temperature", 1, "°C", false},
		{ChannelVibration, "vibration", 3, "m/s²", false},
		{ChannelTiltAlert, "tilt_alert", 0, "", true},
		{ChannelMotionAlert, "motion_alert", 0, "", true},
	}
	for _, tt := range tests {
		if tt.c.String() != tt.name {
			t.Errorf("String: got %q, want %q", tt.c.String(), tt.name)
		}
		if tt.c.Decimals() != tt.decimals {
			t.Errorf("%s decimals: got %d, want %d", tt.name, tt.c.Decimals(), tt.decimals)
		}
		if tt.c.Unit() != tt.unit {
			t.Errorf("%s unit: got %q, want %q", tt.name, tt.c.Unit(), tt.unit)
		}
		if tt.c.Binary() != tt.binary {
			t.Errorf("%s binary: got %v", tt.name, tt.c.Binary())
		}
	}
	if got := Channel(99).String(); got != "channel(99)" {
		t.Errorf("out of range String: got %q", got)
	}
	if AllChannels().Has(Channel(99)) {
		t.Error("AllChannels reports an out-of-range channel")
	}
}
