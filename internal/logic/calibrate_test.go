package logic

import (
	"testing"
)

func TestCalibrationFlatAtRest(t *testing.T) {
	cal := NewCalibration(2, 2000, GyroBias{})

	s := cal.Apply(RawSample{Ax: 0, Ay: 0, Az: 16384})
	if s.Ax != 0 || s.Ay != 0 {
		t.Errorf("expected zero x/y, got (%v, %v)", s.Ax, s.Ay)
	}
	if s.Az != StandardGravity {
		t.Errorf("Az: got %v, want %v", s.Az, StandardGravity)
	}
}

func TestCalibrationSensitivityTable(t *testing.T) {
	tests := []struct {
		rangeG   int
		rangeDPS int
		rawA     int16
		rawG     int16
		wantA    float64
		wantG    float64
	}{
		{2, 2000, 16384, 16384, StandardGravity, 1000},
		{4, 1000, 8192, 32, StandardGravity, 0.9765625},
		{8, 500, 4096, -65, StandardGravity, -0.99182128906250},
		{16, 250, -2048, 131, -StandardGravity, 0.99945068359375},
		{2, 125, -16384, -262, -StandardGravity, -0.99945068359375},
	}

	for _, tt := range tests {
		cal := NewCalibration(tt.rangeG, tt.rangeDPS, GyroBias{})
		s := cal.Apply(RawSample{Ax: tt.rawA, Gx: tt.rawG})
		if s.Ax != tt.wantA {
			t.Errorf("±%dg raw %d: got %v m/s², want %v", tt.rangeG, tt.rawA, s.Ax, tt.wantA)
		}
		if s.Gx != tt.wantG {
			t.Errorf("±%d°/s raw %d: got %v °/s, want %v", tt.rangeDPS, tt.rawG, s.Gx, tt.wantG)
		}
	}
}

func TestCountsPerUnit(t *testing.T) {
	if got := AccelCountsPerG(2); got != 16384 {
		t.Errorf("AccelCountsPerG(2): got %v, want 16384", got)
	}
	if got := AccelCountsPerG(16); got != 2048 {
		t.Errorf("AccelCountsPerG(16): got %v, want 2048", got)
	}
	if got := GyroCountsPerDPS(2000); got != 16.384 {
		t.Errorf("GyroCountsPerDPS(2000): got %v, want 16.384", got)
	}
	if got := GyroCountsPerDPS(250); got != 131.072 {
		t.Errorf("GyroCountsPerDPS(250): got %v, want 131.072", got)
	}
}

func TestCalibrationGyroBias(t *testing.T) {
	cal := NewCalibration(2, 2000, GyroBias{X: 1, Y: -2, Z: 0.5})
	s := cal.Apply(RawSample{Gx: 0, Gy: 0, Gz: 16384})
	if s.Gx != -1 {
		t.Errorf("Gx: got %v, want -1", s.Gx)
	}
	if s.Gy != 2 {
		t.Errorf("Gy: got %v, want 2", s.Gy)
	}
	if s.Gz != 999.5 {
		t.Errorf("Gz: got %v, want 999.5", s.Gz)
	}
}

func TestTemperatureC(t *testing.T) {
	tests := []struct {
		raw  int16
		want float64
	}{
		{0, 23},
		{512, 24},
		{-1024, 21},
		{256, 23.5},
	}
	for _, tt := range tests {
		if got := TemperatureC(tt.raw); got != tt.want {
			t.Errorf("TemperatureC(%d): got %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestInt16LESignExtension(t *testing.T) {
	tests := []struct {
		lo, hi byte
		want   int16
	}{
		{0x00, 0x40, 16384},
		{0x00, 0xC0, -16384},
		{0xFF, 0xFF, -1},
		{0x00, 0x80, -32768},
		{0xFF, 0x7F, 32767},
		{0x01, 0x00, 1},
	}
	for _, tt := range tests {
		if got := Int16LE(tt.lo, tt.hi); got != tt.want {
			t.Errorf("Int16LE(0x%02X, 0x%02X): got %d, want %d", tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestCalibrationIsPure(t *testing.T) {
	cal := NewCalibration(2, 2000, GyroBias{})
	raw := RawSample{Ax: 123, Ay: -456, Az: 16000, Gx: 7, Gy: -8, Gz: 9, Temp: 100}
	a := cal.Apply(raw)
	b := cal.Apply(raw)
	if a != b {
		t.Errorf("Apply not deterministic: %+v vs %+v", a, b)
	}
}

func TestCalibrationFollowsCountsPerUnit(t *testing.T) {
	for _, rangeG := range []int{2, 4, 8, 16} {
		for _, rangeDPS := range []int{125, 250, 500, 1000, 2000} {
			cal := NewCalibration(rangeG, rangeDPS, GyroBias{})
			s := cal.Apply(RawSample{Ay: int16(AccelCountsPerG(rangeG) / 2), Gz: int16(GyroCountsPerDPS(rangeDPS) * 100)})
			if !near(s.Ay, StandardGravity/2, 1e-12) {
				t.Errorf("±%dg: half-g count gave %v m/s²", rangeG, s.Ay)
			}
			// Truncation to int16 costs at most one count.
			if !near(s.Gz, 100, 1/GyroCountsPerDPS(rangeDPS)) {
				t.Errorf("±%d°/s: 100°/s count gave %v °/s", rangeDPS, s.Gz)
			}
		}
	}
}
