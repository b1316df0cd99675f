package logic

// fullScaleCounts is the count magnitude that corresponds to the configured
// full-scale range of a 16-bit sensor axis.
const fullScaleCounts = 32768.0

// Temperature register: 0 LSB = 23 °C, 1/512 K per LSB.
const (
	tempOffsetC    = 23.0
	tempCountsPerK = 512.0
)

// GyroBias is a stationary gyro offset in deg/s, subtracted after scaling.
type GyroBias struct {
	X, Y, Z float64
}

// Calibration converts raw register counts into physical units.
// It is a fixed linear scaling determined at construction time.
type Calibration struct {
	accelScale float64 // m/s² per count
	gyroScale  float64 // deg/s per count
	bias       GyroBias
	skipTemp   bool
}

// NewCalibration builds the sensitivity table for the given full-scale ranges.
// The ranges must already be validated.
func NewCalibration(accelRangeG, gyroRangeDPS int, bias GyroBias) Calibration {
	return Calibration{
		accelScale: StandardGravity / AccelCountsPerG(accelRangeG),
		gyroScale:  1 / GyroCountsPerDPS(gyroRangeDPS),
		bias:       bias,
	}
}

// AccelCountsPerG returns the accelerometer sensitivity for a ±range g setting.
func AccelCountsPerG(rangeG int) float64 {
	return fullScaleCounts / float64(rangeG)
}

// GyroCountsPerDPS returns the gyroscope sensitivity for a ±range °/s setting.
func GyroCountsPerDPS(rangeDPS int) float64 {
	return fullScaleCounts / float64(rangeDPS)
}

// Apply converts one raw sample. It has no side effects.
func (c Calibration) Apply(raw RawSample) CalibratedSample {
	s := CalibratedSample{
		Ax: float64(raw.Ax) * c.accelScale,
		Ay: float64(raw.Ay) * c.accelScale,
		Az: float64(raw.Az) * c.accelScale,
		Gx: float64(raw.Gx)*c.gyroScale - c.bias.X,
		Gy: float64(raw.Gy)*c.gyroScale - c.bias.Y,
		Gz: float64(raw.Gz)*c.gyroScale - c.bias.Z,
	}
	if !c.skipTemp {
		s.Temperature = TemperatureC(raw.Temp)
	}
	return s
}

// TemperatureC converts the raw temperature code to °C.
func TemperatureC(raw int16) float64 {
	return tempOffsetC + float64(raw)/tempCountsPerK
}

// Int16LE assembles a little-endian register pair into a signed value.
// The conversion through uint16 performs the two's-complement sign extension.
func Int16LE(lo, hi byte) int16 {
	return int16(uint16(hi)<<8 | uint16(lo))
}

func validAccelRange(g int) bool {
	switch g {
	case 2, 4, 8, 16:
		return true
	}
	return false
}

func validGyroRange(dps int) bool {
	switch dps {
	case 125, 250, 500, 1000, 2000:
		return true
	}
	return false
}
