package bus

import (
	"errors"
	"fmt"
	"time"

	"github.com/Cupra85/bmi160-pro/internal/logic"
)

// BMI160 register map (subset).
const (
	regChipID   = 0x00
	regErr      = 0x02
	regGyroData = 0x0C // GYR_X_L .. GYR_Z_H, then ACC_X_L .. ACC_Z_H
	regTemp     = 0x20
	regAccConf  = 0x40
	regAccRange = 0x41
	regGyrConf  = 0x42
	regGyrRange = 0x43
	regCmd      = 0x7E

	chipIDVal = 0xD1

	cmdSoftReset  = 0xB6
	cmdAccNormal  = 0x11
	cmdGyroNormal = 0x15

	// 100 Hz output data rate, normal filter mode.
	confODR100 = 0x28

	dataLen = 12
)

var accRangeCodes = map[int]byte{2: 0x03, 4: 0x05, 8: 0x08, 16: 0x0C}

var gyrRangeCodes = map[int]byte{2000: 0x00, 1000: 0x01, 500: 0x02, 250: 0x03, 125: 0x04}

// ErrChipID is returned when the device at the address is not a BMI160.
var ErrChipID = errors.New("bmi160: unexpected chip id")

// regIO is the register access the driver needs; it keeps the register
// logic testable without a bus.
type regIO interface {
	ReadReg(reg byte, dst []byte) error
	WriteReg(reg, value byte) error
}

var sleep = time.Sleep

// Device is an initialized BMI160.
type Device struct {
	io regIO
}

func newDevice(io regIO, accelRangeG, gyroRangeDPS int) (*Device, error) {
	accCode, ok := accRangeCodes[accelRangeG]
	if !ok {
		return nil, fmt.Errorf("bmi160: unsupported accel range ±%dg", accelRangeG)
	}
	gyrCode, ok := gyrRangeCodes[gyroRangeDPS]
	if !ok {
		return nil, fmt.Errorf("bmi160: unsupported gyro range ±%d°/s", gyroRangeDPS)
	}

	if err := io.WriteReg(regCmd, cmdSoftReset); err != nil {
		return nil, fmt.Errorf("bmi160: soft reset: %w", err)
	}
	sleep(100 * time.Millisecond)

	id := make([]byte, 1)
	if err := io.ReadReg(regChipID, id); err != nil {
		return nil, fmt.Errorf("bmi160: read chip id: %w", err)
	}
	if id[0] != chipIDVal {
		return nil, fmt.Errorf("%w: 0x%02X", ErrChipID, id[0])
	}

	// Both sensors come out of reset suspended.
	steps := []struct {
		reg, val byte
		wait     time.Duration
		what     string
	}{
		{regCmd, cmdAccNormal, 5 * time.Millisecond, "accel normal mode"},
		{regCmd, cmdGyroNormal, 80 * time.Millisecond, "gyro normal mode"},
		{regAccConf, confODR100, 0, "accel conf"},
		{regAccRange, accCode, 0, "accel range"},
		{regGyrConf, confODR100, 0, "gyro conf"},
		{regGyrRange, gyrCode, 0, "gyro range"},
	}
	for _, s := range steps {
		if err := io.WriteReg(s.reg, s.val); err != nil {
			return nil, fmt.Errorf("bmi160: %s: %w", s.what, err)
		}
		if s.wait > 0 {
			sleep(s.wait)
		}
	}

	errReg := make([]byte, 1)
	if err := io.ReadReg(regErr, errReg); err != nil {
		return nil, fmt.Errorf("bmi160: read error register: %w", err)
	}
	if errReg[0] != 0 {
		return nil, fmt.Errorf("bmi160: configuration rejected (ERR_REG 0x%02X)", errReg[0])
	}

	return &Device{io: io}, nil
}

// ReadRawSample reads gyro and accel in one burst, then the temperature.
func (d *Device) ReadRawSample() (logic.RawSample, error) {
	var data [dataLen]byte
	if err := d.io.ReadReg(regGyroData, data[:]); err != nil {
		return logic.RawSample{}, fmt.Errorf("bmi160: read data: %w", err)
	}
	var temp [2]byte
	if err := d.io.ReadReg(regTemp, temp[:]); err != nil {
		return logic.RawSample{}, fmt.Errorf("bmi160: read temperature: %w", err)
	}
	return decodeSample(data, temp), nil
}

// decodeSample converts the little-endian register block into a RawSample.
func decodeSample(data [dataLen]byte, temp [2]byte) logic.RawSample {
	return logic.RawSample{
		Gx:   logic.Int16LE(data[0], data[1]),
		Gy:   logic.Int16LE(data[2], data[3]),
		Gz:   logic.Int16LE(data[4], data[5]),
		Ax:   logic.Int16LE(data[6], data[7]),
		Ay:   logic.Int16LE(data[8], data[9]),
		Az:   logic.Int16LE(data[10], data[11]),
		Temp: logic.Int16LE(temp[0], temp[1]),
	}
}
