package bus

import (
	"fmt"

	"github.com/Cupra85/bmi160-pro/internal/logic"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// RealReader reads a BMI160 on a host I2C bus.
type RealReader struct {
	bus i2c.BusCloser
	dev *Device
}

// NewRealReader opens the named bus ("" selects the first one), initializes
// the sensor at addr and configures the full-scale ranges.
func NewRealReader(busName string, addr uint16, accelRangeG, gyroRangeDPS int) (*RealReader, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	b, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", busName, err)
	}

	dev, err := newDevice(&periphIO{dev: &i2c.Dev{Bus: b, Addr: addr}}, accelRangeG, gyroRangeDPS)
	if err != nil {
		b.Close()
		return nil, err
	}

	return &RealReader{bus: b, dev: dev}, nil
}

// ReadRawSample reads one sample from the device.
func (r *RealReader) ReadRawSample() (logic.RawSample, error) {
	return r.dev.ReadRawSample()
}

// Close releases the bus.
func (r *RealReader) Close() error {
	if r.bus == nil {
		return nil
	}
	if err := r.bus.Close(); err != nil {
		return fmt.Errorf("close i2c bus: %w", err)
	}
	return nil
}

type periphIO struct {
	dev *i2c.Dev
}

func (p *periphIO) ReadReg(reg byte, dst []byte) error {
	return p.dev.Tx([]byte{reg}, dst)
}

func (p *periphIO) WriteReg(reg, value byte) error {
	_, err := p.dev.Write([]byte{reg, value})
	return err
}
