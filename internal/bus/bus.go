// Package bus reads raw IMU samples from a BMI160 over I2C.
// The real implementation uses periph.io.
// The fake implementation allows testing without hardware.
package bus

import "github.com/Cupra85/bmi160-pro/internal/logic"

// Reader delivers raw register snapshots.
type Reader interface {
	// ReadRawSample performs one burst read of gyro, accel and temperature.
	ReadRawSample() (logic.RawSample, error)

	// Close releases bus resources.
	Close() error
}

// DefaultAddress is the BMI160 7-bit address with SDO pulled low.
const DefaultAddress = 0x68
