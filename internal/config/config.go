// Package config loads the daemon's YAML device description.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Cupra85/bmi160-pro/internal/bus"
	"github.com/Cupra85/bmi160-pro/internal/gpio"
	"github.com/Cupra85/bmi160-pro/internal/history"
	"github.com/Cupra85/bmi160-pro/internal/logic"
	"github.com/Cupra85/bmi160-pro/internal/mqtt"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Device DeviceConfig `yaml:"device"`

	UpdateInterval        time.Duration    `yaml:"update_interval"`
	TiltThresholdDeg      float64          `yaml:"tilt_threshold_deg"`
	MotionThresholdMS2    float64          `yaml:"motion_threshold_ms2"`
	VibrationThresholdMS2 float64          `yaml:"vibration_threshold_ms2"`
	FilterAlpha           float64          `yaml:"filter_alpha"`
	BaselineSmoothing     float64          `yaml:"baseline_smoothing"`
	TiltSource            logic.TiltSource `yaml:"tilt_source"`
	TiltHysteresisDeg     float64          `yaml:"tilt_hysteresis_deg"`
	MotionHysteresisMS2   float64          `yaml:"motion_hysteresis_ms2"`
	GyroBiasSamples       int              `yaml:"gyro_bias_samples"`
	GyroBiasInterval      time.Duration    `yaml:"gyro_bias_interval"`
	Outputs               []string         `yaml:"outputs"`

	MQTT    MQTTConfig    `yaml:"mqtt"`
	HTTP    HTTPConfig    `yaml:"http"`
	GPIO    GPIOConfig    `yaml:"gpio"`
	History HistoryConfig `yaml:"history"`
}

type DeviceConfig struct {
	Name         string `yaml:"name"`
	I2CBus       string `yaml:"i2c_bus"`
	Address      uint16 `yaml:"address"`
	AccelRangeG  int    `yaml:"accel_range_g"`
	GyroRangeDPS int    `yaml:"gyro_range_dps"`
}

type MQTTConfig struct {
	// Broker is the broker URL; empty disables MQTT.
	Broker     string        `yaml:"broker"`
	ClientID   string        `yaml:"client_id"`
	Heartbeat  time.Duration `yaml:"heartbeat"`
	BufferSize int           `yaml:"buffer_size"`
}

type HTTPConfig struct {
	// Addr is the status server listen address; empty disables it.
	Addr string `yaml:"addr"`
}

type GPIOConfig struct {
	Chip      string `yaml:"chip"`
	TiltPin   int    `yaml:"tilt_pin"`
	MotionPin int    `yaml:"motion_pin"`
}

type HistoryConfig struct {
	// Path is the SQLite file; empty disables history.
	Path      string        `yaml:"path"`
	Retention time.Duration `yaml:"retention"`
}

// DefaultGyroBiasInterval paces bias collection at the sensor's 100 Hz data rate.
const DefaultGyroBiasInterval = 10 * time.Millisecond

// DefaultOutputs are the channels enabled when the file lists none.
var DefaultOutputs = []string{"pitch", "roll", "inclination", "vibration", "tilt_alert", "motion_alert"}

// Default returns the configuration used for every field the file omits.
func Default() Config {
	return Config{
		Device: DeviceConfig{
			Name:         "bmi160",
			Address:      bus.DefaultAddress,
			AccelRangeG:  logic.DefaultAccelRangeG,
			GyroRangeDPS: logic.DefaultGyroRangeDPS,
		},
		UpdateInterval:        logic.DefaultPollInterval,
		TiltThresholdDeg:      logic.DefaultTiltThresholdDeg,
		MotionThresholdMS2:    logic.DefaultMotionThresholdMS2,
		VibrationThresholdMS2: logic.DefaultVibrationThresholdMS2,
		FilterAlpha:           logic.DefaultFilterAlpha,
		BaselineSmoothing:     logic.DefaultBaselineSmoothing,
		TiltSource:            logic.TiltFromMaxAxis,
		GyroBiasInterval:      DefaultGyroBiasInterval,
		Outputs:               append([]string(nil), DefaultOutputs...),
		MQTT: MQTTConfig{
			Broker:     "tcp://127.0.0.1:1883",
			ClientID:   "bmi160-pro",
			Heartbeat:  15 * time.Minute,
			BufferSize: mqtt.DefaultBufferSize,
		},
		HTTP: HTTPConfig{Addr: ":8080"},
		GPIO: GPIOConfig{Chip: gpio.DefaultChip},
		History: HistoryConfig{
			Retention: history.DefaultRetention,
		},
	}
}

// Load reads and validates the YAML file at path.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(b)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(b []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if len(cfg.Outputs) == 0 {
		cfg.Outputs = append([]string(nil), DefaultOutputs...)
	}
	if cfg.GPIO.Chip == "" {
		cfg.GPIO.Chip = gpio.DefaultChip
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "bmi160-pro"
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the fields the engine does not own, then the engine config.
// Errors wrap logic.ErrInvalidConfiguration.
func (c Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{logic.ErrInvalidConfiguration}, args...)...)
	}

	if c.Device.Name == "" {
		return invalid("device.name is required")
	}
	if strings.ContainsAny(c.Device.Name, "/+#") {
		return invalid("device.name must not contain MQTT topic characters (got %q)", c.Device.Name)
	}
	if c.Device.Address < 0x03 || c.Device.Address > 0x77 {
		return invalid("device.address must be a 7-bit address in [0x03, 0x77] (got 0x%X)", c.Device.Address)
	}
	if c.GyroBiasSamples < 0 {
		return invalid("gyro_bias_samples must be >= 0")
	}
	if c.GyroBiasInterval <= 0 || c.GyroBiasInterval > time.Second {
		return invalid("gyro_bias_interval must be in (0, 1s] (got %s)", c.GyroBiasInterval)
	}
	if c.MQTT.Heartbeat < 0 {
		return invalid("mqtt.heartbeat must be >= 0")
	}
	if c.MQTT.BufferSize < 0 {
		return invalid("mqtt.buffer_size must be >= 0")
	}
	if c.GPIO.TiltPin < 0 || c.GPIO.MotionPin < 0 {
		return invalid("gpio pins must be >= 0")
	}
	if c.GPIO.TiltPin != 0 && c.GPIO.TiltPin == c.GPIO.MotionPin {
		return invalid("gpio.tilt_pin and gpio.motion_pin must differ (both %d)", c.GPIO.TiltPin)
	}
	if c.History.Retention < 0 {
		return invalid("history.retention must be >= 0")
	}

	_, err := c.Engine()
	return err
}

// Engine builds and validates the engine configuration.
func (c Config) Engine() (logic.Config, error) {
	outputs, err := logic.ParseChannelSet(c.Outputs)
	if err != nil {
		return logic.Config{}, err
	}
	ec := logic.Config{
		TiltThresholdDeg:      c.TiltThresholdDeg,
		MotionThresholdMS2:    c.MotionThresholdMS2,
		VibrationThresholdMS2: c.VibrationThresholdMS2,
		FilterAlpha:           c.FilterAlpha,
		PollInterval:          c.UpdateInterval,
		AccelRangeG:           c.Device.AccelRangeG,
		GyroRangeDPS:          c.Device.GyroRangeDPS,
		BaselineSmoothing:     c.BaselineSmoothing,
		TiltSource:            c.TiltSource,
		TiltHysteresisDeg:     c.TiltHysteresisDeg,
		MotionHysteresisMS2:   c.MotionHysteresisMS2,
		Outputs:               outputs,
	}
	if err := ec.Validate(); err != nil {
		return logic.Config{}, err
	}
	return ec, nil
}

// Pins returns the indicator pin assignment.
func (c Config) Pins() gpio.Pins {
	return gpio.Pins{Tilt: c.GPIO.TiltPin, Motion: c.GPIO.MotionPin}
}
