package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Cupra85/bmi160-pro/internal/logic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bmi160.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadEmptyFileUsesDefaults(t *testing.T) {
	cfg, err := Load(writeTempConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "bmi160", cfg.Device.Name)
	assert.EqualValues(t, 0x68, cfg.Device.Address)
	assert.Equal(t, 2, cfg.Device.AccelRangeG)
	assert.Equal(t, 2000, cfg.Device.GyroRangeDPS)
	assert.Equal(t, 5*time.Second, cfg.UpdateInterval)
	assert.Equal(t, 15.0, cfg.TiltThresholdDeg)
	assert.Equal(t, 0.3, cfg.MotionThresholdMS2)
	assert.Equal(t, 0.5, cfg.VibrationThresholdMS2)
	assert.Equal(t, 0.98, cfg.FilterAlpha)
	assert.Equal(t, logic.TiltFromMaxAxis, cfg.TiltSource)
	assert.Equal(t, 10*time.Millisecond, cfg.GyroBiasInterval)
	assert.Equal(t, DefaultOutputs, cfg.Outputs)
	assert.Equal(t, 15*time.Minute, cfg.MQTT.Heartbeat)
	assert.Equal(t, "gpiochip0", cfg.GPIO.Chip)
	assert.Equal(t, 7*24*time.Hour, cfg.History.Retention)
}

func TestLoadFullFile(t *testing.T) {
	path := writeTempConfig(t, `
device:
  name: crane-1
  i2c_bus: "1"
  address: 0x69
  accel_range_g: 4
  gyro_range_dps: 500
update_interval: 1s
tilt_threshold_deg: 10
motion_threshold_ms2: 0.4
vibration_threshold_ms2: 1.5
filter_alpha: 0.95
baseline_smoothing: 0.02
tilt_source: inclination
tilt_hysteresis_deg: 2
motion_hysteresis_ms2: 0.1
gyro_bias_samples: 50
gyro_bias_interval: 20ms
outputs: [accel_z, temperature, tilt_alert]
mqtt:
  broker: tcp://10.0.0.2:1883
  client_id: crane
  heartbeat: 1m
  buffer_size: 20
http:
  addr: ""
gpio:
  tilt_pin: 17
  motion_pin: 27
history:
  path: /var/lib/bmi160/history.db
  retention: 24h
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DeviceConfig{Name: "crane-1", I2CBus: "1", Address: 0x69, AccelRangeG: 4, GyroRangeDPS: 500}, cfg.Device)
	assert.Equal(t, time.Second, cfg.UpdateInterval)
	assert.Equal(t, 50, cfg.GyroBiasSamples)
	assert.Equal(t, 20*time.Millisecond, cfg.GyroBiasInterval)
	assert.Equal(t, "", cfg.HTTP.Addr)
	assert.Equal(t, "gpiochip0", cfg.GPIO.Chip)
	assert.Equal(t, 17, cfg.Pins().Tilt)
	assert.Equal(t, 27, cfg.Pins().Motion)
	assert.Equal(t, 24*time.Hour, cfg.History.Retention)

	ec, err := cfg.Engine()
	require.NoError(t, err)
	assert.Equal(t, logic.TiltFromInclination, ec.TiltSource)
	assert.Equal(t, time.Second, ec.PollInterval)
	assert.Equal(t, 2.0, ec.TiltHysteresisDeg)
	assert.True(t, ec.Outputs.Has(logic.ChannelTemperature))
	assert.False(t, ec.Outputs.Has(logic.ChannelPitch))
	assert.Equal(t, []string{"accel_z", "temperature", "tilt_alert"}, ec.Outputs.Names())
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown output", "outputs: [pitch, heading]\n"},
		{"tilt threshold", "tilt_threshold_deg: 120\n"},
		{"alpha", "filter_alpha: 0.5\n"},
		{"accel range", "device:\n  accel_range_g: 3\n"},
		{"gyro range", "device:\n  gyro_range_dps: 4000\n"},
		{"address", "device:\n  address: 0x80\n"},
		{"empty name", "device:\n  name: \"\"\n"},
		{"name with wildcard", "device:\n  name: a/+\n"},
		{"interval", "update_interval: 0s\n"},
		{"tilt source", "tilt_source: yaw\n"},
		{"hysteresis", "tilt_hysteresis_deg: 20\n"},
		{"same pins", "gpio:\n  tilt_pin: 5\n  motion_pin: 5\n"},
		{"negative bias samples", "gyro_bias_samples: -1\n"},
		{"zero bias interval", "gyro_bias_interval: 0s\n"},
		{"slow bias interval", "gyro_bias_interval: 5s\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeTempConfig(t, tt.yaml))
			assert.ErrorIs(t, err, logic.ErrInvalidConfiguration)
		})
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	_, err := Load(writeTempConfig(t, "device: [\n"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, logic.ErrInvalidConfiguration)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidateMessageNamesField(t *testing.T) {
	cfg := Default()
	cfg.TiltThresholdDeg = 95
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tilt_threshold_deg")
}

func TestEmptyOutputsFallBackToDefaults(t *testing.T) {
	cfg, err := Parse([]byte("outputs: []\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultOutputs, cfg.Outputs)
}
