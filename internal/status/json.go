package status

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/Cupra85/bmi160-pro/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Device        string       `json:"device"`
	Session       string       `json:"session"`
	Ready         bool         `json:"ready"`
	Tilt          string       `json:"tilt"`
	Motion        string       `json:"motion"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	Reading       *ReadingJSON `json:"reading,omitempty"`
	Bus           BusJSON      `json:"bus"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"event_counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// ReadingJSON is the JSON representation of the latest reading, rounded
// to each channel's display precision.
type ReadingJSON struct {
	Time          string  `json:"time"`
	Pitch         float64 `json:"pitch"`
	Roll          float64 `json:"roll"`
	Inclination   float64 `json:"inclination"`
	Vibration     float64 `json:"vibration"`
	VibrationHigh bool    `json:"vibration_high"`
	Temperature   float64 `json:"temperature"`
	Accel         Vec3    `json:"accel"`
	Gyro          Vec3    `json:"gyro"`
}

// Vec3 is a rounded three-axis value.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// BusJSON reports sample read failures.
type BusJSON struct {
	Errors      int    `json:"errors"`
	LastError   string `json:"last_error,omitempty"`
	LastErrorAt string `json:"last_error_at,omitempty"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	TiltOn    int `json:"tilt_on"`
	TiltOff   int `json:"tilt_off"`
	MotionOn  int `json:"motion_on"`
	MotionOff int `json:"motion_off"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Address               string   `json:"address"`
	PollMs                int64    `json:"poll_ms"`
	HeartbeatMs           int64    `json:"heartbeat_ms"`
	Broker                string   `json:"broker"`
	HTTPAddr              string   `json:"http_addr"`
	Outputs               []string `json:"outputs"`
	TiltThresholdDeg      float64  `json:"tilt_threshold_deg"`
	MotionThresholdMS2    float64  `json:"motion_threshold_ms2"`
	VibrationThresholdMS2 float64  `json:"vibration_threshold_ms2"`
	FilterAlpha           float64  `json:"filter_alpha"`
	TiltSource            string   `json:"tilt_source"`
	GyroBias              Vec3     `json:"gyro_bias"`
}

func round(v float64, c logic.Channel) float64 {
	p := math.Pow(10, float64(c.Decimals()))
	return math.Round(v*p) / p
}

func buildReading(rd logic.Reading) *ReadingJSON {
	s := rd.Sample
	return &ReadingJSON{
		Time:          rd.Time.UTC().Format(time.RFC3339),
		Pitch:         round(rd.Orientation.Pitch, logic.ChannelPitch),
		Roll:          round(rd.Orientation.Roll, logic.ChannelRoll),
		Inclination:   round(rd.Orientation.Inclination, logic.ChannelInclination),
		Vibration:     round(rd.Vibration, logic.ChannelVibration),
		VibrationHigh: rd.VibrationHigh,
		Temperature:   round(s.Temperature, logic.ChannelTemperature),
		Accel: Vec3{
			X: round(s.Ax, logic.ChannelAccelX),
			Y: round(s.Ay, logic.ChannelAccelY),
			Z: round(s.Az, logic.ChannelAccelZ),
		},
		Gyro: Vec3{
			X: round(s.Gx, logic.ChannelGyroX),
			Y: round(s.Gy, logic.ChannelGyroY),
			Z: round(s.Gz, logic.ChannelGyroZ),
		},
	}
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Device:        snap.Config.Device,
		Session:       snap.Session,
		Ready:         snap.HaveReading,
		Tilt:          snap.TiltState(),
		Motion:        snap.MotionState(),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Bus:           BusJSON{Errors: snap.Bus.Errors, LastError: snap.Bus.LastError},
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			TiltOn:    snap.Counts.TiltOn,
			TiltOff:   snap.Counts.TiltOff,
			MotionOn:  snap.Counts.MotionOn,
			MotionOff: snap.Counts.MotionOff,
		},
		Config: ConfigJSON{
			Address:               fmt.Sprintf("0x%02X", snap.Config.Address),
			PollMs:                snap.Config.PollMs,
			HeartbeatMs:           snap.Config.HeartbeatMs,
			Broker:                snap.Config.Broker,
			HTTPAddr:              snap.Config.HTTPAddr,
			Outputs:               snap.Config.Outputs,
			TiltThresholdDeg:      snap.Config.TiltThresholdDeg,
			MotionThresholdMS2:    snap.Config.MotionThresholdMS2,
			VibrationThresholdMS2: snap.Config.VibrationThresholdMS2,
			FilterAlpha:           snap.Config.FilterAlpha,
			TiltSource:            snap.Config.TiltSource,
			GyroBias: Vec3{
				X: round(snap.Config.GyroBias.X, logic.ChannelGyroX),
				Y: round(snap.Config.GyroBias.Y, logic.ChannelGyroY),
				Z: round(snap.Config.GyroBias.Z, logic.ChannelGyroZ),
			},
		},
	}
	if inner.Config.Outputs == nil {
		inner.Config.Outputs = []string{}
	}
	if !snap.Bus.LastErrorAt.IsZero() {
		inner.Bus.LastErrorAt = snap.Bus.LastErrorAt.UTC().Format(time.RFC3339)
	}
	if snap.HaveReading {
		inner.Reading = buildReading(snap.Reading)
	}
	return inner
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
