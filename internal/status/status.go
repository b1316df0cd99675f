// Package status provides a thread-safe status tracker for the bmi160-pro daemon.
// It is read by HTTP handlers and used for MQTT status snapshots.
package status

import (
	"sync"
	"time"

	"github.com/Cupra85/bmi160-pro/internal/logic"
	"github.com/google/uuid"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	Device                string
	Address               uint16
	PollMs                int64
	HeartbeatMs           int64
	Broker                string
	HTTPAddr              string
	Outputs               []string
	TiltThresholdDeg      float64
	MotionThresholdMS2    float64
	VibrationThresholdMS2 float64
	FilterAlpha           float64
	TiltSource            string
	GyroBias              logic.GyroBias
}

// BusStatus counts failed sample reads.
type BusStatus struct {
	Errors      int
	LastError   string
	LastErrorAt time.Time
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Session       string
	Reading       logic.Reading
	HaveReading   bool
	Tilt          logic.AlertState
	Motion        logic.AlertState
	Counts        logic.EventCounts
	Bus           BusStatus
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// TiltState returns the tilt alert state, or "UNKNOWN" before the first reading.
func (s Snapshot) TiltState() string {
	if !s.HaveReading {
		return "UNKNOWN"
	}
	return string(s.Tilt.State())
}

// MotionState returns the motion alert state, or "UNKNOWN" before the first reading.
func (s Snapshot) MotionState() string {
	if !s.HaveReading {
		return "UNKNOWN"
	}
	return string(s.Motion.State())
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
// Every tracker gets a fresh session ID.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Session:   uuid.NewString(),
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// Update records the latest engine state.
// Called from runLoop on every successful tick.
func (t *Tracker) Update(rd logic.Reading, st logic.EngineState, counts logic.EventCounts) {
	rd.Events = nil // transitions are published, not kept
	t.mu.Lock()
	t.snap.Reading = rd
	t.snap.HaveReading = true
	t.snap.Tilt = st.Tilt
	t.snap.Motion = st.Motion
	t.snap.Counts = counts
	t.mu.Unlock()
}

// RecordBusError counts a failed sample read.
func (t *Tracker) RecordBusError(at time.Time, err error) {
	t.mu.Lock()
	t.snap.Bus.Errors++
	t.snap.Bus.LastError = err.Error()
	t.snap.Bus.LastErrorAt = at
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// SetGyroBias records the bias estimated at startup.
func (t *Tracker) SetGyroBias(b logic.GyroBias) {
	t.mu.Lock()
	t.snap.Config.GyroBias = b
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Config.Outputs = append([]string(nil), t.snap.Config.Outputs...)
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
