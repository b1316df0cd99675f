package web

import (
	"encoding/json"
	"math"
	"time"

	"github.com/Cupra85/bmi160-pro/internal/logic"
)

// LiveFrame is one reading as pushed over the websocket.
type LiveFrame struct {
	Time        string  `json:"time"`
	Pitch       float64 `json:"pitch"`
	Roll        float64 `json:"roll"`
	Inclination float64 `json:"inclination"`
	Vibration   float64 `json:"vibration"`
	Tilt        string  `json:"tilt"`
	Motion      string  `json:"motion"`
}

// NewLiveFrame converts a reading to a rounded frame.
func NewLiveFrame(rd logic.Reading) LiveFrame {
	return LiveFrame{
		Time:        rd.Time.UTC().Format(time.RFC3339Nano),
		Pitch:       round(rd.Orientation.Pitch, logic.ChannelPitch),
		Roll:        round(rd.Orientation.Roll, logic.ChannelRoll),
		Inclination: round(rd.Orientation.Inclination, logic.ChannelInclination),
		Vibration:   round(rd.Vibration, logic.ChannelVibration),
		Tilt:        onOff(rd.TiltAlert),
		Motion:      onOff(rd.MotionAlert),
	}
}

// HistoryJSON is the response of the alert history endpoint.
type HistoryJSON struct {
	Events []AlertEventJSON `json:"events"`
}

// AlertEventJSON is one stored alert transition.
type AlertEventJSON struct {
	Timestamp string  `json:"timestamp"`
	Event     string  `json:"event"`
	Value     float64 `json:"value"`
	Tilt      string  `json:"tilt"`
	Motion    string  `json:"motion"`
}

func formatHistory(events []logic.AlertEvent) []byte {
	h := HistoryJSON{Events: make([]AlertEventJSON, 0, len(events))}
	for _, e := range events {
		h.Events = append(h.Events, AlertEventJSON{
			Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(e.Type),
			Value:     math.Round(e.Value*1000) / 1000,
			Tilt:      string(e.TiltState),
			Motion:    string(e.MotionState),
		})
	}
	data, _ := json.MarshalIndent(h, "", "  ")
	return data
}

// ReadingsJSON is the response of the history endpoint for one channel.
type ReadingsJSON struct {
	Channel  string        `json:"channel"`
	Unit     string        `json:"unit,omitempty"`
	Readings []ReadingJSON `json:"readings"`
}

// ReadingJSON is one stored channel value. Binary channels carry State.
type ReadingJSON struct {
	Timestamp string  `json:"timestamp"`
	Value     float64 `json:"value"`
	State     string  `json:"state,omitempty"`
}

func formatReadings(c logic.Channel, outs []logic.Output) []byte {
	h := ReadingsJSON{Channel: c.String(), Unit: c.Unit(), Readings: make([]ReadingJSON, 0, len(outs))}
	for _, out := range outs {
		rj := ReadingJSON{
			Timestamp: out.Time.UTC().Format(time.RFC3339Nano),
			Value:     round(out.Value, c),
		}
		if c.Binary() {
			rj.State = onOff(out.On)
		}
		h.Readings = append(h.Readings, rj)
	}
	data, _ := json.MarshalIndent(h, "", "  ")
	return data
}

func round(v float64, c logic.Channel) float64 {
	p := math.Pow(10, float64(c.Decimals()))
	return math.Round(v*p) / p
}

func onOff(b bool) string {
	if b {
		return string(logic.StateOn)
	}
	return string(logic.StateOff)
}
