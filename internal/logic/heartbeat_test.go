package logic

import (
	"testing"
	"time"
)

func TestHeartbeatDisabled(t *testing.T) {
	h := NewHeartbeat(t0)
	if hb := h.Check(t0.Add(time.Hour), 0, EventCounts{}); hb != nil {
		t.Errorf("expected nil with interval 0, got %+v", hb)
	}
}

func TestHeartbeatInterval(t *testing.T) {
	h := NewHeartbeat(t0)
	counts := EventCounts{TiltOn: 1}

	if hb := h.Check(t0.Add(59*time.Second), time.Minute, counts); hb != nil {
		t.Fatalf("heartbeat too early: %+v", hb)
	}

	at := t0.Add(time.Minute)
	hb := h.Check(at, time.Minute, counts)
	if hb == nil {
		t.Fatal("expected heartbeat")
	}
	if hb.Uptime != time.Minute {
		t.Errorf("uptime: got %v, want 1m", hb.Uptime)
	}
	if hb.Counts != counts {
		t.Errorf("counts: got %+v", hb.Counts)
	}
	if !hb.Timestamp.Equal(at) {
		t.Errorf("timestamp: got %v", hb.Timestamp)
	}

	// Interval restarts from the last heartbeat.
	if hb := h.Check(at.Add(30*time.Second), time.Minute, counts); hb != nil {
		t.Errorf("heartbeat too early after reset: %+v", hb)
	}
	hb = h.Check(at.Add(time.Minute), time.Minute, counts)
	if hb == nil || hb.Uptime != 2*time.Minute {
		t.Errorf("second heartbeat: got %+v", hb)
	}
}
