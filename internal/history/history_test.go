package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/Cupra85/bmi160-pro/internal/logic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewDBIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	db, err := NewDB(path)
	require.NoError(t, err)
	require.NoError(t, db.RecordAlert(logic.AlertEvent{Timestamp: t0, Type: logic.EventTiltOn}))
	require.NoError(t, db.Close())

	db, err = NewDB(path)
	require.NoError(t, err)
	defer db.Close()

	events, err := db.AlertEvents(10)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestAlertEventsNewestFirst(t *testing.T) {
	db := openTestDB(t)

	in := []logic.AlertEvent{
		{Timestamp: t0, Type: logic.EventTiltOn, Value: 15.2, TiltState: logic.StateOn, MotionState: logic.StateOff},
		{Timestamp: t0.Add(time.Minute), Type: logic.EventMotionOn, Value: 0.8, TiltState: logic.StateOn, MotionState: logic.StateOn},
		{Timestamp: t0.Add(2 * time.Minute), Type: logic.EventTiltOff, Value: 3.1, TiltState: logic.StateOff, MotionState: logic.StateOn},
	}
	for _, e := range in {
		require.NoError(t, db.RecordAlert(e))
	}

	got, err := db.AlertEvents(2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, in[2], got[0])
	assert.Equal(t, in[1], got[1])
}

func TestReadingsByChannel(t *testing.T) {
	db := openTestDB(t)

	for i := 0; i < 5; i++ {
		at := t0.Add(time.Duration(i) * 5 * time.Second)
		require.NoError(t, db.PublishOutput(logic.Output{Time: at, Channel: logic.ChannelPitch, Value: float64(i)}))
		require.NoError(t, db.PublishOutput(logic.Output{Time: at, Channel: logic.ChannelRoll, Value: -float64(i)}))
	}
	require.NoError(t, db.PublishOutput(logic.Output{Time: t0, Channel: logic.ChannelTiltAlert, Value: 1, On: true}))

	got, err := db.Readings(logic.ChannelPitch, t0.Add(10*time.Second), 100)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 2.0, got[0].Value)
	assert.Equal(t, t0.Add(10*time.Second), got[0].Time)
	assert.Equal(t, logic.ChannelPitch, got[2].Channel)

	alerts, err := db.Readings(logic.ChannelTiltAlert, t0, 10)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.True(t, alerts[0].On)
}

func TestPruneRemovesOldRows(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.PublishOutput(logic.Output{Time: t0, Channel: logic.ChannelVibration, Value: 0.1}))
	require.NoError(t, db.PublishOutput(logic.Output{Time: t0.Add(time.Hour), Channel: logic.ChannelVibration, Value: 0.2}))
	require.NoError(t, db.RecordAlert(logic.AlertEvent{Timestamp: t0, Type: logic.EventMotionOn}))
	require.NoError(t, db.RecordAlert(logic.AlertEvent{Timestamp: t0.Add(2 * time.Hour), Type: logic.EventMotionOff}))

	n, err := db.Prune(t0.Add(30 * time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	rest, err := db.Readings(logic.ChannelVibration, time.Time{}, 10)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, 0.2, rest[0].Value)

	events, err := db.AlertEvents(10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, logic.EventMotionOff, events[0].Type)
}

func TestDBIsSink(t *testing.T) {
	var _ logic.Sink = (*DB)(nil)
}
