// Package history records routed readings and alert transitions in SQLite
// so the web UI can show recent activity after a restart.
package history

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/Cupra85/bmi160-pro/internal/logic"
	_ "modernc.org/sqlite"
)

// DefaultRetention is how long rows are kept when no retention is configured.
const DefaultRetention = 7 * 24 * time.Hour

// DB is a history store. It implements logic.Sink.
type DB struct {
	*sql.DB
}

// NewDB opens (or creates) the database at path and applies the schema.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// One writer; avoids SQLITE_BUSY between the tick loop and HTTP readers.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS readings (
			ts                INTEGER NOT NULL,
			channel           TEXT    NOT NULL,
			value             DOUBLE  NOT NULL
		);
		CREATE INDEX IF NOT EXISTS readings_channel_ts ON readings (channel, ts);
		CREATE TABLE IF NOT EXISTS alert_events (
			ts                INTEGER NOT NULL,
			event             TEXT    NOT NULL,
			value             DOUBLE  NOT NULL,
			tilt              TEXT    NOT NULL,
			motion            TEXT    NOT NULL
		);
		CREATE INDEX IF NOT EXISTS alert_events_ts ON alert_events (ts);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}

	return &DB{db}, nil
}

// PublishOutput stores one routed channel value.
func (db *DB) PublishOutput(out logic.Output) error {
	_, err := db.Exec("INSERT INTO readings (ts, channel, value) VALUES (?, ?, ?)",
		out.Time.UnixNano(), out.Channel.String(), out.Value)
	if err != nil {
		return fmt.Errorf("record %s: %w", out.Channel, err)
	}
	return nil
}

// RecordAlert stores one alert transition.
func (db *DB) RecordAlert(e logic.AlertEvent) error {
	_, err := db.Exec("INSERT INTO alert_events (ts, event, value, tilt, motion) VALUES (?, ?, ?, ?, ?)",
		e.Timestamp.UnixNano(), string(e.Type), e.Value, string(e.TiltState), string(e.MotionState))
	if err != nil {
		return fmt.Errorf("record alert %s: %w", e.Type, err)
	}
	return nil
}

// AlertEvents returns up to limit alert transitions, newest first.
func (db *DB) AlertEvents(limit int) ([]logic.AlertEvent, error) {
	rows, err := db.Query("SELECT ts, event, value, tilt, motion FROM alert_events ORDER BY ts DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query alert events: %w", err)
	}
	defer rows.Close()

	var events []logic.AlertEvent
	for rows.Next() {
		var (
			ts                  int64
			event, tilt, motion string
			e                   logic.AlertEvent
		)
		if err := rows.Scan(&ts, &event, &e.Value, &tilt, &motion); err != nil {
			return nil, fmt.Errorf("scan alert event: %w", err)
		}
		e.Timestamp = time.Unix(0, ts).UTC()
		e.Type = logic.EventType(event)
		e.TiltState = logic.State(tilt)
		e.MotionState = logic.State(motion)
		events = append(events, e)
	}
	return events, rows.Err()
}

// Readings returns up to limit values of channel c recorded at or after
// since, oldest first. A zero since returns the oldest rows.
func (db *DB) Readings(c logic.Channel, since time.Time, limit int) ([]logic.Output, error) {
	from := int64(math.MinInt64)
	if !since.IsZero() {
		from = since.UnixNano()
	}
	rows, err := db.Query("SELECT ts, value FROM readings WHERE channel = ? AND ts >= ? ORDER BY ts ASC, rowid ASC LIMIT ?",
		c.String(), from, limit)
	if err != nil {
		return nil, fmt.Errorf("query %s readings: %w", c, err)
	}
	defer rows.Close()

	var outs []logic.Output
	for rows.Next() {
		var ts int64
		out := logic.Output{Channel: c}
		if err := rows.Scan(&ts, &out.Value); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		out.Time = time.Unix(0, ts).UTC()
		if c.Binary() {
			out.On = out.Value != 0
		}
		outs = append(outs, out)
	}
	return outs, rows.Err()
}

// Prune deletes every row older than before and returns the number removed.
func (db *DB) Prune(before time.Time) (int64, error) {
	cutoff := before.UnixNano()
	var total int64
	for _, q := range []string{
		"DELETE FROM readings WHERE ts < ?",
		"DELETE FROM alert_events WHERE ts < ?",
	} {
		res, err := db.Exec(q, cutoff)
		if err != nil {
			return total, fmt.Errorf("prune history: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("prune history: %w", err)
		}
		total += n
	}
	return total, nil
}
