// Package store provides the SQLite-backed reminder memory ledger.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/setevik/remindctx/internal/event"
	"github.com/setevik/remindctx/internal/memory"
)

// DB wraps an SQLite connection for the memory ledger.
type DB struct {
	db  *sql.DB
	now func() time.Time
}

var _ memory.Ledger = (*DB)(nil)

// Open opens or creates an SQLite database at the given path.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Single writer connection to avoid SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return &DB{db: db, now: time.Now}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// RecordCompleted appends a completed event.
func (d *DB) RecordCompleted(title string, t event.Type, daysToComplete int) error {
	_, err := d.db.Exec(`
		INSERT INTO completions (id, title, event_type, completed_at, days_to_complete)
		VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(),
		title,
		string(t),
		d.timestamp(),
		daysToComplete,
	)
	if err != nil {
		return fmt.Errorf("recording completion: %w", err)
	}
	return nil
}

// RecordIgnored bumps the ignore count for a reminder text, inserting it with
// a count of 1 the first time.
func (d *DB) RecordIgnored(text string) error {
	return d.inTx("recording ignored reminder", func(tx *sql.Tx) error {
		var count int
		err := tx.QueryRow(`SELECT ignored_count FROM ignored_reminders WHERE text = ?`, text).Scan(&count)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			_, err = tx.Exec(`INSERT INTO ignored_reminders (text, ignored_at, ignored_count) VALUES (?, ?, 1)`,
				text, d.timestamp())
		case err == nil:
			_, err = tx.Exec(`UPDATE ignored_reminders SET ignored_count = ?, ignored_at = ? WHERE text = ?`,
				count+1, d.timestamp(), text)
		}
		return err
	})
}

// RecordProductivity folds a score into the running mean for (hour, type).
func (d *DB) RecordProductivity(hour int, t event.Type, score float64) error {
	if err := memory.ValidHour(hour); err != nil {
		return err
	}

	return d.inTx("recording productivity sample", func(tx *sql.Tx) error {
		var agg memory.Aggregate
		err := tx.QueryRow(`SELECT sample_count, score FROM productivity WHERE hour_of_day = ? AND event_type = ?`,
			hour, string(t)).Scan(&agg.Count, &agg.Mean)
		exists := err == nil
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		agg = agg.Add(score)

		if exists {
			_, err = tx.Exec(`UPDATE productivity SET score = ?, sample_count = ? WHERE hour_of_day = ? AND event_type = ?`,
				agg.Mean, agg.Count, hour, string(t))
		} else {
			_, err = tx.Exec(`INSERT INTO productivity (hour_of_day, event_type, score, sample_count) VALUES (?, ?, ?, ?)`,
				hour, string(t), agg.Mean, agg.Count)
		}
		if err == nil {
			slog.Debug("productivity sample recorded", "hour", hour, "type", t, "mean", agg.Mean, "samples", agg.Count)
		}
		return err
	})
}

// Productivity returns the stored aggregate for one (hour, type) key.
func (d *DB) Productivity(hour int, t event.Type) (memory.Aggregate, bool, error) {
	var agg memory.Aggregate
	err := d.db.QueryRow(`SELECT sample_count, score FROM productivity WHERE hour_of_day = ? AND event_type = ?`,
		hour, string(t)).Scan(&agg.Count, &agg.Mean)
	if errors.Is(err, sql.ErrNoRows) {
		return memory.Aggregate{}, false, nil
	}
	if err != nil {
		return memory.Aggregate{}, false, fmt.Errorf("querying productivity: %w", err)
	}
	return agg, true, nil
}

// Profile aggregates the whole ledger.
func (d *DB) Profile() (*memory.Profile, error) {
	p := &memory.Profile{
		TypeDistribution:      make(map[event.Type]int),
		FrequentlyIgnored:     []memory.IgnoredReminder{},
		PeakProductivityHours: []memory.PeakHour{},
	}

	if err := d.db.QueryRow(`SELECT COUNT(*) FROM completions`).Scan(&p.EventsCompleted); err != nil {
		return nil, fmt.Errorf("counting completions: %w", err)
	}

	rows, err := d.db.Query(`SELECT event_type, COUNT(*) FROM completions GROUP BY event_type`)
	if err != nil {
		return nil, fmt.Errorf("querying type distribution: %w", err)
	}
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning type distribution: %w", err)
		}
		p.TypeDistribution[event.Type(typ)] = n
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("reading type distribution: %w", err)
	}

	var avg float64
	if err := d.db.QueryRow(`SELECT COALESCE(AVG(days_to_complete), 0) FROM completions`).Scan(&avg); err != nil {
		return nil, fmt.Errorf("averaging days to complete: %w", err)
	}
	p.AverageDaysToComplete = memory.RoundTenth(avg)

	rows, err = d.db.Query(`SELECT text, ignored_count FROM ignored_reminders
		ORDER BY ignored_count DESC, text ASC LIMIT ?`, memory.TopN)
	if err != nil {
		return nil, fmt.Errorf("querying ignored reminders: %w", err)
	}
	for rows.Next() {
		var r memory.IgnoredReminder
		if err := rows.Scan(&r.Text, &r.Count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning ignored reminder: %w", err)
		}
		p.FrequentlyIgnored = append(p.FrequentlyIgnored, r)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("reading ignored reminders: %w", err)
	}

	rows, err = d.db.Query(`SELECT hour_of_day, event_type, score, sample_count FROM productivity
		ORDER BY score DESC, hour_of_day ASC, event_type ASC LIMIT ?`, memory.TopN)
	if err != nil {
		return nil, fmt.Errorf("querying productivity: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var h memory.PeakHour
		var typ string
		if err := rows.Scan(&h.Hour, &typ, &h.Score, &h.Count); err != nil {
			return nil, fmt.Errorf("scanning productivity: %w", err)
		}
		h.Type = event.Type(typ)
		p.PeakProductivityHours = append(p.PeakProductivityHours, h)
	}
	return p, rows.Err()
}

func (d *DB) inTx(op string, fn func(tx *sql.Tx) error) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// timeLayout is fixed width so stored timestamps order correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func (d *DB) timestamp() string {
	return d.now().UTC().Format(timeLayout)
}

func migrate(db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS completions (
			id               TEXT PRIMARY KEY,
			title            TEXT NOT NULL,
			event_type       TEXT NOT NULL,
			completed_at     TEXT NOT NULL,
			days_to_complete INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ignored_reminders (
			text          TEXT PRIMARY KEY,
			ignored_at    TEXT NOT NULL,
			ignored_count INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS productivity (
			hour_of_day  INTEGER NOT NULL,
			event_type   TEXT NOT NULL,
			score        REAL NOT NULL,
			sample_count INTEGER NOT NULL,
			PRIMARY KEY (hour_of_day, event_type)
		)`,
		`CREATE TABLE IF NOT EXISTS briefings (
			id              TEXT PRIMARY KEY,
			created_at      TEXT NOT NULL,
			events_analyzed INTEGER NOT NULL,
			summary         TEXT NOT NULL,
			feedback        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_completions_type ON completions(event_type)`,
		`CREATE INDEX IF NOT EXISTS idx_briefings_created ON briefings(created_at)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	slog.Debug("database schema up to date")
	return nil
}
