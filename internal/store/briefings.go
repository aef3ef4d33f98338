package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Briefing is one recorded run of the pipeline.
type Briefing struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	EventsAnalyzed int       `json:"events_analyzed"`
	Summary        string    `json:"summary"`
	Feedback       string    `json:"feedback,omitempty"`
}

// RecordBriefing stores a briefing and returns its ID.
func (d *DB) RecordBriefing(eventsAnalyzed int, summary string) (string, error) {
	id := uuid.NewString()
	_, err := d.db.Exec(`
		INSERT INTO briefings (id, created_at, events_analyzed, summary)
		VALUES (?, ?, ?, ?)`,
		id, d.timestamp(), eventsAnalyzed, summary,
	)
	if err != nil {
		return "", fmt.Errorf("recording briefing: %w", err)
	}
	return id, nil
}

// SetFeedback attaches user feedback to a stored briefing.
func (d *DB) SetFeedback(id, feedback string) error {
	result, err := d.db.Exec(`UPDATE briefings SET feedback = ? WHERE id = ?`, feedback, id)
	if err != nil {
		return fmt.Errorf("setting briefing feedback: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("briefing %q not found", id)
	}
	return nil
}

// Briefings returns the most recent briefings, newest first. A limit of 0
// returns all of them.
func (d *DB) Briefings(limit int) ([]Briefing, error) {
	query := `SELECT id, created_at, events_analyzed, summary, feedback
		FROM briefings ORDER BY created_at DESC`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying briefings: %w", err)
	}
	defer rows.Close()

	var out []Briefing
	for rows.Next() {
		var b Briefing
		var created string
		var feedback sql.NullString
		if err := rows.Scan(&b.ID, &created, &b.EventsAnalyzed, &b.Summary, &feedback); err != nil {
			return nil, fmt.Errorf("scanning briefing: %w", err)
		}
		b.CreatedAt, _ = time.Parse(timeLayout, created)
		b.Feedback = feedback.String
		out = append(out, b)
	}
	return out, rows.Err()
}

// PurgeBriefings deletes briefings older than the given retention duration.
func (d *DB) PurgeBriefings(retention time.Duration) (int64, error) {
	cutoff := d.now().Add(-retention).UTC().Format(timeLayout)
	result, err := d.db.Exec(`DELETE FROM briefings WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purging old briefings: %w", err)
	}
	return result.RowsAffected()
}
