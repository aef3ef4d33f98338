// Package memory defines the statistics ledger the reminder pipeline feeds:
// completed events, ignored reminders and per-hour productivity samples.
package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/setevik/remindctx/internal/event"
)

// TopN is how many entries Profile returns for ranked lists.
const TopN = 5

// ErrInvalidHour is returned for an hour of day outside 0..23.
var ErrInvalidHour = errors.New("hour of day must be between 0 and 23")

// Aggregate is a running arithmetic mean over Count samples.
type Aggregate struct {
	Count int     `json:"sample_count"`
	Mean  float64 `json:"mean"`
}

// Add folds one sample into the aggregate.
func (a Aggregate) Add(sample float64) Aggregate {
	return Aggregate{
		Count: a.Count + 1,
		Mean:  (a.Mean*float64(a.Count) + sample) / float64(a.Count+1),
	}
}

// IgnoredReminder is a reminder text with how often it was dismissed.
type IgnoredReminder struct {
	Text  string `json:"text"`
	Count int    `json:"count"`
}

// PeakHour is a productivity aggregate for one hour of day and event type.
type PeakHour struct {
	Hour  int        `json:"hour"`
	Type  event.Type `json:"event_type"`
	Score float64    `json:"score"`
	Count int        `json:"sample_count"`
}

// Profile summarizes everything the ledger has recorded.
type Profile struct {
	EventsCompleted       int                `json:"events_completed"`
	TypeDistribution      map[event.Type]int `json:"event_types_distribution"`
	AverageDaysToComplete float64            `json:"average_days_to_complete"`
	FrequentlyIgnored     []IgnoredReminder  `json:"frequently_ignored_reminders"`
	PeakProductivityHours []PeakHour         `json:"peak_productivity_hours"`
}

// Ledger records reminder statistics. Writes are append or upsert only.
type Ledger interface {
	RecordCompleted(title string, t event.Type, daysToComplete int) error
	RecordIgnored(text string) error
	RecordProductivity(hour int, t event.Type, score float64) error
	Profile() (*Profile, error)
}

// ValidHour checks an hour-of-day key.
func ValidHour(hour int) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("%w: got %d", ErrInvalidHour, hour)
	}
	return nil
}

// RoundTenth rounds to one decimal place.
func RoundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

// ExportProfile writes p as indented JSON to path, creating parent directories.
func ExportProfile(path string, p *Profile) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("creating export directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing profile export: %w", err)
	}
	return nil
}
