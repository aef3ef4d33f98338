// Package normalizer turns raw calendar records into canonical events.
package normalizer

import (
	"log/slog"
	"strings"
	"time"

	"github.com/setevik/remindctx/internal/classifier"
	"github.com/setevik/remindctx/internal/event"
)

// dateLayout is the all-day descriptor format.
const dateLayout = "2006-01-02"

// zonedLayouts are ISO-8601 forms carrying "Z" or a numeric offset.
// Fractional seconds are accepted after the seconds field.
var zonedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04Z0700",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04Z07:00",
}

// naiveLayouts are timestamp forms without a UTC offset. They are read in the
// configured location.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Normalizer resolves times, classifies titles and derives day counts.
type Normalizer struct {
	loc *time.Location
	cls *classifier.Classifier
}

// New creates a Normalizer that reports times in loc. A nil loc means UTC and
// a nil classifier uses the default keyword rules.
func New(loc *time.Location, cls *classifier.Classifier) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	if cls == nil {
		cls = classifier.New(nil)
	}
	return &Normalizer{loc: loc, cls: cls}
}

// Location returns the configured timezone.
func (n *Normalizer) Location() *time.Location {
	return n.loc
}

// Normalize converts every raw record, in order, into an Event. It never
// drops, merges or fails on an entry; unresolvable fields fall back to their
// documented defaults.
func (n *Normalizer) Normalize(raws []event.RawEvent, now time.Time) []event.Event {
	out := make([]event.Event, 0, len(raws))
	for _, raw := range raws {
		out = append(out, n.normalizeOne(raw, now))
	}
	return out
}

func (n *Normalizer) normalizeOne(raw event.RawEvent, now time.Time) event.Event {
	title := raw.Summary
	if strings.TrimSpace(title) == "" {
		title = event.DefaultTitle
	}

	start, allDay := n.resolve(raw.Start)
	end, _ := n.resolve(raw.End)

	typ := n.cls.Classify(title)

	ev := event.Event{
		ID:              raw.ID,
		Title:           title,
		Start:           start,
		End:             end,
		Description:     raw.Description,
		Location:        raw.Location,
		Type:            typ,
		Priority:        classifier.PriorityFor(typ),
		DurationMinutes: durationMinutes(start, end),
		AllDay:          allDay,
	}

	if !start.IsZero() {
		days := daysUntil(start, now.In(n.loc))
		ev.DaysLeft = &days
	}

	if start.IsZero() && !raw.Start.IsZero() {
		slog.Debug("unparsable event start", "title", title, "dateTime", raw.Start.DateTime, "date", raw.Start.Date)
	}
	if end.IsZero() && !raw.End.IsZero() {
		slog.Debug("unparsable event end", "title", title, "dateTime", raw.End.DateTime, "date", raw.End.Date)
	}

	return ev
}

// resolve parses a time descriptor. The bool result is true when the
// descriptor held only a calendar date.
func (n *Normalizer) resolve(spec event.TimeSpec) (time.Time, bool) {
	if s := strings.TrimSpace(spec.DateTime); s != "" {
		t, ok := n.parseTimestamp(s)
		if !ok {
			return time.Time{}, false
		}
		return t.In(n.loc), false
	}

	if s := strings.TrimSpace(spec.Date); s != "" {
		t, err := time.ParseInLocation(dateLayout, s, n.loc)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}

	return time.Time{}, false
}

func (n *Normalizer) parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, n.loc); err == nil {
			return t, true
		}
	}
	// A bare date in a dateTime field is midnight in the configured location.
	if t, err := time.ParseInLocation(dateLayout, s, n.loc); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// daysUntil counts calendar days from now's date to start's date, floored at 0.
// Both times must already be in the same location.
func daysUntil(start, now time.Time) int {
	a := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	days := int(b.Sub(a).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// durationMinutes returns the whole minutes from start to end, or 0 when
// either is absent or the range is inverted.
func durationMinutes(start, end time.Time) int {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	mins := int(end.Sub(start) / time.Minute)
	if mins < 0 {
		return 0
	}
	return mins
}
