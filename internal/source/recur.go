package source

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/setevik/remindctx/internal/event"
)

// DefaultMaxOccurrences caps how many instances one recurring event expands to.
const DefaultMaxOccurrences = 5000

const (
	icsDate        = "20060102"
	icsDateTime    = "20060102T150405"
	icsDateTimeUTC = "20060102T150405Z"
	naiveLayout    = "2006-01-02T15:04:05"
)

// icsTime is a DTSTART/DTEND/EXDATE value. Date values and floating
// date-times carry no zone of their own and are emitted without an offset.
type icsTime struct {
	t        time.Time
	allDay   bool
	floating bool
}

// parseICSTime reads an iCalendar DATE or DATE-TIME value. loc resolves
// floating and date values for range comparisons.
func parseICSTime(value, tzid string, dateOnly bool, loc *time.Location) (icsTime, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return icsTime{}, errors.New("empty time value")
	}
	if loc == nil {
		loc = time.UTC
	}

	if dateOnly || !strings.Contains(value, "T") {
		t, err := time.ParseInLocation(icsDate, value, loc)
		if err != nil {
			return icsTime{}, err
		}
		return icsTime{t: t, allDay: true}, nil
	}

	if strings.HasSuffix(value, "Z") {
		t, err := time.Parse(icsDateTimeUTC, value)
		if err != nil {
			return icsTime{}, err
		}
		return icsTime{t: t}, nil
	}

	if tzid = strings.Trim(tzid, `"`); tzid != "" {
		zone, err := time.LoadLocation(tzid)
		if err == nil {
			t, err := time.ParseInLocation(icsDateTime, value, zone)
			if err != nil {
				return icsTime{}, err
			}
			return icsTime{t: t}, nil
		}
		slog.Debug("unknown TZID, treating time as floating", "tzid", tzid)
	}

	t, err := time.ParseInLocation(icsDateTime, value, loc)
	if err != nil {
		return icsTime{}, err
	}
	return icsTime{t: t, floating: true}, nil
}

// at returns a value of the same kind at a different instant.
func (it icsTime) at(t time.Time) icsTime {
	return icsTime{t: t, allDay: it.allDay, floating: it.floating}
}

func (it icsTime) timeSpec() event.TimeSpec {
	switch {
	case it.t.IsZero():
		return event.TimeSpec{}
	case it.allDay:
		return event.TimeSpec{Date: it.t.Format("2006-01-02")}
	case it.floating:
		return event.TimeSpec{DateTime: it.t.Format(naiveLayout)}
	default:
		return event.TimeSpec{DateTime: it.t.Format(time.RFC3339)}
	}
}

// vevent is a VEVENT decoded from either iCalendar library.
type vevent struct {
	uid         string
	summary     string
	description string
	location    string
	start       icsTime
	end         icsTime
	rrule       string
	exdates     []time.Time
}

func (v vevent) raw(id string, start, end icsTime) event.RawEvent {
	return event.RawEvent{
		ID:          id,
		Summary:     v.summary,
		Start:       start.timeSpec(),
		End:         end.timeSpec(),
		Description: v.description,
		Location:    v.location,
	}
}

// expand turns VEVENTs into raw events within [from, to]. Recurring events
// yield one record per occurrence; EXDATEs are skipped. Events without a
// start are passed through unfiltered.
func expand(events []vevent, from, to time.Time, limit int) []event.RawEvent {
	if limit <= 0 {
		limit = DefaultMaxOccurrences
	}

	var out []event.RawEvent
	for _, ev := range events {
		if ev.start.t.IsZero() {
			out = append(out, ev.raw(ev.uid, ev.start, ev.end))
			continue
		}

		if ev.rrule != "" {
			occ, err := expandRecurring(ev, from, to, limit)
			if err == nil {
				out = append(out, occ...)
				continue
			}
			slog.Warn("invalid RRULE, using first instance only", "uid", ev.uid, "rrule", ev.rrule, "error", err)
		}

		end := ev.end.t
		if end.IsZero() {
			end = ev.start.t
		}
		if overlaps(ev.start.t, end, from, to) {
			out = append(out, ev.raw(ev.uid, ev.start, ev.end))
		}
	}
	return out
}

func expandRecurring(ev vevent, from, to time.Time, limit int) ([]event.RawEvent, error) {
	r, err := rrule.StrToRRule(ev.rrule)
	if err != nil {
		return nil, fmt.Errorf("parsing rrule: %w", err)
	}
	r.DTStart(ev.start.t)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.exdates {
		set.ExDate(ex.In(ev.start.t.Location()))
	}

	var dur time.Duration
	if !ev.end.t.IsZero() {
		dur = ev.end.t.Sub(ev.start.t)
	}

	loc := ev.start.t.Location()
	// Widen the lower bound so occurrences already in progress at from are kept.
	times := set.Between(from.Add(-dur).In(loc), to.In(loc), true)
	if len(times) > limit {
		slog.Warn("recurring event truncated", "uid", ev.uid, "cap", limit)
		times = times[:limit]
	}

	out := make([]event.RawEvent, 0, len(times))
	for _, start := range times {
		var end icsTime
		if !ev.end.t.IsZero() {
			end = ev.end.at(start.Add(dur))
		}
		id := ev.uid
		if id != "" {
			id += "_" + start.UTC().Format(icsDateTimeUTC)
		}
		out = append(out, ev.raw(id, ev.start.at(start), end))
	}
	return out, nil
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aEnd.Before(bStart) && !bEnd.Before(aStart)
}
