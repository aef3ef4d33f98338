// Package snapshot derives a situational summary from canonical events: window
// counts, the busiest day, free time, conflicts and a prioritized timeline.
package snapshot

import (
	"sort"
	"strings"
	"time"

	"github.com/setevik/remindctx/internal/event"
	"github.com/setevik/remindctx/internal/format"
)

// NoUpcoming is the timeline text when the window holds no events.
const NoUpcoming = "No upcoming events."

// BusyDay is the calendar date holding the most events.
type BusyDay struct {
	Date       string `json:"date"`
	EventCount int    `json:"event_count"`
}

// Slot is a free interval between two consecutive timed events.
type Slot struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes int       `json:"duration_minutes"`
}

// Conflict records two start-adjacent events that overlap.
type Conflict struct {
	Event1 string    `json:"event1"`
	Event2 string    `json:"event2"`
	Time   time.Time `json:"time"`
}

// Context is an immutable snapshot over a set of events at a given instant.
type Context struct {
	Now               time.Time          `json:"current_datetime"`
	Weekday           string             `json:"day_of_week"`
	TotalUpcoming     int                `json:"total_upcoming_events"`
	HighPriorityCount int                `json:"high_priority_count"`
	ExamCount         int                `json:"exam_count"`
	DeadlineCount     int                `json:"deadline_count"`
	BusiestDay        *BusyDay           `json:"busiest_day"`
	FreeSlots         []Slot             `json:"free_slots"`
	Conflicts         []Conflict         `json:"conflicts"`
	EventsByType      map[event.Type]int `json:"events_by_type"`
	NextCritical      *event.Event       `json:"next_critical_event"`
	TimelineSummary   string             `json:"timeline_summary"`
}

// Options tunes the derivations. The zero value of any field is replaced by
// its default.
type Options struct {
	WindowDays    int
	MinFreeSlot   time.Duration
	MaxFreeSlots  int
	TimelineLimit int
}

// DefaultOptions returns a 7-day window, one-hour free slots (at most 3) and
// a 5-line timeline.
func DefaultOptions() Options {
	return Options{
		WindowDays:    7,
		MinFreeSlot:   time.Hour,
		MaxFreeSlots:  3,
		TimelineLimit: 5,
	}
}

// Builder derives Contexts using fixed Options.
type Builder struct {
	opts Options
}

// NewBuilder creates a Builder, filling zero options with defaults.
func NewBuilder(opts Options) *Builder {
	def := DefaultOptions()
	if opts.WindowDays <= 0 {
		opts.WindowDays = def.WindowDays
	}
	if opts.MinFreeSlot <= 0 {
		opts.MinFreeSlot = def.MinFreeSlot
	}
	if opts.MaxFreeSlots <= 0 {
		opts.MaxFreeSlots = def.MaxFreeSlots
	}
	if opts.TimelineLimit <= 0 {
		opts.TimelineLimit = def.TimelineLimit
	}
	return &Builder{opts: opts}
}

// Build derives a Context with the default options.
func Build(events []event.Event, now time.Time) *Context {
	return NewBuilder(DefaultOptions()).Build(events, now)
}

// Build derives a Context from events as seen at now. It depends on nothing
// but its arguments and never modifies events.
func (b *Builder) Build(events []event.Event, now time.Time) *Context {
	window := b.window(events)

	ctx := &Context{
		Now:          now,
		Weekday:      now.Weekday().String(),
		BusiestDay:   busiestDay(events),
		FreeSlots:    []Slot{},
		Conflicts:    []Conflict{},
		EventsByType: make(map[event.Type]int),
	}

	for i := range window {
		ev := &window[i]
		ctx.TotalUpcoming++
		ctx.EventsByType[ev.Type]++

		if ev.Priority == event.PriorityHigh {
			ctx.HighPriorityCount++
			if ctx.NextCritical == nil {
				critical := *ev
				if ev.DaysLeft != nil {
					d := *ev.DaysLeft
					critical.DaysLeft = &d
				}
				ctx.NextCritical = &critical
			}
		}
		switch ev.Type {
		case event.TypeExam:
			ctx.ExamCount++
		case event.TypeDeadline:
			ctx.DeadlineCount++
		}
	}

	timed := sortedTimed(events)
	ctx.FreeSlots = b.freeSlots(timed, now)
	ctx.Conflicts = conflicts(timed)
	ctx.TimelineSummary = b.timeline(window)

	return ctx
}

// window returns the events whose DaysLeft lies within [0, WindowDays], in
// input order.
func (b *Builder) window(events []event.Event) []event.Event {
	var out []event.Event
	for i := range events {
		d, ok := events[i].Days()
		if ok && d >= 0 && d <= b.opts.WindowDays {
			out = append(out, events[i])
		}
	}
	return out
}

// busiestDay groups all events by start date. Ties go to the date seen first.
func busiestDay(events []event.Event) *BusyDay {
	counts := make(map[string]int)
	var order []string

	for i := range events {
		if !events[i].HasStart() {
			continue
		}
		key := events[i].Start.Format("2006-01-02")
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}

	if len(order) == 0 {
		return nil
	}

	best := order[0]
	for _, key := range order[1:] {
		if counts[key] > counts[best] {
			best = key
		}
	}
	return &BusyDay{Date: best, EventCount: counts[best]}
}

// sortedTimed returns the events with both endpoints, stable-sorted by start.
func sortedTimed(events []event.Event) []event.Event {
	var timed []event.Event
	for i := range events {
		if events[i].Timed() {
			timed = append(timed, events[i])
		}
	}
	sort.SliceStable(timed, func(i, j int) bool {
		return timed[i].Start.Before(timed[j].Start)
	})
	return timed
}

// freeSlots reports gaps between consecutive timed events that are long enough
// and start at or after now. A gap already under way at now is not reported.
func (b *Builder) freeSlots(timed []event.Event, now time.Time) []Slot {
	slots := []Slot{}
	for i := 0; i+1 < len(timed); i++ {
		gapStart := timed[i].End
		gapEnd := timed[i+1].Start

		mins := int(gapEnd.Sub(gapStart) / time.Minute)
		if time.Duration(mins)*time.Minute < b.opts.MinFreeSlot || gapStart.Before(now) {
			continue
		}

		slots = append(slots, Slot{Start: gapStart, End: gapEnd, DurationMinutes: mins})
		if len(slots) == b.opts.MaxFreeSlots {
			break
		}
	}
	return slots
}

// conflicts compares only start-adjacent pairs: a long event overlapping a
// non-neighbor is not reported, and a three-way overlap yields two pairs.
func conflicts(timed []event.Event) []Conflict {
	out := []Conflict{}
	for i := 0; i+1 < len(timed); i++ {
		if timed[i].End.After(timed[i+1].Start) {
			out = append(out, Conflict{
				Event1: timed[i].Title,
				Event2: timed[i+1].Title,
				Time:   timed[i+1].Start,
			})
		}
	}
	return out
}

// timeline renders one line per event for the first TimelineLimit windowed
// events, keeping input order.
func (b *Builder) timeline(window []event.Event) string {
	if len(window) == 0 {
		return NoUpcoming
	}

	n := min(len(window), b.opts.TimelineLimit)
	lines := make([]string, 0, n)
	for i := range window[:n] {
		ev := &window[i]
		d, _ := ev.Days()
		lines = append(lines, ev.Priority.Glyph()+" "+ev.Title+" — "+format.RelativeDays(d))
	}
	return strings.Join(lines, "\n")
}
