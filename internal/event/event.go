// Package event defines the raw and canonical calendar event model.
package event

import (
	"sort"
	"time"
)

// Type classifies what kind of commitment an event is.
type Type string

const (
	TypeExam     Type = "exam"
	TypeMeeting  Type = "meeting"
	TypeDeadline Type = "deadline"
	TypePersonal Type = "personal"
	TypeTravel   Type = "travel"
	TypeUnknown  Type = "unknown"
)

// Types lists every known type in classification order, unknown last.
var Types = []Type{TypeExam, TypeMeeting, TypeDeadline, TypePersonal, TypeTravel, TypeUnknown}

// Priority indicates how urgently an event needs attention.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// DefaultTitle is used when a raw event carries no title.
const DefaultTitle = "Untitled"

// TimeSpec is a start or end descriptor as calendar providers send it: either
// a full timestamp or a bare calendar date for all-day events.
type TimeSpec struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
}

// IsZero reports whether the descriptor carries no time at all.
func (s TimeSpec) IsZero() bool {
	return s.DateTime == "" && s.Date == ""
}

// RawEvent is a loosely-structured event as received from a source.
type RawEvent struct {
	ID          string   `json:"id,omitempty"`
	Summary     string   `json:"summary,omitempty"`
	Start       TimeSpec `json:"start"`
	End         TimeSpec `json:"end"`
	Description string   `json:"description,omitempty"`
	Location    string   `json:"location,omitempty"`
}

// Event is the canonical, fully-typed representation of a calendar entry.
// A zero Start or End means the descriptor could not be resolved.
type Event struct {
	ID              string    `json:"id,omitempty"`
	Title           string    `json:"title"`
	Start           time.Time `json:"start,omitzero"`
	End             time.Time `json:"end,omitzero"`
	Description     string    `json:"description,omitempty"`
	Location        string    `json:"location,omitempty"`
	Type            Type      `json:"type"`
	Priority        Priority  `json:"priority"`
	DaysLeft        *int      `json:"days_left,omitempty"`
	DurationMinutes int       `json:"duration_minutes"`
	AllDay          bool      `json:"all_day"`
}

// HasStart reports whether the start time was resolved.
func (e *Event) HasStart() bool {
	return !e.Start.IsZero()
}

// Timed reports whether both endpoints were resolved.
func (e *Event) Timed() bool {
	return !e.Start.IsZero() && !e.End.IsZero()
}

// Days returns DaysLeft and whether it is present.
func (e *Event) Days() (int, bool) {
	if e.DaysLeft == nil {
		return 0, false
	}
	return *e.DaysLeft, true
}

// Label returns a human-readable label for the type.
func (t Type) Label() string {
	switch t {
	case TypeExam:
		return "Exam"
	case TypeMeeting:
		return "Meeting"
	case TypeDeadline:
		return "Deadline"
	case TypePersonal:
		return "Personal"
	case TypeTravel:
		return "Travel"
	case TypeUnknown:
		return "Other"
	default:
		return string(t)
	}
}

// Known reports whether t is one of the defined types.
func (t Type) Known() bool {
	for _, k := range Types {
		if k == t {
			return true
		}
	}
	return false
}

// Glyph returns the colored indicator used in timelines.
func (p Priority) Glyph() string {
	switch p {
	case PriorityHigh:
		return "\U0001f534" // red circle
	case PriorityMedium:
		return "\U0001f7e1" // yellow circle
	default:
		return "\U0001f7e2" // green circle
	}
}

// Rank orders priorities, higher is more urgent.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

// SortByStart stable-sorts events by start time. Events without a start go last
// in their original relative order.
func SortByStart(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.HasStart() || !b.HasStart() {
			return a.HasStart() && !b.HasStart()
		}
		return a.Start.Before(b.Start)
	})
}
