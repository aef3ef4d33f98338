package reporter

import (
	"fmt"
	"strings"

	"github.com/setevik/remindctx/internal/classifier"
	"github.com/setevik/remindctx/internal/event"
	"github.com/setevik/remindctx/internal/snapshot"
)

// priorityTags maps event priorities to ntfy tag names.
var priorityTags = map[event.Priority]string{
	event.PriorityHigh:   "rotating_light,calendar",
	event.PriorityMedium: "calendar",
	event.PriorityLow:    "spiral_calendar",
}

// FormatTitle builds the ntfy notification title for a briefing.
func FormatTitle(c *snapshot.Context) string {
	return fmt.Sprintf("\U0001f4c5 %d upcoming — %s", c.TotalUpcoming, c.Weekday)
}

// FormatBody builds the ntfy notification body: the timeline followed by any
// conflicts.
func FormatBody(c *snapshot.Context) string {
	var b strings.Builder
	b.WriteString(c.TimelineSummary)

	if len(c.Conflicts) > 0 {
		b.WriteString("\n\nConflicts:")
		for _, cf := range c.Conflicts {
			fmt.Fprintf(&b, "\n⚠ %s / %s at %s", cf.Event1, cf.Event2, cf.Time.Format("Mon 15:04"))
		}
	}
	return b.String()
}

// TagsForPriority returns the ntfy tags string for a priority.
func TagsForPriority(p event.Priority) string {
	if tags, ok := priorityTags[p]; ok {
		return tags
	}
	return "calendar"
}

// HighestPriority returns the most urgent priority among the windowed events.
func HighestPriority(c *snapshot.Context) event.Priority {
	best := event.PriorityLow
	for t, n := range c.EventsByType {
		if n == 0 {
			continue
		}
		if p := classifier.PriorityFor(t); p.Rank() > best.Rank() {
			best = p
		}
	}
	return best
}
