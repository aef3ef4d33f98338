package reporter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/setevik/remindctx/internal/event"
	"github.com/setevik/remindctx/internal/format"
	"github.com/setevik/remindctx/internal/snapshot"
)

// FormatBriefing formats a Context as human-readable text for stdout.
// events is the full normalized list the Context was built from.
func FormatBriefing(c *snapshot.Context, events []event.Event) string {
	var b strings.Builder

	fmt.Fprintf(&b, "=== %s ===\n\n", c.Now.Format("Monday, Jan 02 2006 15:04 MST"))

	fmt.Fprintf(&b, "Upcoming:      %d", c.TotalUpcoming)
	if c.HighPriorityCount > 0 {
		fmt.Fprintf(&b, " (%d high priority)", c.HighPriorityCount)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Exams:         %d\n", c.ExamCount)
	fmt.Fprintf(&b, "Deadlines:     %d\n", c.DeadlineCount)

	if len(c.EventsByType) > 0 {
		fmt.Fprintf(&b, "By type:       %s\n", formatBreakdown(c.EventsByType))
	}

	if c.BusiestDay != nil {
		fmt.Fprintf(&b, "Busiest day:   %s (%d events)\n", c.BusiestDay.Date, c.BusiestDay.EventCount)
	}

	if unscheduled := countUnscheduled(events); unscheduled > 0 {
		fmt.Fprintf(&b, "Unscheduled:   %d\n", unscheduled)
	}

	if c.NextCritical != nil {
		fmt.Fprintf(&b, "Next critical: %s", c.NextCritical.Title)
		if d, ok := c.NextCritical.Days(); ok {
			fmt.Fprintf(&b, " (%s)", format.RelativeDays(d))
		}
		b.WriteString("\n")
	}

	if len(c.FreeSlots) > 0 {
		b.WriteString("\nFree slots:\n")
		for _, s := range c.FreeSlots {
			fmt.Fprintf(&b, "  %s-%s (%s)\n",
				s.Start.Format("Mon Jan 02 15:04"),
				s.End.Format("15:04"),
				format.Minutes(s.DurationMinutes))
		}
	}

	if len(c.Conflicts) > 0 {
		b.WriteString("\nConflicts:\n")
		for _, cf := range c.Conflicts {
			fmt.Fprintf(&b, "  %s / %s at %s\n", cf.Event1, cf.Event2, cf.Time.Format("Mon Jan 02 15:04"))
		}
	}

	b.WriteString("\nTimeline:\n")
	b.WriteString(c.TimelineSummary)
	b.WriteString("\n")

	return b.String()
}

func countUnscheduled(events []event.Event) int {
	n := 0
	for i := range events {
		if !events[i].HasStart() {
			n++
		}
	}
	return n
}

// formatBreakdown turns type counts into "Meeting ×2, Exam ×1" sorted by
// count desc, then label.
func formatBreakdown(m map[event.Type]int) string {
	type entry struct {
		name  string
		count int
	}

	entries := make([]entry, 0, len(m))
	for t, count := range m {
		entries = append(entries, entry{t.Label(), count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].name < entries[j].name
	})

	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = fmt.Sprintf("%s ×%d", e.name, e.count)
	}
	return strings.Join(parts, ", ")
}
