package reporter

import (
	"time"

	"github.com/setevik/remindctx/internal/event"
	"github.com/setevik/remindctx/internal/snapshot"
)

// SampleContext builds a synthetic briefing for testing ntfy connectivity.
func SampleContext(now time.Time) *snapshot.Context {
	start := now.Add(2 * time.Hour).Truncate(time.Hour)
	days := 0
	ev := event.Event{
		ID:              "test-" + now.Format("20060102-150405"),
		Title:           "Test notification from remindctx",
		Start:           start,
		End:             start.Add(30 * time.Minute),
		Type:            event.TypeMeeting,
		Priority:        event.PriorityMedium,
		DaysLeft:        &days,
		DurationMinutes: 30,
	}
	return snapshot.Build([]event.Event{ev}, now)
}
