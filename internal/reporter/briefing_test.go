package reporter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/setevik/remindctx/internal/event"
	"github.com/setevik/remindctx/internal/memory"
	"github.com/setevik/remindctx/internal/snapshot"
)

func TestFormatBriefing(t *testing.T) {
	events := append(sampleEvents(), event.Event{Title: "Someday", Type: event.TypeUnknown, Priority: event.PriorityLow})
	c := snapshot.Build(events, now)
	out := FormatBriefing(c, events)

	wants := []string{
		"=== Saturday, Jun 01 2024 08:00 UTC ===",
		"Upcoming:      3 (1 high priority)",
		"Exams:         1",
		"Deadlines:     0",
		"By type:       Meeting ×2, Exam ×1",
		"Busiest day:   2024-06-01 (2 events)",
		"Unscheduled:   1",
		"Next critical: Physics Exam (in 2 days)",
		"Free slots:\n  Sat Jun 01 10:30-09:00 (1d 22h)",
		"Conflicts:\n  Team Standup / Design sync at Sat Jun 01 09:30",
		"Timeline:\n\U0001f7e1 Team Standup — today",
	}
	for _, w := range wants {
		if !strings.Contains(out, w) {
			t.Errorf("briefing missing %q\n---\n%s", w, out)
		}
	}
}

func TestFormatBriefingEmpty(t *testing.T) {
	out := FormatBriefing(snapshot.Build(nil, now), nil)

	if !strings.Contains(out, "Upcoming:      0\n") {
		t.Errorf("empty briefing counts wrong:\n%s", out)
	}
	for _, absent := range []string{"Busiest day", "Free slots", "Conflicts", "Next critical", "By type"} {
		if strings.Contains(out, absent) {
			t.Errorf("empty briefing should not mention %q", absent)
		}
	}
	if !strings.HasSuffix(out, snapshot.NoUpcoming+"\n") {
		t.Errorf("empty briefing should end with %q", snapshot.NoUpcoming)
	}
}

func TestFormatBreakdownTies(t *testing.T) {
	got := formatBreakdown(map[event.Type]int{
		event.TypeTravel:  1,
		event.TypeExam:    1,
		event.TypeMeeting: 3,
	})
	if want := "Meeting ×3, Exam ×1, Travel ×1"; got != want {
		t.Errorf("breakdown = %q, want %q", got, want)
	}
}

func TestWriteJSON(t *testing.T) {
	events := sampleEvents()
	h := Handoff{
		Context: snapshot.Build(events, now),
		Events:  events,
		Profile: &memory.Profile{EventsCompleted: 4},
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, h); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	for _, key := range []string{"context", "events", "user_profile"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("handoff missing %q", key)
		}
	}

	var ctx map[string]any
	if err := json.Unmarshal(doc["context"], &ctx); err != nil {
		t.Fatal(err)
	}
	if ctx["total_upcoming_events"] != float64(3) {
		t.Errorf("total_upcoming_events = %v", ctx["total_upcoming_events"])
	}
	if ctx["day_of_week"] != "Saturday" {
		t.Errorf("day_of_week = %v", ctx["day_of_week"])
	}
}

func TestWriteJSONWithoutEvents(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, Handoff{Context: snapshot.Build(nil, now)}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"events": []`) {
		t.Errorf("events should encode as an empty list:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "user_profile") {
		t.Error("absent profile should be omitted")
	}
}
