package reporter

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/setevik/remindctx/internal/config"
	"github.com/setevik/remindctx/internal/event"
	"github.com/setevik/remindctx/internal/snapshot"
)

var now = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC) // Saturday

func mkEvent(title string, typ event.Type, prio event.Priority, start time.Time, dur time.Duration, days int) event.Event {
	return event.Event{
		Title:           title,
		Start:           start,
		End:             start.Add(dur),
		Type:            typ,
		Priority:        prio,
		DaysLeft:        &days,
		DurationMinutes: int(dur / time.Minute),
	}
}

func sampleEvents() []event.Event {
	return []event.Event{
		mkEvent("Team Standup", event.TypeMeeting, event.PriorityMedium, time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC), time.Hour, 0),
		mkEvent("Design sync", event.TypeMeeting, event.PriorityMedium, time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC), time.Hour, 0),
		mkEvent("Physics Exam", event.TypeExam, event.PriorityHigh, time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC), 2*time.Hour, 2),
	}
}

func TestFormatTitle(t *testing.T) {
	c := snapshot.Build(sampleEvents(), now)
	if got, want := FormatTitle(c), "\U0001f4c5 3 upcoming — Saturday"; got != want {
		t.Errorf("title = %q, want %q", got, want)
	}
}

func TestFormatBody(t *testing.T) {
	c := snapshot.Build(sampleEvents(), now)
	body := FormatBody(c)

	if !strings.HasPrefix(body, c.TimelineSummary) {
		t.Errorf("body should start with the timeline, got %q", body)
	}
	if !strings.Contains(body, "Team Standup / Design sync at Sat 09:30") {
		t.Errorf("body should list the conflict, got %q", body)
	}

	quiet := snapshot.Build(nil, now)
	if got := FormatBody(quiet); got != snapshot.NoUpcoming {
		t.Errorf("empty body = %q, want %q", got, snapshot.NoUpcoming)
	}
}

func TestHighestPriority(t *testing.T) {
	events := sampleEvents()
	tests := []struct {
		name   string
		events []event.Event
		want   event.Priority
	}{
		{"exam present", events, event.PriorityHigh},
		{"meetings only", events[:2], event.PriorityMedium},
		{"nothing", nil, event.PriorityLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HighestPriority(snapshot.Build(tt.events, now)); got != tt.want {
				t.Errorf("HighestPriority = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTagsForPriority(t *testing.T) {
	if tags := TagsForPriority(event.PriorityHigh); tags != "rotating_light,calendar" {
		t.Errorf("high tags = %q", tags)
	}
	if tags := TagsForPriority(event.Priority("weird")); tags != "calendar" {
		t.Errorf("fallback tags = %q", tags)
	}
}

func TestNtfyReporterSend(t *testing.T) {
	var receivedTitle, receivedPriority, receivedTags, receivedBody string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedTitle = r.Header.Get("Title")
		receivedPriority = r.Header.Get("Priority")
		receivedTags = r.Header.Get("Tags")
		body, _ := io.ReadAll(r.Body)
		receivedBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Ntfy.URL = server.URL

	rep := NewNtfy(cfg)
	if err := rep.Report(context.Background(), snapshot.Build(sampleEvents(), now)); err != nil {
		t.Fatalf("Report() error: %v", err)
	}

	if !strings.Contains(receivedTitle, "3 upcoming") {
		t.Errorf("ntfy title = %q", receivedTitle)
	}
	if receivedPriority != "high" {
		t.Errorf("ntfy priority = %q, want %q", receivedPriority, "high")
	}
	if receivedTags != "rotating_light,calendar" {
		t.Errorf("ntfy tags = %q", receivedTags)
	}
	if !strings.Contains(receivedBody, "Physics Exam — in 2 days") {
		t.Errorf("ntfy body should contain the timeline, got %q", receivedBody)
	}
}

func TestNtfyReporterPriorityMap(t *testing.T) {
	var receivedPriority string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedPriority = r.Header.Get("Priority")
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Ntfy.URL = server.URL
	cfg.Ntfy.PriorityMap["medium"] = "high"

	c := snapshot.Build(sampleEvents()[:2], now)
	if err := NewNtfy(cfg).Report(context.Background(), c); err != nil {
		t.Fatal(err)
	}
	if receivedPriority != "high" {
		t.Errorf("mapped priority = %q, want high", receivedPriority)
	}
}

func TestNtfyReporterServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Ntfy.URL = server.URL

	if err := NewNtfy(cfg).Report(context.Background(), snapshot.Build(nil, now)); err == nil {
		t.Fatal("expected error for 403 response")
	}
}

func TestNtfyReporterNoURL(t *testing.T) {
	cfg := config.Default()
	cfg.Ntfy.URL = ""

	if err := NewNtfy(cfg).Report(context.Background(), snapshot.Build(sampleEvents(), now)); err != nil {
		t.Fatalf("Report() with no URL should not error, got: %v", err)
	}
}

func TestSampleContext(t *testing.T) {
	c := SampleContext(now)
	if c.TotalUpcoming != 1 {
		t.Errorf("TotalUpcoming = %d, want 1", c.TotalUpcoming)
	}
	if !strings.Contains(c.TimelineSummary, "Test notification") {
		t.Errorf("timeline = %q", c.TimelineSummary)
	}
}
