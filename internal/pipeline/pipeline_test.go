package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/setevik/remindctx/internal/event"
	"github.com/setevik/remindctx/internal/normalizer"
	"github.com/setevik/remindctx/internal/snapshot"
	"github.com/setevik/remindctx/internal/source"
)

var now = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

func TestAnalyzeOrdersByStart(t *testing.T) {
	p := New(nil, nil, nil, 0)
	raws := []event.RawEvent{
		{Summary: "Report deadline", Start: event.TimeSpec{Date: "2024-06-05"}},
		{Summary: "Physics Exam", Start: event.TimeSpec{DateTime: "2024-06-03T09:00:00Z"}, End: event.TimeSpec{DateTime: "2024-06-03T11:00:00Z"}},
		{Summary: "No time"},
		{Summary: "Team Standup", Start: event.TimeSpec{DateTime: "2024-06-01T09:00:00Z"}, End: event.TimeSpec{DateTime: "2024-06-01T09:15:00Z"}},
	}

	res := p.Analyze(raws, now)
	if res.Fetched != 4 || len(res.Events) != 4 {
		t.Fatalf("fetched %d, events %d", res.Fetched, len(res.Events))
	}

	wantOrder := []string{"Team Standup", "Physics Exam", "Report deadline", "No time"}
	for i, w := range wantOrder {
		if res.Events[i].Title != w {
			t.Errorf("Events[%d] = %q, want %q", i, res.Events[i].Title, w)
		}
	}

	c := res.Context
	if c.TotalUpcoming != 3 {
		t.Errorf("TotalUpcoming = %d, want 3", c.TotalUpcoming)
	}
	if c.HighPriorityCount != 2 || c.ExamCount != 1 || c.DeadlineCount != 1 {
		t.Errorf("counts = high %d exam %d deadline %d", c.HighPriorityCount, c.ExamCount, c.DeadlineCount)
	}
	if c.NextCritical == nil || c.NextCritical.Title != "Physics Exam" {
		t.Errorf("NextCritical = %+v", c.NextCritical)
	}
}

func TestRange(t *testing.T) {
	lisbon, err := time.LoadLocation("Europe/Lisbon")
	if err != nil {
		t.Skip("tzdata not available")
	}
	p := New(nil, normalizer.New(lisbon, nil), nil, 3)

	from, to := p.Range(time.Date(2024, 6, 1, 23, 30, 0, 0, time.UTC))
	// 23:30 UTC is already June 2nd in Lisbon.
	wantFrom := time.Date(2024, 6, 2, 0, 0, 0, 0, lisbon)
	if !from.Equal(wantFrom) {
		t.Errorf("from = %v, want %v", from, wantFrom)
	}
	if !to.Equal(wantFrom.AddDate(0, 0, 4)) {
		t.Errorf("to = %v", to)
	}
}

func TestRunWithFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	content := `[
		{"summary": "Team Standup", "start": {"dateTime": "2024-06-01T09:00:00Z"}, "end": {"dateTime": "2024-06-01T10:00:00Z"}},
		{"summary": "Design review meeting", "start": {"dateTime": "2024-06-01T09:30:00Z"}, "end": {"dateTime": "2024-06-01T10:30:00Z"}}
	]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	p := New([]source.Source{source.NewFileSource(path)}, nil, snapshot.NewBuilder(snapshot.Options{}), 7)
	p.now = func() time.Time { return now }

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Context.Conflicts) != 1 {
		t.Fatalf("Conflicts = %+v, want one", res.Context.Conflicts)
	}
	if res.Context.Conflicts[0].Event1 != "Team Standup" {
		t.Errorf("conflict = %+v", res.Context.Conflicts[0])
	}
	if res.Context.Weekday != "Saturday" {
		t.Errorf("Weekday = %q", res.Context.Weekday)
	}
}

func TestRunAllSourcesFail(t *testing.T) {
	p := New([]source.Source{source.NewFileSource(filepath.Join(t.TempDir(), "missing.json"))}, nil, nil, 0)
	_, err := p.Run(context.Background())
	if !errors.Is(err, source.ErrAllSourcesFailed) {
		t.Errorf("err = %v, want ErrAllSourcesFailed", err)
	}
}
