package event

import (
	"testing"
	"time"
)

func TestTypeLabel(t *testing.T) {
	tests := []struct {
		typ   Type
		label string
	}{
		{TypeExam, "Exam"},
		{TypeMeeting, "Meeting"},
		{TypeDeadline, "Deadline"},
		{TypePersonal, "Personal"},
		{TypeTravel, "Travel"},
		{TypeUnknown, "Other"},
		{Type("chore"), "chore"},
	}

	for _, tt := range tests {
		got := tt.typ.Label()
		if got != tt.label {
			t.Errorf("Type(%q).Label() = %q, want %q", tt.typ, got, tt.label)
		}
	}
}

func TestTypeKnown(t *testing.T) {
	for _, typ := range Types {
		if !typ.Known() {
			t.Errorf("%q should be known", typ)
		}
	}
	if Type("chore").Known() {
		t.Error("chore should not be known")
	}
}

func TestPriorityGlyph(t *testing.T) {
	tests := []struct {
		p     Priority
		glyph string
	}{
		{PriorityHigh, "\U0001f534"},
		{PriorityMedium, "\U0001f7e1"},
		{PriorityLow, "\U0001f7e2"},
		{Priority(""), "\U0001f7e2"},
	}

	for _, tt := range tests {
		if got := tt.p.Glyph(); got != tt.glyph {
			t.Errorf("Priority(%q).Glyph() = %q, want %q", tt.p, got, tt.glyph)
		}
	}
}

func TestPriorityRank(t *testing.T) {
	if !(PriorityHigh.Rank() > PriorityMedium.Rank() && PriorityMedium.Rank() > PriorityLow.Rank()) {
		t.Error("ranks should order high > medium > low")
	}
}

func TestEventPresence(t *testing.T) {
	var ev Event
	if ev.HasStart() || ev.Timed() {
		t.Error("zero event should have no start and not be timed")
	}
	if _, ok := ev.Days(); ok {
		t.Error("zero event should have no days left")
	}

	n := 4
	ev.Start = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	ev.DaysLeft = &n
	if !ev.HasStart() {
		t.Error("event with start should report HasStart")
	}
	if ev.Timed() {
		t.Error("event without end should not be timed")
	}
	if d, ok := ev.Days(); !ok || d != 4 {
		t.Errorf("Days() = %d, %v, want 4, true", d, ok)
	}
}

func TestSortByStart(t *testing.T) {
	at := func(h int) time.Time { return time.Date(2024, 6, 1, h, 0, 0, 0, time.UTC) }
	events := []Event{
		{Title: "none-a"},
		{Title: "late", Start: at(15)},
		{Title: "early", Start: at(8)},
		{Title: "none-b"},
		{Title: "early-twin", Start: at(8)},
	}

	SortByStart(events)

	want := []string{"early", "early-twin", "late", "none-a", "none-b"}
	for i, w := range want {
		if events[i].Title != w {
			t.Errorf("events[%d] = %q, want %q", i, events[i].Title, w)
		}
	}
}

func TestTimeSpecIsZero(t *testing.T) {
	if !(TimeSpec{}).IsZero() {
		t.Error("empty spec should be zero")
	}
	if (TimeSpec{Date: "2024-06-01"}).IsZero() {
		t.Error("date spec should not be zero")
	}
}
