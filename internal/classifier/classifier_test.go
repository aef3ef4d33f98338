package classifier

import (
	"testing"

	"github.com/setevik/remindctx/internal/event"
)

func TestClassifyDefaultRules(t *testing.T) {
	c := New(nil)

	tests := []struct {
		name     string
		title    string
		typ      event.Type
		priority event.Priority
	}{
		{name: "exam", title: "Physics Exam", typ: event.TypeExam, priority: event.PriorityHigh},
		{name: "standup", title: "Team Standup", typ: event.TypeMeeting, priority: event.PriorityMedium},
		{name: "no match", title: "Dentist", typ: event.TypeUnknown, priority: event.PriorityLow},
		{name: "deadline", title: "Submit thesis draft", typ: event.TypeDeadline, priority: event.PriorityHigh},
		{name: "personal", title: "Mom's Birthday", typ: event.TypePersonal, priority: event.PriorityLow},
		{name: "travel", title: "Flight to Lisbon", typ: event.TypeTravel, priority: event.PriorityLow},
		{name: "case insensitive", title: "QUIZ 3", typ: event.TypeExam, priority: event.PriorityHigh},
		{name: "substring", title: "Contest prep", typ: event.TypeExam, priority: event.PriorityHigh},
		{name: "empty title", title: "", typ: event.TypeUnknown, priority: event.PriorityLow},
		// "call" (meeting) and "due" (deadline): the earlier rule wins.
		{name: "earlier rule wins", title: "Call about overdue invoice", typ: event.TypeMeeting, priority: event.PriorityMedium},
		// "test" (exam) beats "drive" (travel).
		{name: "exam beats travel", title: "Driving test", typ: event.TypeExam, priority: event.PriorityHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ := c.Classify(tt.title)
			if typ != tt.typ {
				t.Errorf("Classify(%q) = %q, want %q", tt.title, typ, tt.typ)
			}
			if p := PriorityFor(typ); p != tt.priority {
				t.Errorf("PriorityFor(%q) = %q, want %q", typ, p, tt.priority)
			}
		})
	}
}

func TestClassifyCustomRules(t *testing.T) {
	c := New([]Rule{
		{Type: event.TypeTravel, Keywords: []string{"  Trip ", ""}},
		{Type: event.TypeExam, Keywords: []string{"trip"}},
	})

	if got := c.Classify("Field trip"); got != event.TypeTravel {
		t.Errorf("Classify = %q, want %q", got, event.TypeTravel)
	}
	if got := c.Classify("Physics exam"); got != event.TypeUnknown {
		t.Errorf("custom rules should replace defaults, got %q", got)
	}

	rules := c.Rules()
	if len(rules[0].Keywords) != 1 || rules[0].Keywords[0] != "trip" {
		t.Errorf("keywords not normalized: %v", rules[0].Keywords)
	}
}

func TestPriorityFor(t *testing.T) {
	tests := []struct {
		typ  event.Type
		want event.Priority
	}{
		{event.TypeExam, event.PriorityHigh},
		{event.TypeDeadline, event.PriorityHigh},
		{event.TypeMeeting, event.PriorityMedium},
		{event.TypePersonal, event.PriorityLow},
		{event.TypeTravel, event.PriorityLow},
		{event.TypeUnknown, event.PriorityLow},
		{event.Type("bogus"), event.PriorityLow},
	}

	for _, tt := range tests {
		if got := PriorityFor(tt.typ); got != tt.want {
			t.Errorf("PriorityFor(%q) = %q, want %q", tt.typ, got, tt.want)
		}
	}
}
