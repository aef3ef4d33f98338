package classifier

import "github.com/setevik/remindctx/internal/event"

// Rule maps a set of title keywords to an event type.
type Rule struct {
	Type     event.Type
	Keywords []string
}

// DefaultRules is the built-in keyword table, in match order. A title that
// matches several rules gets the type of the earliest one.
func DefaultRules() []Rule {
	return []Rule{
		{Type: event.TypeExam, Keywords: []string{"exam", "test", "quiz", "assessment"}},
		{Type: event.TypeMeeting, Keywords: []string{"meeting", "call", "standup", "sync", "conference"}},
		{Type: event.TypeDeadline, Keywords: []string{"deadline", "due", "submit", "finish"}},
		{Type: event.TypePersonal, Keywords: []string{"personal", "birthday", "appointment"}},
		{Type: event.TypeTravel, Keywords: []string{"travel", "flight", "trip", "drive"}},
	}
}

// priorityByType holds the types that rank above low.
var priorityByType = map[event.Type]event.Priority{
	event.TypeExam:     event.PriorityHigh,
	event.TypeDeadline: event.PriorityHigh,
	event.TypeMeeting:  event.PriorityMedium,
}
