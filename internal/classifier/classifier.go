// Package classifier assigns event types and priorities from titles using an
// ordered keyword table.
package classifier

import (
	"strings"

	"github.com/setevik/remindctx/internal/event"
)

// Classifier matches event titles against an ordered rule list.
type Classifier struct {
	rules []Rule
}

// New creates a Classifier for the given rules. Keywords are lower-cased and
// blank ones dropped; rule order is kept. A nil or empty list falls back to
// DefaultRules.
func New(rules []Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules()
	}

	c := &Classifier{rules: make([]Rule, 0, len(rules))}
	for _, r := range rules {
		kws := make([]string, 0, len(r.Keywords))
		for _, kw := range r.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				kws = append(kws, kw)
			}
		}
		c.rules = append(c.rules, Rule{Type: r.Type, Keywords: kws})
	}
	return c
}

// Classify returns the type of the first rule with a keyword contained in the
// lower-cased title, or TypeUnknown if none match.
func (c *Classifier) Classify(title string) event.Type {
	lower := strings.ToLower(title)
	for _, r := range c.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(lower, kw) {
				return r.Type
			}
		}
	}
	return event.TypeUnknown
}

// Rules returns a copy of the normalized rule list.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// PriorityFor derives the priority of an event from its type alone.
func PriorityFor(t event.Type) event.Priority {
	if p, ok := priorityByType[t]; ok {
		return p
	}
	return event.PriorityLow
}
