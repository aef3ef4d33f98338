package memory

import (
	"sort"
	"sync"

	"github.com/setevik/remindctx/internal/event"
)

type productivityKey struct {
	hour int
	typ  event.Type
}

type completion struct {
	title string
	typ   event.Type
	days  int
}

// InMemory is a Ledger kept in process memory. It is safe for concurrent use.
type InMemory struct {
	mu           sync.Mutex
	completed    []completion
	ignored      map[string]int
	productivity map[productivityKey]Aggregate
}

// NewInMemory creates an empty in-memory ledger.
func NewInMemory() *InMemory {
	return &InMemory{
		ignored:      make(map[string]int),
		productivity: make(map[productivityKey]Aggregate),
	}
}

// RecordCompleted appends a completion.
func (m *InMemory) RecordCompleted(title string, t event.Type, daysToComplete int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completed = append(m.completed, completion{title: title, typ: t, days: daysToComplete})
	return nil
}

// RecordIgnored bumps the dismissal count for text.
func (m *InMemory) RecordIgnored(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ignored[text]++
	return nil
}

// RecordProductivity folds score into the running mean for hour and type.
func (m *InMemory) RecordProductivity(hour int, t event.Type, score float64) error {
	if err := ValidHour(hour); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := productivityKey{hour: hour, typ: t}
	m.productivity[key] = m.productivity[key].Add(score)
	return nil
}

// Aggregate returns the productivity aggregate for one key.
func (m *InMemory) Aggregate(hour int, t event.Type) (Aggregate, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.productivity[productivityKey{hour: hour, typ: t}]
	return a, ok
}

// Profile summarizes the recorded completions, dismissals and scores.
func (m *InMemory) Profile() (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := &Profile{
		EventsCompleted:       len(m.completed),
		TypeDistribution:      make(map[event.Type]int),
		FrequentlyIgnored:     []IgnoredReminder{},
		PeakProductivityHours: []PeakHour{},
	}

	total := 0
	for _, c := range m.completed {
		p.TypeDistribution[c.typ]++
		total += c.days
	}
	if len(m.completed) > 0 {
		p.AverageDaysToComplete = RoundTenth(float64(total) / float64(len(m.completed)))
	}

	for text, count := range m.ignored {
		p.FrequentlyIgnored = append(p.FrequentlyIgnored, IgnoredReminder{Text: text, Count: count})
	}
	sort.Slice(p.FrequentlyIgnored, func(i, j int) bool {
		a, b := p.FrequentlyIgnored[i], p.FrequentlyIgnored[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Text < b.Text
	})
	if len(p.FrequentlyIgnored) > TopN {
		p.FrequentlyIgnored = p.FrequentlyIgnored[:TopN]
	}

	for k, a := range m.productivity {
		p.PeakProductivityHours = append(p.PeakProductivityHours, PeakHour{Hour: k.hour, Type: k.typ, Score: a.Mean, Count: a.Count})
	}
	sort.Slice(p.PeakProductivityHours, func(i, j int) bool {
		a, b := p.PeakProductivityHours[i], p.PeakProductivityHours[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Hour != b.Hour {
			return a.Hour < b.Hour
		}
		return a.Type < b.Type
	})
	if len(p.PeakProductivityHours) > TopN {
		p.PeakProductivityHours = p.PeakProductivityHours[:TopN]
	}

	return p, nil
}
