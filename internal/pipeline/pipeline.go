// Package pipeline wires sources, the normalizer and the context builder into
// a single run.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/setevik/remindctx/internal/event"
	"github.com/setevik/remindctx/internal/normalizer"
	"github.com/setevik/remindctx/internal/snapshot"
	"github.com/setevik/remindctx/internal/source"
)

// DefaultHorizonDays is how far ahead sources are queried when unset.
const DefaultHorizonDays = 7

// Result is the output of one run.
type Result struct {
	Fetched int
	Events  []event.Event
	Context *snapshot.Context
}

// Pipeline collects raw events and derives a Context from them.
type Pipeline struct {
	Sources     []source.Source
	Normalizer  *normalizer.Normalizer
	Builder     *snapshot.Builder
	HorizonDays int

	now func() time.Time
}

// New creates a Pipeline. Nil normalizer or builder get defaults.
func New(sources []source.Source, n *normalizer.Normalizer, b *snapshot.Builder, horizonDays int) *Pipeline {
	if n == nil {
		n = normalizer.New(nil, nil)
	}
	if b == nil {
		b = snapshot.NewBuilder(snapshot.DefaultOptions())
	}
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	return &Pipeline{
		Sources:     sources,
		Normalizer:  n,
		Builder:     b,
		HorizonDays: horizonDays,
		now:         time.Now,
	}
}

// Range returns the query range for a run at now: from the start of the
// local day through the end of the horizon.
func (p *Pipeline) Range(now time.Time) (from, to time.Time) {
	local := now.In(p.Normalizer.Location())
	from = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())
	to = from.AddDate(0, 0, p.HorizonDays+1)
	return from, to
}

// Run fetches every source and analyzes the combined events.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	now := p.now().In(p.Normalizer.Location())
	from, to := p.Range(now)

	raws, err := source.Collect(ctx, p.Sources, from, to)
	if err != nil {
		return nil, fmt.Errorf("collecting events: %w", err)
	}

	res := p.Analyze(raws, now)
	slog.Info("pipeline run complete",
		"fetched", res.Fetched,
		"upcoming", res.Context.TotalUpcoming,
		"high_priority", res.Context.HighPriorityCount,
		"conflicts", len(res.Context.Conflicts),
	)
	return res, nil
}

// Analyze normalizes raws, orders them by start and builds the Context.
func (p *Pipeline) Analyze(raws []event.RawEvent, now time.Time) *Result {
	events := p.Normalizer.Normalize(raws, now)
	event.SortByStart(events)
	return &Result{
		Fetched: len(raws),
		Events:  events,
		Context: p.Builder.Build(events, now),
	}
}
