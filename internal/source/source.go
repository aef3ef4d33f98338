// Package source fetches raw calendar records from files, ICS feeds, CalDAV
// servers and Google Calendar.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/setevik/remindctx/internal/event"
)

var (
	// ErrNoSources is returned by Collect when no source is configured.
	ErrNoSources = errors.New("no calendar sources configured")
	// ErrAllSourcesFailed is returned by Collect when every source errored.
	ErrAllSourcesFailed = errors.New("all calendar sources failed")
)

// Source produces raw events for the range [from, to]. Implementations may
// return records outside the range; the context builder windows them.
type Source interface {
	Name() string
	Fetch(ctx context.Context, from, to time.Time) ([]event.RawEvent, error)
}

// Collect fetches every source in order and concatenates the results. A
// failing source is logged and skipped.
func Collect(ctx context.Context, sources []Source, from, to time.Time) ([]event.RawEvent, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}

	var (
		out    []event.RawEvent
		failed int
		errs   []error
	)
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raws, err := src.Fetch(ctx, from, to)
		if err != nil {
			failed++
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			slog.Warn("calendar source failed", "source", src.Name(), "error", err)
			continue
		}
		slog.Debug("calendar source fetched", "source", src.Name(), "events", len(raws))
		out = append(out, raws...)
	}

	if failed == len(sources) {
		return nil, fmt.Errorf("%w: %w", ErrAllSourcesFailed, errors.Join(errs...))
	}
	return out, nil
}
