package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/setevik/remindctx/internal/event"
)

// ICSSource reads an iCalendar feed from a local file or an http(s) URL.
type ICSSource struct {
	Target string
	// Zone resolves floating and all-day values. Nil means UTC.
	Zone           *time.Location
	MaxOccurrences int
	client         *http.Client
}

// NewICSSource creates a source for a file path or URL.
func NewICSSource(target string, zone *time.Location) *ICSSource {
	return &ICSSource{
		Target: target,
		Zone:   zone,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *ICSSource) Name() string { return "ics:" + redactURL(s.Target) }

// Fetch parses the feed and expands it into [from, to].
func (s *ICSSource) Fetch(ctx context.Context, from, to time.Time) ([]event.RawEvent, error) {
	body, err := s.read(ctx)
	if err != nil {
		return nil, err
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing calendar: %w", err)
	}

	var events []vevent
	for _, ve := range cal.Events() {
		events = append(events, fromArranEvent(ve, s.Zone))
	}
	slog.Debug("ics parsed", "source", s.Name(), "vevents", len(events))

	return expand(events, from, to, s.MaxOccurrences), nil
}

func (s *ICSSource) read(ctx context.Context) ([]byte, error) {
	if !strings.HasPrefix(s.Target, "http://") && !strings.HasPrefix(s.Target, "https://") {
		data, err := os.ReadFile(s.Target)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", s.Target, err)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	client := s.client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func fromArranEvent(ve *ical.VEvent, zone *time.Location) vevent {
	var v vevent
	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		v.uid = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		v.summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		v.description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		v.location = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		v.rrule = p.Value
	}

	if p := ve.GetProperty(ical.ComponentPropertyDtStart); p != nil {
		v.start = arranTime(v.uid, p.Value, p.ICalParameters, zone)
	}
	if p := ve.GetProperty(ical.ComponentPropertyDtEnd); p != nil {
		v.end = arranTime(v.uid, p.Value, p.ICalParameters, zone)
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		tzid, dateOnly := icsParams(p.ICalParameters)
		for _, part := range strings.Split(p.Value, ",") {
			if it, err := parseICSTime(part, tzid, dateOnly, zone); err == nil {
				v.exdates = append(v.exdates, it.t)
			}
		}
	}
	return v
}

func arranTime(uid, value string, params map[string][]string, zone *time.Location) icsTime {
	tzid, dateOnly := icsParams(params)
	it, err := parseICSTime(value, tzid, dateOnly, zone)
	if err != nil {
		slog.Debug("unparsable ics time", "uid", uid, "value", value, "error", err)
		return icsTime{}
	}
	return it
}

// icsParams extracts TZID and whether VALUE=DATE from property parameters.
func icsParams(params map[string][]string) (tzid string, dateOnly bool) {
	if vs := params["TZID"]; len(vs) > 0 {
		tzid = vs[0]
	}
	if vs := params["VALUE"]; len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		dateOnly = true
	}
	return tzid, dateOnly
}

// redactURL drops credentials and query strings from feed URLs before logging.
func redactURL(target string) string {
	if i := strings.Index(target, "?"); i >= 0 {
		target = target[:i]
	}
	if i := strings.Index(target, "://"); i >= 0 {
		if at := strings.LastIndex(target, "@"); at > i {
			target = target[:i+3] + target[at+1:]
		}
	}
	return target
}
