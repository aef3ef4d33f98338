package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"

	"github.com/setevik/remindctx/internal/event"
)

// basicAuthTransport adds Basic Auth and a User-Agent to each request.
type basicAuthTransport struct {
	username  string
	password  string
	transport http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.username != "" {
		req.SetBasicAuth(t.username, t.password)
	}
	req.Header.Set("User-Agent", "remindctx/1.0")
	return t.transport.RoundTrip(req)
}

// CalDAVSource queries one calendar on a CalDAV server.
type CalDAVSource struct {
	Endpoint string
	Calendar string
	Zone     *time.Location

	MaxOccurrences int

	client *caldav.Client
	path   string
}

// NewCalDAVSource creates a client for endpoint authenticated with basic auth.
// The calendar is located by display name on first fetch.
func NewCalDAVSource(endpoint, username, password, calendarName string, zone *time.Location) (*CalDAVSource, error) {
	httpClient := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &basicAuthTransport{
			username:  username,
			password:  password,
			transport: http.DefaultTransport,
		},
	}

	client, err := caldav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("creating caldav client: %w", err)
	}

	return &CalDAVSource{
		Endpoint: endpoint,
		Calendar: calendarName,
		Zone:     zone,
		client:   client,
	}, nil
}

func (s *CalDAVSource) Name() string { return "caldav:" + s.Calendar }

// Fetch runs a calendar query restricted to [from, to].
func (s *CalDAVSource) Fetch(ctx context.Context, from, to time.Time) ([]event.RawEvent, error) {
	if s.path == "" {
		path, err := s.findCalendar(ctx)
		if err != nil {
			return nil, err
		}
		s.path = path
		slog.Info("caldav calendar found", "calendar", s.Calendar, "path", path)
	}

	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name:     ical.CompCalendar,
			AllProps: true,
			AllComps: true,
		},
		CompFilter: caldav.CompFilter{
			Name: ical.CompCalendar,
			Comps: []caldav.CompFilter{{
				Name:  ical.CompEvent,
				Start: from.UTC(),
				End:   to.UTC(),
			}},
		},
	}

	objects, err := s.client.QueryCalendar(ctx, s.path, query)
	if err != nil {
		return nil, fmt.Errorf("querying calendar: %w", err)
	}

	var events []vevent
	for _, obj := range objects {
		if obj.Data == nil {
			continue
		}
		for _, ev := range obj.Data.Events() {
			events = append(events, fromEmersionEvent(ev.Component, s.Zone))
		}
	}
	slog.Debug("caldav query done", "calendar", s.Calendar, "objects", len(objects), "vevents", len(events))

	return expand(events, from, to, s.MaxOccurrences), nil
}

func (s *CalDAVSource) findCalendar(ctx context.Context) (string, error) {
	principal, err := s.client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("finding principal: %w", err)
	}

	homeSet, err := s.client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return "", fmt.Errorf("finding calendar home set: %w", err)
	}

	calendars, err := s.client.FindCalendars(ctx, homeSet)
	if err != nil {
		return "", fmt.Errorf("listing calendars: %w", err)
	}

	for _, cal := range calendars {
		if cal.Name == s.Calendar {
			return cal.Path, nil
		}
	}
	return "", fmt.Errorf("no calendar named %q", s.Calendar)
}

func fromEmersionEvent(comp *ical.Component, zone *time.Location) vevent {
	var v vevent
	v.uid = emersionText(comp, ical.PropUID)
	v.summary = emersionText(comp, ical.PropSummary)
	v.description = emersionText(comp, ical.PropDescription)
	v.location = emersionText(comp, ical.PropLocation)
	if p := comp.Props.Get(ical.PropRecurrenceRule); p != nil {
		v.rrule = p.Value
	}

	if p := comp.Props.Get(ical.PropDateTimeStart); p != nil {
		v.start = emersionTime(v.uid, p, zone)
	}
	if p := comp.Props.Get(ical.PropDateTimeEnd); p != nil {
		v.end = emersionTime(v.uid, p, zone)
	}

	for _, p := range comp.Props[ical.PropExceptionDates] {
		tzid, dateOnly := icsParams(p.Params)
		for _, part := range strings.Split(p.Value, ",") {
			if it, err := parseICSTime(part, tzid, dateOnly, zone); err == nil {
				v.exdates = append(v.exdates, it.t)
			}
		}
	}
	return v
}

func emersionText(comp *ical.Component, name string) string {
	s, err := comp.Props.Text(name)
	if err != nil {
		slog.Debug("unreadable ics property", "property", name, "error", err)
		return ""
	}
	return s
}

func emersionTime(uid string, p *ical.Prop, zone *time.Location) icsTime {
	tzid, dateOnly := icsParams(p.Params)
	it, err := parseICSTime(p.Value, tzid, dateOnly, zone)
	if err != nil {
		slog.Debug("unparsable ics time", "uid", uid, "value", p.Value, "error", err)
		return icsTime{}
	}
	return it
}
