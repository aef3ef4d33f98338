package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/setevik/remindctx/internal/event"
)

// GoogleAuth locates the OAuth client and a previously issued token.
type GoogleAuth struct {
	ClientID        string
	ClientSecret    string
	CredentialsFile string
	TokenFile       string
}

// GoogleSource lists events from one or more Google calendars.
type GoogleSource struct {
	CalendarIDs []string
	service     *calendar.Service
}

// NewGoogleSource builds an authenticated Calendar API client from auth.
func NewGoogleSource(ctx context.Context, auth GoogleAuth, calendarIDs []string) (*GoogleSource, error) {
	config, err := oauthConfig(auth)
	if err != nil {
		return nil, fmt.Errorf("loading oauth config: %w", err)
	}

	token, err := tokenFromFile(auth.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("loading token %s: %w", auth.TokenFile, err)
	}

	return newGoogleSource(ctx, calendarIDs, option.WithHTTPClient(config.Client(ctx, token)))
}

func newGoogleSource(ctx context.Context, calendarIDs []string, opts ...option.ClientOption) (*GoogleSource, error) {
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating calendar service: %w", err)
	}
	if len(calendarIDs) == 0 {
		calendarIDs = []string{"primary"}
	}
	return &GoogleSource{CalendarIDs: calendarIDs, service: svc}, nil
}

func (g *GoogleSource) Name() string { return "google" }

// Fetch lists single (expanded) events ordered by start time for each calendar.
func (g *GoogleSource) Fetch(ctx context.Context, from, to time.Time) ([]event.RawEvent, error) {
	var out []event.RawEvent
	for _, id := range g.CalendarIDs {
		call := g.service.Events.List(id).
			ShowDeleted(false).
			SingleEvents(true).
			TimeMin(from.Format(time.RFC3339)).
			TimeMax(to.Format(time.RFC3339)).
			OrderBy("startTime")

		n := 0
		err := call.Pages(ctx, func(page *calendar.Events) error {
			raws := fromGoogle(page.Items)
			n += len(raws)
			out = append(out, raws...)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("listing events for %s: %w", id, err)
		}
		slog.Debug("google calendar fetched", "calendar", id, "events", n)
	}
	return out, nil
}

func fromGoogle(items []*calendar.Event) []event.RawEvent {
	raws := make([]event.RawEvent, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		raws = append(raws, event.RawEvent{
			ID:          item.Id,
			Summary:     item.Summary,
			Start:       googleTime(item.Start),
			End:         googleTime(item.End),
			Description: item.Description,
			Location:    item.Location,
		})
	}
	return raws
}

func googleTime(t *calendar.EventDateTime) event.TimeSpec {
	if t == nil {
		return event.TimeSpec{}
	}
	return event.TimeSpec{DateTime: t.DateTime, Date: t.Date}
}

// oauthConfig prefers an explicit client ID and secret over a credentials file.
func oauthConfig(auth GoogleAuth) (*oauth2.Config, error) {
	if auth.ClientID != "" && auth.ClientSecret != "" {
		return &oauth2.Config{
			ClientID:     auth.ClientID,
			ClientSecret: auth.ClientSecret,
			RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
			Scopes:       []string{calendar.CalendarReadonlyScope},
			Endpoint:     google.Endpoint,
		}, nil
	}

	b, err := os.ReadFile(auth.CredentialsFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s not found; set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET or provide a credentials file", auth.CredentialsFile)
		}
		return nil, fmt.Errorf("reading client secret file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, calendar.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parsing client secret file: %w", err)
	}
	return config, nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, err
	}
	return tok, nil
}
