package reporter

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/setevik/remindctx/internal/config"
	"github.com/setevik/remindctx/internal/snapshot"
)

// NtfyReporter pushes briefings to an ntfy server.
type NtfyReporter struct {
	cfg    *config.Config
	client *http.Client
}

// NewNtfy creates a new NtfyReporter.
func NewNtfy(cfg *config.Config) *NtfyReporter {
	return &NtfyReporter{
		cfg: cfg,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Report sends a briefing notification. It is a no-op when no ntfy URL is
// configured.
func (r *NtfyReporter) Report(ctx context.Context, c *snapshot.Context) error {
	if r.cfg.Ntfy.URL == "" {
		slog.Debug("ntfy URL not configured, skipping notification")
		return nil
	}

	top := HighestPriority(c)
	title := FormatTitle(c)
	body := FormatBody(c)
	priority := r.cfg.NtfyPriority(string(top))
	tags := TagsForPriority(top)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.Ntfy.URL, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating ntfy request: %w", err)
	}

	req.Header.Set("Title", title)
	req.Header.Set("Priority", priority)
	req.Header.Set("Tags", tags)

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ntfy returned status %d", resp.StatusCode)
	}

	slog.Info("notification sent", "upcoming", c.TotalUpcoming, "priority", priority)
	return nil
}
