package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"

	"github.com/setevik/remindctx/internal/event"
	"github.com/setevik/remindctx/internal/format"
	"github.com/setevik/remindctx/internal/memory"
	"github.com/setevik/remindctx/internal/pipeline"
	"github.com/setevik/remindctx/internal/reporter"
)

// --- run ---

type runOptions struct {
	json     bool
	notify   bool
	noMemory bool
	files    []string
}

func (a *app) runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Build and print a briefing from the configured sources.",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "print the context and events as JSON"},
			&cli.BoolFlag{Name: "notify", Usage: "push the briefing via ntfy"},
			&cli.BoolFlag{Name: "no-memory", Usage: "do not read or write the memory database"},
			&cli.StringSliceFlag{Name: "file", Aliases: []string{"f"}, Usage: "extra JSON/YAML event file (repeatable)"},
		},
		Action: func(c *cli.Context) error {
			return a.runOnce(c.Context, runOptions{
				json:     c.Bool("json"),
				notify:   c.Bool("notify"),
				noMemory: c.Bool("no-memory"),
				files:    c.StringSlice("file"),
			})
		},
	}
}

func (a *app) runOnce(ctx context.Context, opts runOptions) error {
	res, err := a.pipeline(ctx, opts.files).Run(ctx)
	if err != nil {
		return err
	}

	var profile *memory.Profile
	if !opts.noMemory {
		profile, err = a.remember(res)
		if err != nil {
			slog.Warn("memory update failed", "error", err)
		}
	}

	if opts.json {
		h := reporter.Handoff{Context: res.Context, Events: res.Events, Profile: profile}
		if err := reporter.WriteJSON(os.Stdout, h); err != nil {
			return err
		}
	} else {
		fmt.Print(reporter.FormatBriefing(res.Context, res.Events))
	}

	if opts.notify {
		if a.cfg.Ntfy.URL == "" {
			return errors.New("ntfy.url not configured")
		}
		if err := reporter.NewNtfy(a.cfg).Report(ctx, res.Context); err != nil {
			return err
		}
	}
	return nil
}

// remember records the briefing, purges old ones and returns the profile.
func (a *app) remember(res *pipeline.Result) (*memory.Profile, error) {
	db, err := a.openStore()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	id, err := db.RecordBriefing(res.Context.TotalUpcoming, res.Context.TimelineSummary)
	if err != nil {
		return nil, err
	}
	slog.Debug("briefing recorded", "id", id)

	if retention := a.cfg.DB.Retention.Duration; retention > 0 {
		purged, err := db.PurgeBriefings(retention)
		if err != nil {
			slog.Warn("failed to purge old briefings", "error", err)
		} else if purged > 0 {
			slog.Info("purged old briefings", "count", purged, "retention", retention)
		}
	}

	return db.Profile()
}

// --- watch ---

func (a *app) watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Run the briefing on the configured cron schedule.",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "now", Usage: "also run once immediately"},
			&cli.BoolFlag{Name: "no-notify", Usage: "print only, do not push via ntfy"},
		},
		Action: func(c *cli.Context) error {
			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			opts := runOptions{notify: !c.Bool("no-notify") && a.cfg.Ntfy.URL != ""}
			tick := func() {
				if err := a.runOnce(ctx, opts); err != nil {
					slog.Error("scheduled briefing failed", "error", err)
				}
			}

			sched := cron.New(cron.WithLocation(a.loc))
			if _, err := sched.AddFunc(a.cfg.Schedule.Cron, tick); err != nil {
				return fmt.Errorf("scheduling %q: %w", a.cfg.Schedule.Cron, err)
			}
			sched.Start()
			slog.Info("watch started", "cron", a.cfg.Schedule.Cron, "timezone", a.loc, "notify", opts.notify)

			if c.Bool("now") {
				tick()
			}

			sdNotify("READY=1")

			var watchdog <-chan time.Time
			if wd := watchdogInterval(); wd > 0 {
				// Ping at half the watchdog interval.
				t := time.NewTicker(wd / 2)
				defer t.Stop()
				watchdog = t.C
				slog.Info("systemd watchdog enabled", "interval", wd)
			}

			for {
				select {
				case <-watchdog:
					sdNotify("WATCHDOG=1")
				case <-ctx.Done():
					slog.Info("shutting down")
					sdNotify("STOPPING=1")
					<-sched.Stop().Done()
					return nil
				}
			}
		},
	}
}

// --- memory writes ---

func parseType(s string) (event.Type, error) {
	t := event.Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.Known() {
		return "", fmt.Errorf("unknown event type %q", s)
	}
	return t, nil
}

func (a *app) completeCommand() *cli.Command {
	return &cli.Command{
		Name:  "complete",
		Usage: "Record a completed event.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Required: true},
			&cli.StringFlag{Name: "type", Value: string(event.TypeUnknown)},
			&cli.IntFlag{Name: "days", Usage: "days taken to complete"},
		},
		Action: func(c *cli.Context) error {
			t, err := parseType(c.String("type"))
			if err != nil {
				return err
			}
			if c.Int("days") < 0 {
				return errors.New("--days must not be negative")
			}

			db, err := a.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.RecordCompleted(c.String("title"), t, c.Int("days")); err != nil {
				return err
			}
			fmt.Printf("Recorded completion: %s (%s)\n", c.String("title"), t.Label())
			return nil
		},
	}
}

func (a *app) ignoreCommand() *cli.Command {
	return &cli.Command{
		Name:      "ignore",
		Usage:     "Record that a reminder was dismissed.",
		ArgsUsage: "<reminder text>",
		Action: func(c *cli.Context) error {
			text := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if text == "" {
				return errors.New("reminder text is required")
			}

			db, err := a.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.RecordIgnored(text); err != nil {
				return err
			}
			fmt.Printf("Recorded ignored reminder: %s\n", text)
			return nil
		},
	}
}

func (a *app) productivityCommand() *cli.Command {
	return &cli.Command{
		Name:  "productivity",
		Usage: "Record a productivity score for an hour of day.",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "hour", Required: true, Usage: "hour of day, 0-23"},
			&cli.StringFlag{Name: "type", Value: string(event.TypeUnknown)},
			&cli.Float64Flag{Name: "score", Required: true},
		},
		Action: func(c *cli.Context) error {
			t, err := parseType(c.String("type"))
			if err != nil {
				return err
			}

			db, err := a.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.RecordProductivity(c.Int("hour"), t, c.Float64("score")); err != nil {
				return err
			}
			agg, _, err := db.Productivity(c.Int("hour"), t)
			if err != nil {
				return err
			}
			fmt.Printf("%02d:00 %s: mean %.2f over %d samples\n", c.Int("hour"), t.Label(), agg.Mean, agg.Count)
			return nil
		},
	}
}

// --- memory reads ---

func (a *app) profileCommand() *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Show the aggregated user profile.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "export", Usage: "write the profile as JSON to this file"},
		},
		Action: func(c *cli.Context) error {
			db, err := a.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			p, err := db.Profile()
			if err != nil {
				return err
			}

			if path := c.String("export"); path != "" {
				if err := memory.ExportProfile(path, p); err != nil {
					return err
				}
				fmt.Printf("Profile exported to %s\n", path)
				return nil
			}

			printProfile(p)
			return nil
		},
	}
}

func printProfile(p *memory.Profile) {
	fmt.Printf("Events completed:   %d\n", p.EventsCompleted)
	fmt.Printf("Avg days to finish: %.1f\n", p.AverageDaysToComplete)

	if len(p.TypeDistribution) > 0 {
		fmt.Println("\nBy type:")
		for _, t := range event.Types {
			if n := p.TypeDistribution[t]; n > 0 {
				fmt.Printf("  %-10s %d\n", t.Label(), n)
			}
		}
	}

	if len(p.FrequentlyIgnored) > 0 {
		fmt.Println("\nFrequently ignored:")
		for _, r := range p.FrequentlyIgnored {
			fmt.Printf("  %-30s ×%d\n", r.Text, r.Count)
		}
	}

	if len(p.PeakProductivityHours) > 0 {
		fmt.Println("\nPeak hours:")
		for _, h := range p.PeakProductivityHours {
			fmt.Printf("  %02d:00 %-10s %.2f (%d samples)\n", h.Hour, h.Type.Label(), h.Score, h.Count)
		}
	}
}

func (a *app) historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recent briefings.",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Value: 10},
		},
		Action: func(c *cli.Context) error {
			db, err := a.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			briefings, err := db.Briefings(c.Int("limit"))
			if err != nil {
				return err
			}
			if len(briefings) == 0 {
				fmt.Println("No briefings recorded.")
				return nil
			}

			now := time.Now()
			for _, b := range briefings {
				age := format.Minutes(int(now.Sub(b.CreatedAt) / time.Minute))
				fmt.Printf("%s  %s ago  %d events  %s\n", b.ID, age, b.EventsAnalyzed, b.CreatedAt.In(a.loc).Format("2006-01-02 15:04"))
				if b.Feedback != "" {
					fmt.Printf("  feedback: %s\n", b.Feedback)
				}
			}
			return nil
		},
	}
}

func (a *app) feedbackCommand() *cli.Command {
	return &cli.Command{
		Name:      "feedback",
		Usage:     "Attach feedback to a recorded briefing.",
		ArgsUsage: "<briefing id> <text>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return errors.New("usage: feedback <briefing id> <text>")
			}

			db, err := a.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			return db.SetFeedback(c.Args().First(), strings.Join(c.Args().Tail(), " "))
		},
	}
}

// --- misc ---

func (a *app) testNtfyCommand() *cli.Command {
	return &cli.Command{
		Name:  "test-ntfy",
		Usage: "Send a sample briefing to verify ntfy settings.",
		Action: func(c *cli.Context) error {
			if a.cfg.Ntfy.URL == "" {
				return errors.New("ntfy.url not configured")
			}

			ctx, cancel := context.WithTimeout(c.Context, 15*time.Second)
			defer cancel()

			if err := reporter.NewNtfy(a.cfg).Report(ctx, reporter.SampleContext(time.Now().In(a.loc))); err != nil {
				return fmt.Errorf("sending test notification: %w", err)
			}
			fmt.Println("Test notification sent successfully.")
			return nil
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print the version.",
		Action: func(c *cli.Context) error {
			fmt.Println("remindctx", version)
			return nil
		},
	}
}
