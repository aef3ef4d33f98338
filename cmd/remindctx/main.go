// remindctx collects upcoming calendar events, derives a situational briefing
// (counts, busiest day, free time, conflicts, prioritized timeline) and keeps a
// small memory of what the user completes, ignores and when they work best.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/setevik/remindctx/internal/classifier"
	"github.com/setevik/remindctx/internal/config"
	"github.com/setevik/remindctx/internal/normalizer"
	"github.com/setevik/remindctx/internal/pipeline"
	"github.com/setevik/remindctx/internal/snapshot"
	"github.com/setevik/remindctx/internal/source"
	"github.com/setevik/remindctx/internal/store"
)

var version = "dev"

// app carries state shared by every command, filled in by the Before hook.
type app struct {
	cfg *config.Config
	loc *time.Location
}

func main() {
	// Load .env first so it can feed config overrides; a missing file is fine.
	_ = godotenv.Load()

	a := &app{}
	cliApp := &cli.App{
		Name:    "remindctx",
		Usage:   "Turn upcoming calendar events into a prioritized briefing.",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "path to config file", EnvVars: []string{"REMINDCTX_CONFIG"}},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error (overrides config)"},
		},
		Before:         a.before,
		DefaultCommand: "run",
		Commands: []*cli.Command{
			a.runCommand(),
			a.watchCommand(),
			a.completeCommand(),
			a.ignoreCommand(),
			a.productivityCommand(),
			a.profileCommand(),
			a.historyCommand(),
			a.feedbackCommand(),
			a.testNtfyCommand(),
			versionCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		slog.Error("remindctx failed", "error", err)
		os.Exit(1)
	}
}

func (a *app) before(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	setupLogging(cfg.Log.Level)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.loc = loc
	return nil
}

// pipeline assembles sources and the analysis stages from config. extraFiles
// are appended as file sources.
func (a *app) pipeline(ctx context.Context, extraFiles []string) *pipeline.Pipeline {
	sources := a.sources(ctx, extraFiles)
	n := normalizer.New(a.loc, classifier.New(a.cfg.Rules()))
	b := snapshot.NewBuilder(a.cfg.SnapshotOptions())
	return pipeline.New(sources, n, b, a.cfg.Sources.HorizonDays)
}

func (a *app) sources(ctx context.Context, extraFiles []string) []source.Source {
	sc := a.cfg.Sources
	var out []source.Source

	for _, f := range append(append([]string{}, sc.Files...), extraFiles...) {
		out = append(out, source.NewFileSource(f))
	}

	for _, target := range sc.ICS {
		s := source.NewICSSource(target, a.loc)
		s.MaxOccurrences = sc.MaxOccurrences
		out = append(out, s)
	}

	if sc.Google.Enabled {
		g, err := source.NewGoogleSource(ctx, source.GoogleAuth{
			ClientID:        sc.Google.ClientID,
			ClientSecret:    sc.Google.ClientSecret,
			CredentialsFile: sc.Google.CredentialsFile,
			TokenFile:       sc.Google.TokenFile,
		}, sc.Google.CalendarIDs)
		if err != nil {
			slog.Warn("google calendar source disabled", "error", err)
		} else {
			out = append(out, g)
		}
	}

	if sc.CalDAV.Enabled {
		s, err := source.NewCalDAVSource(sc.CalDAV.Endpoint, sc.CalDAV.Username, sc.CalDAV.Password, sc.CalDAV.Calendar, a.loc)
		if err != nil {
			slog.Warn("caldav source disabled", "error", err)
		} else {
			s.MaxOccurrences = sc.MaxOccurrences
			out = append(out, s)
		}
	}

	slog.Debug("sources configured", "count", len(out))
	return out
}

func (a *app) openStore() (*store.DB, error) {
	db, err := store.Open(a.cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("opening memory database: %w", err)
	}
	slog.Debug("memory database opened", "path", a.cfg.DBPath())
	return db, nil
}

func setupLogging(level string) {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
