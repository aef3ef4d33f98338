// Package config handles TOML configuration loading with sensible defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/robfig/cron/v3"

	"github.com/setevik/remindctx/internal/classifier"
	"github.com/setevik/remindctx/internal/event"
	"github.com/setevik/remindctx/internal/snapshot"
)

// Config is the top-level configuration for remindctx.
type Config struct {
	Timezone   string           `toml:"timezone"`
	Log        LogConfig        `toml:"log"`
	Analysis   AnalysisConfig   `toml:"analysis"`
	Categories []CategoryConfig `toml:"category"`
	DB         DBConfig         `toml:"db"`
	Ntfy       NtfyConfig       `toml:"ntfy"`
	Sources    SourcesConfig    `toml:"sources"`
	Schedule   ScheduleConfig   `toml:"schedule"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `toml:"level"`
}

// AnalysisConfig tunes the context builder.
type AnalysisConfig struct {
	WindowDays    int      `toml:"window_days"`
	MinFreeSlot   Duration `toml:"min_free_slot"`
	MaxFreeSlots  int      `toml:"max_free_slots"`
	TimelineLimit int      `toml:"timeline_limit"`
}

// CategoryConfig is one classification rule. Rules are matched in file order.
type CategoryConfig struct {
	Type     string   `toml:"type"`
	Keywords []string `toml:"keywords"`
}

// DBConfig locates the memory database.
type DBConfig struct {
	Path      string   `toml:"path"`
	Retention Duration `toml:"retention"`
}

// NtfyConfig controls the ntfy notification target.
type NtfyConfig struct {
	URL         string            `toml:"url"`
	PriorityMap map[string]string `toml:"priority_map"`
}

// SourcesConfig lists where calendar events come from.
type SourcesConfig struct {
	HorizonDays    int          `toml:"horizon_days"`
	MaxOccurrences int          `toml:"max_occurrences"`
	Files          []string     `toml:"files"`
	ICS            []string     `toml:"ics"`
	Google         GoogleConfig `toml:"google"`
	CalDAV         CalDAVConfig `toml:"caldav"`
}

// GoogleConfig enables the Google Calendar source.
type GoogleConfig struct {
	Enabled         bool     `toml:"enabled"`
	CalendarIDs     []string `toml:"calendar_ids"`
	ClientID        string   `toml:"client_id"`
	ClientSecret    string   `toml:"client_secret"`
	CredentialsFile string   `toml:"credentials_file"`
	TokenFile       string   `toml:"token_file"`
}

// CalDAVConfig enables the CalDAV source.
type CalDAVConfig struct {
	Enabled  bool   `toml:"enabled"`
	Endpoint string `toml:"endpoint"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	Calendar string `toml:"calendar"`
}

// ScheduleConfig drives watch mode.
type ScheduleConfig struct {
	Cron string `toml:"cron"`
}

// Duration wraps time.Duration for TOML string parsing (e.g. "5m", "1h").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Timezone: "UTC",
		Log: LogConfig{
			Level: "info",
		},
		Analysis: AnalysisConfig{
			WindowDays:    7,
			MinFreeSlot:   Duration{time.Hour},
			MaxFreeSlots:  3,
			TimelineLimit: 5,
		},
		DB: DBConfig{
			Retention: Duration{90 * 24 * time.Hour},
		},
		Ntfy: NtfyConfig{
			PriorityMap: map[string]string{
				"high":   "high",
				"medium": "default",
				"low":    "low",
			},
		},
		Sources: SourcesConfig{
			HorizonDays: 7,
			Google: GoogleConfig{
				CalendarIDs:     []string{"primary"},
				CredentialsFile: "credentials.json",
				TokenFile:       "token.json",
			},
		},
		Schedule: ScheduleConfig{
			Cron: "0 7 * * *",
		},
	}
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(configDir, "remindctx", "config.toml")
}

// Load reads configuration from the given path, falling back to defaults
// for any unset fields. If the file does not exist, returns defaults.
// Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}

// ApplyEnv overrides secrets and a few common settings from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.Timezone, "REMINDCTX_TIMEZONE")
	set(&c.Log.Level, "LOG_LEVEL")
	set(&c.Ntfy.URL, "REMINDCTX_NTFY_URL")
	set(&c.Sources.Google.ClientID, "GOOGLE_CLIENT_ID")
	set(&c.Sources.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")
	set(&c.Sources.CalDAV.Password, "CALDAV_PASSWORD")
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}

	for i, cat := range c.Categories {
		t := event.Type(cat.Type)
		if !t.Known() || t == event.TypeUnknown {
			errs = append(errs, fmt.Errorf("category %d: unknown type %q", i+1, cat.Type))
		}
		if len(cat.Keywords) == 0 {
			errs = append(errs, fmt.Errorf("category %d (%s): no keywords", i+1, cat.Type))
		}
	}

	a := c.Analysis
	if a.WindowDays < 0 || a.MaxFreeSlots < 0 || a.TimelineLimit < 0 || a.MinFreeSlot.Duration < 0 {
		errs = append(errs, errors.New("analysis settings must not be negative"))
	}
	if c.Sources.HorizonDays < 0 {
		errs = append(errs, errors.New("sources.horizon_days must not be negative"))
	}

	if c.Schedule.Cron != "" {
		if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
			errs = append(errs, fmt.Errorf("schedule.cron: %w", err))
		}
	}

	if c.Sources.CalDAV.Enabled && (c.Sources.CalDAV.Endpoint == "" || c.Sources.CalDAV.Calendar == "") {
		errs = append(errs, errors.New("sources.caldav needs endpoint and calendar"))
	}

	return errors.Join(errs...)
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Rules returns the classification rules, or nil to use the built-in table.
func (c *Config) Rules() []classifier.Rule {
	if len(c.Categories) == 0 {
		return nil
	}
	rules := make([]classifier.Rule, 0, len(c.Categories))
	for _, cat := range c.Categories {
		rules = append(rules, classifier.Rule{Type: event.Type(cat.Type), Keywords: cat.Keywords})
	}
	return rules
}

// SnapshotOptions converts the analysis section for the context builder.
func (c *Config) SnapshotOptions() snapshot.Options {
	return snapshot.Options{
		WindowDays:    c.Analysis.WindowDays,
		MinFreeSlot:   c.Analysis.MinFreeSlot.Duration,
		MaxFreeSlots:  c.Analysis.MaxFreeSlots,
		TimelineLimit: c.Analysis.TimelineLimit,
	}
}

// DBPath returns the memory database path, expanding a leading "~/". An
// empty path resolves under XDG_DATA_HOME.
func (c *Config) DBPath() string {
	p := c.DB.Path
	if p == "" {
		dataHome := os.Getenv("XDG_DATA_HOME")
		if dataHome == "" {
			home, _ := os.UserHomeDir()
			dataHome = filepath.Join(home, ".local", "share")
		}
		return filepath.Join(dataHome, "remindctx", "memory.db")
	}
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, p[2:])
		}
	}
	return p
}

// NtfyPriority maps an event priority to an ntfy priority string.
func (c *Config) NtfyPriority(priority string) string {
	if p, ok := c.Ntfy.PriorityMap[priority]; ok {
		return p
	}
	return "default"
}
