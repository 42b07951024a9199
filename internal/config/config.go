// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing or malformed, Load returns an
// error and the process exits.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the listings service.
type Config struct {
	// Dev relaxes production-only requirements (ingest secret, JSON logs).
	Dev bool `env:"DEV" envDefault:"false"`

	Port             string `env:"LISTINGS_PORT" envDefault:"8083"`
	DatabaseURL      string `env:"DATABASE_URL"`
	RedisURL         string `env:"REDIS_URL"`
	NATSURL          string `env:"NATS_URL"`
	NATSSubject      string `env:"NATS_SUBJECT" envDefault:"jobs.canonical"`
	NATSQueue        string `env:"NATS_QUEUE" envDefault:"listings-service"`
	OTELCollectorURL string `env:"OTEL_COLLECTOR_URL"`
	IngestSecret     string `env:"INGEST_SECRET"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`

	Schedule  ScheduleConfig
	Cleanup   CleanupConfig
	Dedup     DedupConfig
	LinkCheck LinkCheckConfig
	ApplyURL  ApplyURLConfig
	Sources   SourcesConfig
}

// ScheduleConfig holds the civil time of day each daily task fires at.
type ScheduleConfig struct {
	Timezone         string        `env:"SCHEDULE_TIMEZONE" envDefault:"Europe/London"`
	ScrapeAt         string        `env:"SCRAPE_AT" envDefault:"01:00"`
	ScrapeEnabled    bool          `env:"SCRAPE_ENABLED" envDefault:"false"`
	CleanupAt        string        `env:"CLEANUP_AT" envDefault:"02:00"`
	CleanupEnabled   bool          `env:"CLEANUP_ENABLED" envDefault:"true"`
	DedupAt          string        `env:"DEDUP_AT" envDefault:"02:10"`
	DedupEnabled     bool          `env:"DEDUP_ENABLED" envDefault:"true"`
	LinkCheckAt      string        `env:"LINKCHECK_AT" envDefault:"03:00"`
	LinkCheckEnabled bool          `env:"LINKCHECK_ENABLED" envDefault:"true"`
	LockTTL          time.Duration `env:"SCHEDULE_LOCK_TTL" envDefault:"2h"`
}

type CleanupConfig struct {
	GraceMonths int `env:"CLEANUP_GRACE_MONTHS" envDefault:"3"`
	PageSize    int `env:"CLEANUP_PAGE_SIZE" envDefault:"100"`
}

type DedupConfig struct {
	PageSize int `env:"DEDUP_PAGE_SIZE" envDefault:"500"`
}

type LinkCheckConfig struct {
	PageSize        int           `env:"LINKCHECK_PAGE_SIZE" envDefault:"100"`
	MaxPerRun       int           `env:"LINKCHECK_MAX_PER_RUN" envDefault:"500"`
	RecheckInterval time.Duration `env:"LINKCHECK_RECHECK_INTERVAL" envDefault:"24h"`
	Concurrency     int           `env:"LINKCHECK_CONCURRENCY" envDefault:"8"`
	Timeout         time.Duration `env:"LINKCHECK_TIMEOUT" envDefault:"10s"`
	MinSpacing      time.Duration `env:"LINKCHECK_MIN_SPACING" envDefault:"100ms"`
	UserAgent       string        `env:"LINKCHECK_USER_AGENT" envDefault:"JobMateLinkChecker/1.0 (+https://jobmate.app)"`
}

type ApplyURLConfig struct {
	Timeout      time.Duration `env:"APPLY_URL_TIMEOUT" envDefault:"5s"`
	MaxRedirects int           `env:"APPLY_URL_MAX_REDIRECTS" envDefault:"5"`
	CacheTTL     time.Duration `env:"APPLY_URL_CACHE_TTL" envDefault:"24h"`
}

// SourcesConfig lists the upstream boards the scrape task polls.
type SourcesConfig struct {
	AdzunaAppID      string   `env:"ADZUNA_APP_ID"`
	AdzunaAppKey     string   `env:"ADZUNA_APP_KEY"`
	AdzunaCountry    string   `env:"ADZUNA_COUNTRY" envDefault:"gb"`
	AdzunaQueries    []string `env:"ADZUNA_QUERIES" envDefault:"graduate,internship,placement"`
	AdzunaLocations  []string `env:"ADZUNA_LOCATIONS" envDefault:"UK"`
	GreenhouseBoards []string `env:"GREENHOUSE_BOARDS"`
	LeverCompanies   []string `env:"LEVER_COMPANIES"`
	RedFlags         []string `env:"SCRAPE_RED_FLAGS"`
	Concurrency      int      `env:"SCRAPE_CONCURRENCY" envDefault:"4"`
}

// Load reads an optional .env file and the process environment, and returns
// a validated Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required values and ranges.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("SCHEDULE_TIMEZONE %q: %w", c.Schedule.Timezone, err)
	}
	for name, at := range map[string]string{
		"SCRAPE_AT":    c.Schedule.ScrapeAt,
		"CLEANUP_AT":   c.Schedule.CleanupAt,
		"DEDUP_AT":     c.Schedule.DedupAt,
		"LINKCHECK_AT": c.Schedule.LinkCheckAt,
	} {
		if _, _, err := ParseClock(at); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	positive := []struct {
		name string
		v    int
	}{
		{"CLEANUP_GRACE_MONTHS", c.Cleanup.GraceMonths},
		{"CLEANUP_PAGE_SIZE", c.Cleanup.PageSize},
		{"DEDUP_PAGE_SIZE", c.Dedup.PageSize},
		{"LINKCHECK_PAGE_SIZE", c.LinkCheck.PageSize},
		{"LINKCHECK_MAX_PER_RUN", c.LinkCheck.MaxPerRun},
		{"LINKCHECK_CONCURRENCY", c.LinkCheck.Concurrency},
		{"APPLY_URL_MAX_REDIRECTS", c.ApplyURL.MaxRedirects},
		{"SCRAPE_CONCURRENCY", c.Sources.Concurrency},
	}
	for _, p := range positive {
		if p.v < 1 {
			return fmt.Errorf("%s must be a positive integer, got %d", p.name, p.v)
		}
	}
	if c.LinkCheck.Timeout <= 0 {
		return fmt.Errorf("LINKCHECK_TIMEOUT must be positive")
	}
	return nil
}

// ValidateServer adds the checks that only apply to the long-running
// service, not to one-off admin commands.
func (c *Config) ValidateServer() error {
	if c.IngestSecret == "" && !c.Dev {
		return fmt.Errorf("INGEST_SECRET is required outside DEV mode")
	}
	return nil
}

// Location returns the scheduler timezone. Validate has already proven it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ParseClock parses a 24h "HH:MM" wall-clock time.
func ParseClock(s string) (hour, minute int, err error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, 0, fmt.Errorf("time %q must be HH:MM", s)
	}
	hour, err = strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("hour in %q must be 0-23", s)
	}
	minute, err = strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("minute in %q must be 0-59", s)
	}
	return hour, minute, nil
}
