package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Version    int              `toml:"version"`
	Extraction ExtractionConfig `toml:"extraction"`
	Pacing     PacingConfig     `toml:"pacing"`
	Store      StoreConfig      `toml:"store"`
	Events     EventsConfig     `toml:"events"`
	Schedule   ScheduleConfig   `toml:"schedule"`
	Metrics    MetricsConfig    `toml:"metrics"`
	Logging    LoggingConfig    `toml:"logging"`
}

// ExtractionConfig bounds a single extraction session and says where the feed lives.
type ExtractionConfig struct {
	DefaultLimit         int    `toml:"default_limit"`
	MaxLimit             int    `toml:"max_limit"`
	AttemptMultiplier    int    `toml:"attempt_multiplier"`
	LargeTargetThreshold int    `toml:"large_target_threshold"`
	ShortTimeoutMinutes  int    `toml:"short_timeout_minutes"`
	LongTimeoutMinutes   int    `toml:"long_timeout_minutes"`
	ErrorCeiling         int    `toml:"error_ceiling"`
	StealthThreshold     int    `toml:"stealth_threshold"`
	FeedURL              string `toml:"feed_url"`
	Headless             bool   `toml:"headless"`
	RemoteURL            string `toml:"remote_url"` // DevTools URL of an already running Chrome
	UserDataDir          string `toml:"user_data_dir"`
}

// Range is an inclusive integer band a value is drawn from uniformly.
type Range struct {
	Min int `toml:"min"`
	Max int `toml:"max"`
}

// PacingConfig holds the jitter bands for human-like pacing.
// Durations are milliseconds, distances are pixels.
type PacingConfig struct {
	NodeDelayMS       Range   `toml:"node_delay_ms"`
	ReadEvery         Range   `toml:"read_every"`
	ReadPauseMS       Range   `toml:"read_pause_ms"`
	RereadChance      float64 `toml:"reread_chance"`
	RereadDistancePX  Range   `toml:"reread_distance_px"`
	RereadScrollMS    int     `toml:"reread_scroll_ms"`
	RereadPauseMS     Range   `toml:"reread_pause_ms"`
	BreakEvery        Range   `toml:"break_every"`
	BreakPauseMS      Range   `toml:"break_pause_ms"`
	ScrollMinFraction float64 `toml:"scroll_min_fraction"`
	ScrollMaxFraction float64 `toml:"scroll_max_fraction"`
	ScrollDurationMS  Range   `toml:"scroll_duration_ms"`
	SettlePauseMS     Range   `toml:"settle_pause_ms"`
	EmptyPageWaitMS   int     `toml:"empty_page_wait_ms"`
	ErrorPauseMS      Range   `toml:"error_pause_ms"`
	BackoffBaseMS     int     `toml:"backoff_base_ms"`
	BackoffFactor     float64 `toml:"backoff_factor"`
	BackoffMaxMS      int     `toml:"backoff_max_ms"`
	FrameMS           int     `toml:"frame_ms"`
}

type StoreConfig struct {
	Path string `toml:"path"` // empty means <cache dir>/xextract.db
}

type EventsConfig struct {
	NATSURL           string  `toml:"nats_url"`
	EventSubject      string  `toml:"event_subject"`
	CommandSubject    string  `toml:"command_subject"`
	ProgressPerSecond float64 `toml:"progress_per_second"` // 0 publishes every progress event
}

type ScheduleConfig struct {
	Cron     string `toml:"cron"` // empty disables scheduled sessions
	Limit    int    `toml:"limit"`
	Timezone string `toml:"timezone"`
}

type MetricsConfig struct {
	Addr string `toml:"addr"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Version: 1,
		Extraction: ExtractionConfig{
			DefaultLimit:         100,
			MaxLimit:             2000,
			AttemptMultiplier:    5,
			LargeTargetThreshold: 500,
			ShortTimeoutMinutes:  30,
			LongTimeoutMinutes:   120,
			ErrorCeiling:         10,
			StealthThreshold:     50,
			FeedURL:              "https://x.com/home",
			Headless:             false,
		},
		Pacing: PacingConfig{
			NodeDelayMS:       Range{50, 150},
			ReadEvery:         Range{15, 25},
			ReadPauseMS:       Range{2000, 5000},
			RereadChance:      0.1,
			RereadDistancePX:  Range{50, 150},
			RereadScrollMS:    400,
			RereadPauseMS:     Range{300, 800},
			BreakEvery:        Range{80, 120},
			BreakPauseMS:      Range{10000, 25000},
			ScrollMinFraction: 0.4,
			ScrollMaxFraction: 0.7,
			ScrollDurationMS:  Range{800, 1500},
			SettlePauseMS:     Range{500, 1200},
			EmptyPageWaitMS:   2000,
			ErrorPauseMS:      Range{2000, 5000},
			BackoffBaseMS:     30000,
			BackoffFactor:     1.5,
			BackoffMaxMS:      300000,
			FrameMS:           16,
		},
		Events: EventsConfig{
			EventSubject:      "xextract.events",
			CommandSubject:    "xextract.commands",
			ProgressPerSecond: 4,
		},
		Schedule: ScheduleConfig{
			Limit:    100,
			Timezone: "Local",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate reports the first setting that would make a session misbehave.
func (c *Config) Validate() error {
	e := c.Extraction
	if e.DefaultLimit <= 0 || e.MaxLimit <= 0 {
		return fmt.Errorf("extraction limits must be positive (default=%d, max=%d)", e.DefaultLimit, e.MaxLimit)
	}
	if e.AttemptMultiplier <= 0 || e.ErrorCeiling <= 0 {
		return fmt.Errorf("attempt_multiplier and error_ceiling must be positive")
	}

	p := c.Pacing
	ranges := map[string]Range{
		"node_delay_ms":      p.NodeDelayMS,
		"read_every":         p.ReadEvery,
		"read_pause_ms":      p.ReadPauseMS,
		"reread_distance_px": p.RereadDistancePX,
		"reread_pause_ms":    p.RereadPauseMS,
		"break_every":        p.BreakEvery,
		"break_pause_ms":     p.BreakPauseMS,
		"scroll_duration_ms": p.ScrollDurationMS,
		"settle_pause_ms":    p.SettlePauseMS,
		"error_pause_ms":     p.ErrorPauseMS,
	}
	for name, r := range ranges {
		if r.Min < 0 || r.Max < r.Min {
			return fmt.Errorf("pacing.%s: invalid range [%d, %d]", name, r.Min, r.Max)
		}
	}
	if p.ScrollMinFraction <= 0 || p.ScrollMaxFraction < p.ScrollMinFraction {
		return fmt.Errorf("pacing: invalid scroll fraction band [%.2f, %.2f]", p.ScrollMinFraction, p.ScrollMaxFraction)
	}
	if p.RereadChance < 0 || p.RereadChance > 1 {
		return fmt.Errorf("pacing.reread_chance must be within [0, 1]")
	}
	return nil
}

// ConfigDir returns the platform-appropriate config directory
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "xextract"), nil
}

// CacheDir returns the platform-appropriate cache directory
func CacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "xextract"), nil
}

// ConfigPath returns the full path to the config file
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// StorePath returns the database path, falling back to the cache directory.
func (c *Config) StorePath() (string, error) {
	if c.Store.Path != "" {
		return c.Store.Path, nil
	}
	dir, err := CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "xextract.db"), nil
}

// Load reads config from disk
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom decodes the file at path on top of the defaults, so keys missing
// from an older config keep their default values.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrInit loads the config file. On first run it writes the defaults to
// disk and reports created.
func LoadOrInit() (cfg *Config, created bool, err error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, false, err
	}
	return LoadOrInitAt(path)
}

// LoadOrInitAt is LoadOrInit for an explicit path.
func LoadOrInitAt(path string) (*Config, bool, error) {
	cfg, err := LoadFrom(path)
	if err == nil {
		return cfg, false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, false, err
	}

	cfg = Default()
	if err := cfg.SaveTo(path); err != nil {
		return cfg, false, fmt.Errorf("failed to write default config: %w", err)
	}
	return cfg, true, nil
}

// ApplyEnv loads a .env file from the working directory if present and lets
// XEXTRACT_* variables override the file configuration.
func (c *Config) ApplyEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	if v := os.Getenv("XEXTRACT_REMOTE_URL"); v != "" {
		c.Extraction.RemoteURL = v
	}
	if v := os.Getenv("XEXTRACT_NATS_URL"); v != "" {
		c.Events.NATSURL = v
	}
	if v := os.Getenv("XEXTRACT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("XEXTRACT_STORE_PATH"); v != "" {
		c.Store.Path = v
	}
	return nil
}

// Save writes config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes config to path, creating the parent directory.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}
