package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SourceConfig describes the timetable provider endpoint.
type SourceConfig struct {
	// BaseURL is the provider root, e.g. "https://timetable.example.org".
	BaseURL string `yaml:"base_url" json:"base_url"`
	// School selects the tenant on shared provider installations.
	School string `yaml:"school" json:"school"`
	// Username/Password are sent as HTTP basic auth.
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
	// WindowDays is the span of one fetch window. Multi-window runs
	// request consecutive windows of this size.
	WindowDays int `yaml:"window_days" json:"window_days"`
}

// PriorityConfig holds the stratification policy toggles.
type PriorityConfig struct {
	// RemoveFromMain drops above-threshold periods from the main group.
	RemoveFromMain bool `yaml:"remove_from_main" json:"remove_from_main"`
	// DedicatedBucket emits above-threshold periods as their own group.
	DedicatedBucket bool `yaml:"dedicated_bucket" json:"dedicated_bucket"`
	// SubGroupByPriority splits the dedicated group per priority value;
	// enabling it forces DedicatedBucket on.
	SubGroupByPriority bool `yaml:"sub_group_by_priority" json:"sub_group_by_priority"`
}

// Config is the top-level application configuration.
type Config struct {
	// Timezone is the IANA zone all wall-clock values are tied to.
	Timezone string `yaml:"timezone" json:"timezone"`

	// Locale affects display formatting only, never data values.
	// Supported: "de", "en".
	Locale string `yaml:"locale" json:"locale"`

	// WeekStart is the first day of the week for multi-day grouping:
	// "monday" (default) or "sunday".
	WeekStart string `yaml:"week_start" json:"week_start"`

	// HorizonDays is the number of future days to fetch and publish.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`

	// GapToleranceMinutes is the largest gap two compatible adjacent
	// periods may span and still merge. Negative disables consolidation.
	GapToleranceMinutes int `yaml:"gap_tolerance_minutes" json:"gap_tolerance_minutes"`

	// SynthesizeBreaks emits a filler Break period per absorbed gap.
	SynthesizeBreaks bool `yaml:"synthesize_breaks" json:"synthesize_breaks"`

	// MultiDay enables the per-week summary banner periods.
	MultiDay bool `yaml:"multi_day" json:"multi_day"`

	// SplitDayGaps opens a new day-run whenever the date advances by
	// more than one day within a week. When false, a week is one run.
	SplitDayGaps bool `yaml:"split_day_gaps" json:"split_day_gaps"`

	Priority PriorityConfig `yaml:"priority" json:"priority"`

	// NameOverrides maps course short names (and PRIO<value> bucket
	// keys) to display names.
	NameOverrides map[string]string `yaml:"name_overrides" json:"name_overrides"`

	// PreviousCalendar is an optional path to the previously published
	// calendar text; entries found there are carried over on re-runs.
	PreviousCalendar string `yaml:"previous_calendar" json:"previous_calendar"`

	// OutputDir receives one .ics file per output group.
	OutputDir string `yaml:"output_dir" json:"output_dir"`

	// OutputBase is the filename stem; group suffixes are appended.
	OutputBase string `yaml:"output_base" json:"output_base"`

	// RefreshCron is a cron-style schedule for periodic regeneration.
	// Empty means single-shot only.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	Source SourceConfig `yaml:"source" json:"source"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Timezone:            "Europe/Berlin",
		Locale:              "de",
		WeekStart:           "monday",
		HorizonDays:         28,
		GapToleranceMinutes: 30,
		SynthesizeBreaks:    true,
		MultiDay:            true,
		SplitDayGaps:        true,
		Priority: PriorityConfig{
			RemoveFromMain:     true,
			DedicatedBucket:    true,
			SubGroupByPriority: false,
		},
		NameOverrides: map[string]string{},
		OutputDir:     ".",
		OutputBase:    "timetable",
		RefreshCron:   "",
		Source: SourceConfig{
			WindowDays: 7,
		},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Timezone == "" {
		c.Timezone = "Europe/Berlin"
	}
	switch c.Locale {
	case "de", "en":
		// ok
	default:
		c.Locale = "de"
	}
	switch c.WeekStart {
	case "monday", "sunday":
		// ok
	case "":
		c.WeekStart = "monday"
	default:
		// Unknown value; fall back to monday to avoid surprising grouping.
		c.WeekStart = "monday"
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = 28
	}
	// SubGroupByPriority implies a dedicated bucket to split.
	if c.Priority.SubGroupByPriority {
		c.Priority.DedicatedBucket = true
	}
	if c.NameOverrides == nil {
		c.NameOverrides = map[string]string{}
	}
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	if c.OutputBase == "" {
		c.OutputBase = "timetable"
	}
	if c.Source.WindowDays <= 0 {
		c.Source.WindowDays = 7
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".untiscal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save is a convenience method on Config that delegates to the
// package-level Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
