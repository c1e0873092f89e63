package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("first-run load: %v", err)
	}
	if cfg.Timezone != "Europe/Berlin" {
		t.Errorf("default timezone = %q", cfg.Timezone)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file was not materialized: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("config perms = %v, want 0600", info.Mode().Perm())
	}
}

func TestLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.GapToleranceMinutes = 45
	cfg.NameOverrides = map[string]string{"MA": "Mathematics"}
	cfg.Priority.SubGroupByPriority = true

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.GapToleranceMinutes != 45 {
		t.Errorf("tolerance = %d", loaded.GapToleranceMinutes)
	}
	if loaded.NameOverrides["MA"] != "Mathematics" {
		t.Errorf("overrides = %+v", loaded.NameOverrides)
	}
	if !loaded.Priority.DedicatedBucket {
		t.Errorf("sub-grouping must force the dedicated bucket on")
	}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := &Config{WeekStart: "friday", Locale: "fr"}
	cfg.Normalize()

	if cfg.WeekStart != "monday" {
		t.Errorf("unknown week start must fall back to monday, got %q", cfg.WeekStart)
	}
	if cfg.Locale != "de" {
		t.Errorf("unknown locale must fall back, got %q", cfg.Locale)
	}
	if cfg.HorizonDays <= 0 || cfg.Source.WindowDays <= 0 {
		t.Errorf("window defaults missing: %+v", cfg)
	}
}
