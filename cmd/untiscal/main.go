package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/robfig/cron/v3"

	"untiscal/internal/config"
	appLog "untiscal/internal/log"
	"untiscal/internal/pipeline"
	"untiscal/internal/untis"
)

// flagConfig holds CLI flag values before config loading.
type flagConfig struct {
	configPath string
	outDir     string
	previous   string
	once       bool
	debug      bool
}

func main() {
	appLog.Info("untiscal starting", "version", "0.1.0")

	flags := parseFlags()
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI overrides for config values, if provided.
	if flags.outDir != "" {
		conf.OutputDir = flags.outDir
	}
	if flags.previous != "" {
		conf.PreviousCalendar = flags.previous
	}

	appLog.Info("effective config",
		"timezone", conf.Timezone,
		"locale", conf.Locale,
		"week_start", conf.WeekStart,
		"horizon_days", conf.HorizonDays,
		"gap_tolerance_minutes", conf.GapToleranceMinutes,
		"synthesize_breaks", conf.SynthesizeBreaks,
		"multi_day", conf.MultiDay,
		"output_dir", conf.OutputDir,
		"refresh", conf.RefreshCron,
		"once", flags.once,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if err := runOnce(ctx, conf); err != nil {
		appLog.Error("run failed", err)
		os.Exit(1)
	}

	if flags.once || conf.RefreshCron == "" {
		appLog.Info("untiscal exiting")
		return
	}

	// Periodic mode: regenerate on the configured cron schedule.
	c := cron.New()
	_, err = c.AddFunc(conf.RefreshCron, func() {
		if err := runOnce(ctx, conf); err != nil {
			appLog.Error("scheduled run failed", err)
		}
	})
	if err != nil {
		appLog.Error("invalid refresh schedule", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	c.Start()
	defer c.Stop()

	<-ctx.Done()
	appLog.Info("untiscal exiting")
}

// runOnce executes one pipeline pass and writes the output groups.
func runOnce(ctx context.Context, conf *config.Config) error {
	previous, err := readPrevious(conf.PreviousCalendar)
	if err != nil {
		return err
	}

	pl := &pipeline.Pipeline{
		Cfg:      conf,
		Source:   untis.NewClient(conf.Source),
		Previous: previous,
	}

	outputs, err := pl.Run(ctx)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(conf.OutputDir, 0o755); err != nil {
		return err
	}
	for _, out := range outputs {
		path := filepath.Join(conf.OutputDir, out.Filename)
		if err := os.WriteFile(path, out.ICS, 0o644); err != nil {
			return err
		}
		appLog.Info("calendar written", "group", out.Name, "path", path, "events", out.Events)
	}
	return nil
}

// readPrevious loads the previously published calendar; a missing file
// just means a first run.
func readPrevious(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			appLog.Info("no previous calendar found", "path", path)
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/untiscal/config.yaml", "Path to config file")
	flag.StringVar(&cfg.outDir, "out", "", "Output directory (overrides config if set)")
	flag.StringVar(&cfg.previous, "previous", "", "Previously published calendar file (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Run a single pass and exit even when a refresh schedule is configured")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
