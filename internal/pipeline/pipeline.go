package pipeline

import (
	"context"
	"fmt"
	"time"

	"untiscal/internal/config"
	"untiscal/internal/ics"
	appLog "untiscal/internal/log"
	"untiscal/internal/model"
	"untiscal/internal/partition"
	"untiscal/internal/schedule"
	"untiscal/internal/untis"
)

// Source is the timetable provider collaborator. Per-window failures
// come back in the error slice; they never abort the remaining windows.
type Source interface {
	FetchAll(ctx context.Context, windows []untis.Window) ([]untis.FetchResult, []error)
}

// Output is one named calendar handed to the emission layer.
type Output struct {
	Name     string
	Filename string
	Events   int
	ICS      []byte
}

// Pipeline drives the stages in order: normalize, consolidate,
// summarize, merge the previous calendar, stratify, partition, encode.
// The period collection is owned here and passed through each stage in
// sequence.
type Pipeline struct {
	Cfg    *config.Config
	Source Source

	// Previous is the previously published calendar text, nil when
	// this is a first run.
	Previous []byte

	// Now is injectable for tests; nil means time.Now.
	Now func() time.Time
}

// Run executes one synchronous pass and returns the encoded groups.
func (pl *Pipeline) Run(ctx context.Context) ([]Output, error) {
	cfg := pl.Cfg
	now := pl.Now
	if now == nil {
		now = time.Now
	}

	codec, err := ics.NewCodec(cfg.Timezone, cfg.NameOverrides, now)
	if err != nil {
		return nil, err
	}
	zone, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	// Previous calendar first: its ids seed the synthetic-id sequence.
	var previous []model.Period
	if len(pl.Previous) > 0 {
		decoded, err := codec.Decode(pl.Previous)
		if err != nil {
			return nil, fmt.Errorf("previous calendar: %w", err)
		}
		// Synthetic records are regenerated every run; dropping them
		// here also keeps their ids out of the id sequence seed, so
		// re-runs assign the same synthetic ids.
		for _, p := range decoded {
			if !p.Synthetic() {
				previous = append(previous, p)
			}
		}
		appLog.Info("previous calendar decoded",
			"period_count", len(decoded),
			"carried", len(previous),
		)
	}

	fresh, lastImport, err := pl.fetch(ctx, zone, now())
	if err != nil {
		return nil, err
	}

	ids := schedule.NewIDGenerator(fresh, previous)

	fresh = schedule.Consolidate(fresh, schedule.ConsolidateOptions{
		ToleranceMinutes: cfg.GapToleranceMinutes,
		SynthesizeBreaks: cfg.SynthesizeBreaks,
		Overrides:        cfg.NameOverrides,
		Locale:           cfg.Locale,
	}, ids)

	if cfg.MultiDay {
		summaries := schedule.Summarize(fresh, schedule.SummaryOptions{
			WeekStart:    weekStartDay(cfg.WeekStart),
			SplitDayGaps: cfg.SplitDayGaps,
			Locale:       cfg.Locale,
			Now:          now().In(zone),
			LastImport:   lastImport,
		}, ids)
		fresh = append(fresh, summaries...)
		model.Sort(fresh)
	}

	merged := schedule.MergePrevious(fresh, previous)

	buckets := schedule.Stratify(merged, cfg.Priority)
	groups := partition.Partition(buckets, cfg.NameOverrides)

	out := make([]Output, 0, len(groups))
	for _, g := range groups {
		out = append(out, Output{
			Name:     g.Name,
			Filename: cfg.OutputBase + g.Suffix + ".ics",
			Events:   len(g.Periods),
			ICS:      codec.Encode(g.Periods),
		})
	}

	appLog.Info("pipeline run complete",
		"periods", len(merged),
		"groups", len(out),
	)
	return out, nil
}

// fetch retrieves and normalizes every window of the horizon. Failed
// windows are skipped; a run where every window failed is an error.
func (pl *Pipeline) fetch(ctx context.Context, zone *time.Location, now time.Time) ([]model.Period, time.Time, error) {
	cfg := pl.Cfg

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, zone)
	windows := untis.Windows(today, today.AddDate(0, 0, cfg.HorizonDays-1), cfg.Source.WindowDays)

	results, errs := pl.Source.FetchAll(ctx, windows)
	if len(results) == 0 && len(errs) > 0 {
		return nil, time.Time{}, fmt.Errorf("all %d fetch windows failed, first error: %w", len(errs), errs[0])
	}

	var all []model.Period
	var lastImport time.Time
	for _, res := range results {
		periods, err := untis.Normalize(res.Payload, zone)
		if err != nil {
			return nil, time.Time{}, err
		}
		all = append(all, periods...)
		if res.Payload.LastImport > 0 {
			imp := time.UnixMilli(res.Payload.LastImport).In(zone)
			if imp.After(lastImport) {
				lastImport = imp
			}
		}
	}

	model.Sort(all)
	return all, lastImport, nil
}

func weekStartDay(s string) time.Weekday {
	if s == "sunday" {
		return time.Sunday
	}
	return time.Monday
}
