package schedule

import (
	"fmt"
	"sort"
	"time"

	"untiscal/internal/model"
)

// summaryPriority keeps banner periods visually quiet.
const summaryPriority = 1

// dummyEpoch anchors the fallback Summary when a run has no periods at
// all, so the published calendar is never empty.
var dummyEpoch = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

// SummaryOptions controls multi-day banner synthesis.
type SummaryOptions struct {
	// WeekStart is the first day of the week: time.Monday or time.Sunday.
	WeekStart time.Weekday

	// SplitDayGaps opens a new day-run whenever the date advances by
	// more than one day. When false each week is a single run.
	SplitDayGaps bool

	Locale string

	// Now is the generation instant recorded in descriptions.
	Now time.Time

	// LastImport is the source data's import timestamp, zero when the
	// provider did not report one.
	LastImport time.Time
}

// Summarize emits one all-day banner Summary period per contiguous
// day-run per ISO week, so multi-week gaps stay visible in a calendar
// view. Cancelled periods are ignored. The first period of each week
// only seeds the day-change scan; a week with exactly one period
// therefore produces no Summary. When nothing at all survives the
// filter, a single fixed-epoch placeholder is emitted instead.
func Summarize(periods []model.Period, opt SummaryOptions, ids *IDGenerator) []model.Period {
	kept := make([]model.Period, 0, len(periods))
	for _, p := range periods {
		if p.IsCancelled || p.Code == model.CodeCancel {
			continue
		}
		kept = append(kept, p)
	}

	if len(kept) == 0 {
		return []model.Period{dummySummary(opt, ids)}
	}

	weeks := make(map[time.Time][]model.Period)
	for _, p := range kept {
		ws := weekStart(p.Start, opt.WeekStart)
		weeks[ws] = append(weeks[ws], p)
	}

	starts := make([]time.Time, 0, len(weeks))
	for ws := range weeks {
		starts = append(starts, ws)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })

	var out []model.Period
	for _, ws := range starts {
		out = append(out, summarizeWeek(weeks[ws], opt, ids)...)
	}
	return out
}

// summarizeWeek builds the day-runs of one week and one Summary each.
func summarizeWeek(periods []model.Period, opt SummaryOptions, ids *IDGenerator) []model.Period {
	model.Sort(periods)

	// The first period only seeds the day-change scan.
	rest := periods[1:]
	if len(rest) == 0 {
		return nil
	}

	var runs [][]model.Period
	run := []model.Period{rest[0]}
	for _, p := range rest[1:] {
		if opt.SplitDayGaps && dayGap(run[len(run)-1].Start, p.Start) > 1 {
			runs = append(runs, run)
			run = nil
		}
		run = append(run, p)
	}
	runs = append(runs, run)

	out := make([]model.Period, 0, len(runs))
	for i, r := range runs {
		first, last := r[0], r[len(r)-1]
		_, week := first.Start.ISOWeek()

		title := fmt.Sprintf("%s %02d", weekLabel(opt.Locale), week)
		if len(runs) > 1 {
			title += fmt.Sprintf(" (%d/%d)", i+1, len(runs))
		}

		out = append(out, model.Period{
			ID:       ids.Next(),
			Start:    first.Start,
			End:      last.End,
			Code:     model.CodeSummary,
			State:    model.StateStandard,
			Priority: summaryPriority,
			Title:    title,
			Note:     summaryNote(opt),
		})
	}
	return out
}

func dummySummary(opt SummaryOptions, ids *IDGenerator) model.Period {
	// Start == End: the all-day encoding already adds the exclusive
	// day, so the placeholder covers exactly one day.
	return model.Period{
		ID:       ids.Next(),
		Start:    dummyEpoch,
		End:      dummyEpoch,
		Code:     model.CodeSummary,
		State:    model.StateStandard,
		Priority: summaryPriority,
		Title:    "DUMMY",
		Note:     summaryNote(opt),
	}
}

func summaryNote(opt SummaryOptions) string {
	layout := dateTimeLayout(opt.Locale)
	note := "generated " + opt.Now.Format(layout)
	if !opt.LastImport.IsZero() {
		note += ", source imported " + opt.LastImport.Format(layout)
	}
	return note
}

// weekStart truncates t to midnight of its week's first day.
func weekStart(t time.Time, first time.Weekday) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	diff := (int(day.Weekday()) - int(first) + 7) % 7
	return day.AddDate(0, 0, -diff)
}

// dayGap counts calendar days between two instants' dates.
func dayGap(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad) / (24 * time.Hour))
}
