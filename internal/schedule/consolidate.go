package schedule

import (
	"fmt"
	"time"

	appLog "untiscal/internal/log"
	"untiscal/internal/model"
)

// breakPriority is the fixed urgency of synthetic Break periods, well
// below the neutral midpoint.
const breakPriority = 2

// ConsolidateOptions controls the merge scan.
type ConsolidateOptions struct {
	// ToleranceMinutes is the largest gap two compatible adjacent
	// periods may span and still merge. Negative disables the whole
	// stage, making Consolidate the identity transform.
	ToleranceMinutes int

	// SynthesizeBreaks emits one filler Break period per absorbed gap.
	SynthesizeBreaks bool

	// Overrides is the short-name display mapping used for Break
	// descriptions.
	Overrides map[string]string

	Locale string
}

// Consolidate merges chronologically adjacent compatible periods whose
// gap is within tolerance, extending the absorbing period and dropping
// the absorbed one. Positive absorbed gaps may seed one synthetic
// Break each. Overlapping and negative-duration periods are known
// source noise; they survive unmerged and never absorb.
//
// The input must be sorted by (start, end); the output is re-sorted.
// Running Consolidate on its own output changes nothing.
func Consolidate(periods []model.Period, opt ConsolidateOptions, ids *IDGenerator) []model.Period {
	if opt.ToleranceMinutes < 0 {
		return periods
	}
	if len(periods) == 0 {
		return periods
	}

	tolerance := time.Duration(opt.ToleranceMinutes) * time.Minute

	out := make([]model.Period, 0, len(periods))
	var current *model.Period

	for _, p := range periods {
		if p.End.Before(p.Start) {
			appLog.Debug("negative-duration period skipped", "id", p.ID)
			out = append(out, p)
			continue
		}
		if current == nil {
			c := p
			current = &c
			continue
		}
		if p.Start.Before(current.End) {
			// Overlaps the absorber; source noise.
			appLog.Debug("overlapping period skipped", "id", p.ID)
			out = append(out, p)
			continue
		}

		gap := p.Start.Sub(current.End)
		if gap <= tolerance && mergeable(*current, p) {
			if gap > 0 && opt.SynthesizeBreaks {
				out = append(out, synthBreak(*current, p, gap, opt, ids))
			}
			// Replacement record instead of in-place mutation; the
			// absorbed period is dropped here.
			merged := *current
			merged.End = p.End
			current = &merged
			continue
		}

		out = append(out, *current)
		c := p
		current = &c
	}

	if current != nil {
		out = append(out, *current)
	}

	model.Sort(out)
	return out
}

// mergeable reports whether next may be absorbed into current: same
// course, room, cell state and note, and neither side synthetic.
func mergeable(current, next model.Period) bool {
	if current.Synthetic() || next.Synthetic() {
		return false
	}
	return current.Course.ID == next.Course.ID &&
		current.Room.ID == next.Room.ID &&
		current.State == next.State &&
		current.Note == next.Note
}

// synthBreak builds the filler period spanning the absorbed gap.
func synthBreak(current, next model.Period, gap time.Duration, opt ConsolidateOptions, ids *IDGenerator) model.Period {
	minutes := int(gap / time.Minute)
	return model.Period{
		ID:       ids.Next(),
		Start:    current.End,
		End:      next.Start,
		Course:   current.Course,
		Room:     current.Room,
		Code:     model.CodeBreak,
		State:    model.StateStandard,
		Priority: breakPriority,
		Title:    breakTitle(opt.Locale),
		Note:     fmt.Sprintf("%dm break in %s", minutes, current.Course.Display(opt.Overrides)),
	}
}
