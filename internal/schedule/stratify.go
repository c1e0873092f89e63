package schedule

import (
	"fmt"
	"sort"

	"untiscal/internal/config"
	"untiscal/internal/model"
)

// PriorityThreshold is the fixed cut above which periods stratify into
// dedicated buckets. It sits at the neutral midpoint of the internal
// urgency scale.
const PriorityThreshold = model.PriorityNeutral

// PrioBucket is one dedicated above-threshold output group.
type PrioBucket struct {
	// Key is the bucket identifier: "PRIO", or "PRIO<value>" under
	// sub-grouping. The override mapping may rename it for display.
	Key     string
	Periods []model.Period
}

// Buckets is the stratified period set handed to the partitioner.
type Buckets struct {
	Main []model.Period
	Prio []PrioBucket
}

// Stratify splits above-threshold-priority periods into dedicated
// buckets per the policy. Sub-grouping puts each priority value into
// its own PRIO<value> bucket. Unless removal is disabled, stratified
// periods leave the main set. Without a dedicated bucket to hold them,
// above-threshold periods always stay in main.
func Stratify(periods []model.Period, pol config.PriorityConfig) Buckets {
	if pol.SubGroupByPriority {
		pol.DedicatedBucket = true
	}

	var b Buckets
	if !pol.DedicatedBucket {
		b.Main = periods
		return b
	}

	byValue := make(map[int][]model.Period)
	for _, p := range periods {
		if p.Priority <= PriorityThreshold {
			b.Main = append(b.Main, p)
			continue
		}
		byValue[p.Priority] = append(byValue[p.Priority], p)
		if !pol.RemoveFromMain {
			b.Main = append(b.Main, p)
		}
	}

	if len(byValue) == 0 {
		return b
	}

	if pol.SubGroupByPriority {
		values := make([]int, 0, len(byValue))
		for v := range byValue {
			values = append(values, v)
		}
		sort.Ints(values)
		for _, v := range values {
			b.Prio = append(b.Prio, PrioBucket{
				Key:     fmt.Sprintf("PRIO%d", v),
				Periods: byValue[v],
			})
		}
		return b
	}

	var all []model.Period
	for _, set := range byValue {
		all = append(all, set...)
	}
	model.Sort(all)
	b.Prio = append(b.Prio, PrioBucket{Key: "PRIO", Periods: all})
	return b
}
