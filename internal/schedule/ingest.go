package schedule

import (
	appLog "untiscal/internal/log"
	"untiscal/internal/model"
)

// MergePrevious unions freshly fetched (plus synthesized) periods with
// periods decoded from a previously published calendar, so repeated
// runs append instead of duplicating. Ids are unique across the union:
// on collision the fresh period wins and the decoded duplicate is
// dropped. Decoded Break and Summary records are never carried over;
// both are regenerated every run.
func MergePrevious(fresh, decoded []model.Period) []model.Period {
	out := make([]model.Period, 0, len(fresh)+len(decoded))
	out = append(out, fresh...)

	seen := make(map[int]struct{}, len(fresh))
	for _, p := range fresh {
		seen[p.ID] = struct{}{}
	}

	for _, p := range decoded {
		if p.Synthetic() {
			continue
		}
		if _, dup := seen[p.ID]; dup {
			appLog.Debug("round-tripped period superseded by fresh fetch", "id", p.ID)
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}

	model.Sort(out)
	return out
}
