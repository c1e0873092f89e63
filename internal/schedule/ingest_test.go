package schedule

import (
	"testing"

	"untiscal/internal/model"
)

func TestMergePreviousFreshWinsOnCollision(t *testing.T) {
	fresh := []model.Period{lesson(t, 1, "2025-01-13 08:00", "2025-01-13 08:45")}

	stale := lesson(t, 1, "2025-01-13 08:00", "2025-01-13 08:45")
	stale.Note = "stale"
	stale.PreExisting = true
	carried := lesson(t, 2, "2025-01-14 08:00", "2025-01-14 08:45")
	carried.PreExisting = true

	out := MergePrevious(fresh, []model.Period{stale, carried})

	if len(out) != 2 {
		t.Fatalf("expected fresh period plus carried one, got %d", len(out))
	}
	for _, p := range out {
		if p.ID == 1 && p.Note == "stale" {
			t.Errorf("round-tripped duplicate survived over the fresh period")
		}
		if p.ID == 2 && !p.PreExisting {
			t.Errorf("carried period lost its provenance flag")
		}
	}
}

func TestMergePreviousDropsSynthetic(t *testing.T) {
	brk := lesson(t, 5, "2025-01-13 08:45", "2025-01-13 09:00")
	brk.Code = model.CodeBreak
	brk.PreExisting = true
	sum := lesson(t, 6, "2025-01-13 08:00", "2025-01-17 16:00")
	sum.Code = model.CodeSummary
	sum.PreExisting = true

	out := MergePrevious(nil, []model.Period{brk, sum})

	if len(out) != 0 {
		t.Errorf("synthetic records must never round-trip, got %+v", out)
	}
}

func TestMergePreviousKeepsOrdering(t *testing.T) {
	fresh := []model.Period{lesson(t, 2, "2025-01-14 08:00", "2025-01-14 08:45")}
	prev := lesson(t, 1, "2025-01-13 08:00", "2025-01-13 08:45")
	prev.PreExisting = true

	out := MergePrevious(fresh, []model.Period{prev})

	if len(out) != 2 || !out[0].Start.Before(out[1].Start) {
		t.Errorf("merged set must be re-sorted by start: %+v", out)
	}
}
