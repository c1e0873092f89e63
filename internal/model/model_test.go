package model

import (
	"testing"
	"time"
)

func TestSortOrdersByStartThenEnd(t *testing.T) {
	base := time.Date(2025, 1, 13, 8, 0, 0, 0, time.UTC)
	periods := []Period{
		{ID: 1, Start: base.Add(time.Hour), End: base.Add(2 * time.Hour)},
		{ID: 2, Start: base, End: base.Add(time.Hour)},
		{ID: 3, Start: base, End: base.Add(30 * time.Minute)},
	}

	Sort(periods)

	want := []int{3, 2, 1}
	for i, id := range want {
		if periods[i].ID != id {
			t.Errorf("position %d: got id %d, want %d", i, periods[i].ID, id)
		}
	}
}

func TestCourseDisplayPrefersOverride(t *testing.T) {
	c := Course{ID: 10, Name: "MA", LongName: "Mathematics"}

	if got := c.Display(nil); got != "Mathematics" {
		t.Errorf("Display(nil) = %q", got)
	}
	if got := c.Display(map[string]string{"MA": "Mathe LK"}); got != "Mathe LK" {
		t.Errorf("override ignored: %q", got)
	}
	if got := (Course{Name: "EN"}).Display(nil); got != "EN" {
		t.Errorf("short name fallback broken: %q", got)
	}
}

func TestSyntheticCodes(t *testing.T) {
	if !(Period{Code: CodeBreak}).Synthetic() || !(Period{Code: CodeSummary}).Synthetic() {
		t.Error("break and summary periods are synthetic")
	}
	if (Period{Code: CodeStandard}).Synthetic() {
		t.Error("standard periods are not synthetic")
	}
}
