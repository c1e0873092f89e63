package partition

import (
	"testing"

	"untiscal/internal/model"
	"untiscal/internal/schedule"
)

func coursePeriod(id int, course string) model.Period {
	return model.Period{
		ID:     id,
		Course: model.Course{ID: id, Name: course},
	}
}

func TestPartitionByOverrideMapping(t *testing.T) {
	b := schedule.Buckets{
		Main: []model.Period{
			coursePeriod(1, "MA"),
			coursePeriod(2, "EN"),
			coursePeriod(3, "MA"),
		},
	}
	overrides := map[string]string{"MA": "Mathematics"}

	groups := Partition(b, overrides)

	if len(groups) != 2 {
		t.Fatalf("expected catch-all plus one course group, got %+v", groups)
	}
	if groups[0].Name != "main" || groups[0].Suffix != "" {
		t.Errorf("catch-all group = %+v", groups[0])
	}
	if len(groups[0].Periods) != 1 || groups[0].Periods[0].Course.Name != "EN" {
		t.Errorf("unmapped course belongs in the catch-all: %+v", groups[0].Periods)
	}
	if groups[1].Name != "Mathematics" || groups[1].Suffix != "_mathematics" {
		t.Errorf("mapped group = %+v", groups[1])
	}
	if len(groups[1].Periods) != 2 {
		t.Errorf("mapped group holds %d periods", len(groups[1].Periods))
	}
}

func TestPartitionPrioBucketsPassThrough(t *testing.T) {
	b := schedule.Buckets{
		Main: []model.Period{coursePeriod(1, "MA")},
		Prio: []schedule.PrioBucket{
			{Key: "PRIO", Periods: []model.Period{coursePeriod(2, "EN")}},
			{Key: "PRIO7", Periods: []model.Period{coursePeriod(3, "EN")}},
		},
	}
	overrides := map[string]string{"PRIO7": "Urgent"}

	groups := Partition(b, overrides)

	if len(groups) != 3 {
		t.Fatalf("expected main plus two PRIO groups, got %+v", groups)
	}
	if groups[1].Name != "PRIO" || groups[1].Suffix != "_prio" {
		t.Errorf("PRIO group = %+v", groups[1])
	}
	if groups[2].Name != "Urgent" || groups[2].Suffix != "_urgent" {
		t.Errorf("renamed PRIO bucket = %+v", groups[2])
	}
}

func TestSlugSanitizesNames(t *testing.T) {
	cases := map[string]string{
		"Mathematics":   "mathematics",
		"Fach Deutsch":  "fach-deutsch",
		"PRIO7":         "prio7",
		"  twisted  ":   "twisted",
		"Sport (Halle)": "sport--halle",
	}
	for in, want := range cases {
		if got := slug(in); got != want {
			t.Errorf("slug(%q) = %q, want %q", in, got, want)
		}
	}
}
