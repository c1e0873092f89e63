package pipeline

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"untiscal/internal/config"
	"untiscal/internal/untis"
)

type fakeSource struct {
	payload untis.Payload
}

func (f *fakeSource) FetchAll(_ context.Context, windows []untis.Window) ([]untis.FetchResult, []error) {
	return []untis.FetchResult{{Window: windows[0], Payload: f.payload}}, nil
}

func fixedNow() time.Time {
	return time.Date(2025, 1, 13, 6, 0, 0, 0, time.UTC)
}

func mathPayload() untis.Payload {
	return untis.Payload{
		Periods: []untis.RawPeriod{
			{
				ID: 1, LessonCode: "STANDARD", Date: 20250113,
				StartTime: 800, EndTime: 845, CellState: "STANDARD",
				Elements: []untis.ElementRef{
					{Type: untis.ElementCourse, ID: 10},
					{Type: untis.ElementRoom, ID: 20},
				},
			},
			{
				ID: 2, LessonCode: "STANDARD", Date: 20250113,
				StartTime: 900, EndTime: 945, CellState: "STANDARD",
				Elements: []untis.ElementRef{
					{Type: untis.ElementCourse, ID: 10},
					{Type: untis.ElementRoom, ID: 20},
				},
			},
		},
		Legend: []untis.RawLegend{
			{Type: untis.ElementCourse, ID: 10, Name: "MA", LongName: "Mathematics"},
			{Type: untis.ElementRoom, ID: 20, Name: "R1", LongName: "Room 1"},
		},
		LastImport: time.Date(2025, 1, 12, 18, 0, 0, 0, time.UTC).UnixMilli(),
	}
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.GapToleranceMinutes = 15
	cfg.MultiDay = false
	cfg.Normalize()
	return cfg
}

func TestRunMergesAndSynthesizesBreak(t *testing.T) {
	pl := &Pipeline{
		Cfg:    testConfig(),
		Source: &fakeSource{payload: mathPayload()},
		Now:    fixedNow,
	}

	outputs, err := pl.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(outputs) != 1 {
		t.Fatalf("expected the catch-all group only, got %+v", outputs)
	}

	out := outputs[0]
	if out.Filename != "timetable.ics" {
		t.Errorf("filename = %q", out.Filename)
	}
	if out.Events != 2 {
		t.Errorf("expected merged period plus break, got %d events", out.Events)
	}

	text := string(out.ICS)
	if !strings.Contains(text, "DTSTART;TZID=Europe/Berlin:20250113T080000\r\n") ||
		!strings.Contains(text, "DTEND;TZID=Europe/Berlin:20250113T094500\r\n") {
		t.Errorf("merged span missing:\n%s", text)
	}
	if !strings.Contains(text, "DESCRIPTION:15m break in Mathematics\r\n") {
		t.Errorf("break description missing:\n%s", text)
	}
	if !strings.Contains(text, "CATEGORIES:BREAK\r\n") {
		t.Errorf("break category missing:\n%s", text)
	}
}

func TestRunIsStableAcrossReRuns(t *testing.T) {
	cfg := testConfig()
	cfg.MultiDay = true

	first := &Pipeline{
		Cfg:    cfg,
		Source: &fakeSource{payload: mathPayload()},
		Now:    fixedNow,
	}
	a, err := first.Run(context.Background())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}

	second := &Pipeline{
		Cfg:      cfg,
		Source:   &fakeSource{payload: mathPayload()},
		Previous: a[0].ICS,
		Now:      fixedNow,
	}
	b, err := second.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if !bytes.Equal(a[0].ICS, b[0].ICS) {
		t.Errorf("feeding the published calendar back in must not change the output\nfirst:\n%s\nsecond:\n%s", a[0].ICS, b[0].ICS)
	}
}

func TestRunCarriesPreviousEntries(t *testing.T) {
	cfg := testConfig()

	first := &Pipeline{
		Cfg:    cfg,
		Source: &fakeSource{payload: mathPayload()},
		Now:    fixedNow,
	}
	a, err := first.Run(context.Background())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}

	// The next fetch no longer returns period 1's slot; the published
	// merged entry is carried alongside the fresh period. The break is
	// synthetic and not carried.
	smaller := mathPayload()
	smaller.Periods = smaller.Periods[1:]

	second := &Pipeline{
		Cfg:      cfg,
		Source:   &fakeSource{payload: smaller},
		Previous: a[0].ICS,
		Now:      fixedNow,
	}
	b, err := second.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	text := string(b[0].ICS)
	if !strings.Contains(text, "UID:untiscal-2@untiscal\r\n") {
		t.Errorf("fresh period missing:\n%s", text)
	}
	if !strings.Contains(text, "DTEND;TZID=Europe/Berlin:20250113T094500\r\n") {
		t.Errorf("carried merged entry missing:\n%s", text)
	}
	if strings.Count(text, "BEGIN:VEVENT") != 2 {
		t.Errorf("expected the fresh period plus the carried merged entry, got:\n%s", text)
	}
}
