package model

import (
	"sort"
	"time"
)

// LessonCode classifies what kind of slot a Period represents.
type LessonCode string

const (
	CodeStandard     LessonCode = "STANDARD"
	CodeAdditional   LessonCode = "ADDITIONAL"
	CodeCancel       LessonCode = "CANCEL"
	CodeSubstitution LessonCode = "SUBSTITUTION"
	CodeBreak        LessonCode = "BREAK"
	CodeSummary      LessonCode = "SUMMARY"
	CodePrio         LessonCode = "PRIO"
)

// CellState is the provider's confirmation-like status for a slot.
type CellState string

const (
	StateStandard     CellState = "STANDARD"
	StateExam         CellState = "EXAM"
	StateSubstitution CellState = "SUBSTITUTION"
	StateShift        CellState = "SHIFT"
	StateCancel       CellState = "CANCEL"
	StateAdditional   CellState = "ADDITIONAL"
)

// PriorityNeutral is the default urgency midpoint on the internal 1..9
// scale. Higher values are more urgent.
const PriorityNeutral = 5

// Course is a deduplicated legend reference.
type Course struct {
	ID       int
	Name     string // short name, e.g. "MA"
	LongName string // display name, e.g. "Mathematics"
}

// Display returns the name to show for the course, honoring a
// user-supplied short-name override mapping.
func (c Course) Display(overrides map[string]string) string {
	if overrides != nil {
		if v, ok := overrides[c.Name]; ok && v != "" {
			return v
		}
	}
	if c.LongName != "" {
		return c.LongName
	}
	return c.Name
}

// Room is a deduplicated legend reference.
type Room struct {
	ID       int
	Name     string
	LongName string
}

func (r Room) Display() string {
	if r.LongName != "" {
		return r.LongName
	}
	return r.Name
}

// Reschedule records a moved slot; IsSource marks which side of the
// origin/destination pair this Period describes.
type Reschedule struct {
	Start    time.Time
	End      time.Time
	IsSource bool
}

// Period is one scheduled slot, either freshly fetched from the
// timetable provider or decoded from a previously published calendar.
type Period struct {
	ID int

	Start time.Time
	End   time.Time

	Course Course
	Room   Room

	Code  LessonCode
	State CellState

	// Priority is on the internal scale: 1..9, PriorityNeutral default,
	// higher = more urgent. The calendar projection inverts it.
	Priority int

	// Title overrides the course display name as the event summary.
	// Synthetic periods set it; decoded periods carry the published one.
	Title string

	Note string

	Reschedule *Reschedule

	IsCancelled bool
	IsStandard  bool
	IsEvent     bool

	// PreExisting is true for Periods decoded from a previously
	// published calendar rather than freshly fetched.
	PreExisting bool
}

// Synthetic reports whether the Period was generated by the pipeline
// itself. Synthetic Periods never merge and never round-trip.
func (p Period) Synthetic() bool {
	return p.Code == CodeBreak || p.Code == CodeSummary
}

// Duration is End−Start; negative for known source noise.
func (p Period) Duration() time.Duration {
	return p.End.Sub(p.Start)
}

// Sort orders periods by (start, end), the invariant every pipeline
// stage re-establishes at its boundary.
func Sort(periods []Period) {
	sort.SliceStable(periods, func(i, j int) bool {
		if !periods[i].Start.Equal(periods[j].Start) {
			return periods[i].Start.Before(periods[j].Start)
		}
		return periods[i].End.Before(periods[j].End)
	})
}
