package untis

import (
	"fmt"
	"strings"
	"time"

	"untiscal/internal/model"
)

// Resolution classifies a legend lookup. Callers decide whether a
// non-Found result is fatal; during normalization it always is.
type Resolution int

const (
	Found Resolution = iota
	Missing
	Ambiguous
)

func (r Resolution) String() string {
	switch r {
	case Found:
		return "found"
	case Missing:
		return "missing"
	case Ambiguous:
		return "ambiguous"
	default:
		return "unknown"
	}
}

// ResolveError reports a failed Course/Room legend lookup.
type ResolveError struct {
	Kind     Resolution
	RefType  int
	RefID    int
	PeriodID int
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("legend ref (type=%d id=%d) for period %d: %s",
		e.RefType, e.RefID, e.PeriodID, e.Kind)
}

type legendKey struct {
	typ int
	id  int
}

// Legend is the per-run lookup of shared Course/Room metadata, keyed
// by (type, id). Exact duplicate records collapse; conflicting records
// under one key surface as Ambiguous on lookup.
type Legend struct {
	entries map[legendKey][]RawLegend
}

// BuildLegend indexes raw legend records for one run.
func BuildLegend(records []RawLegend) *Legend {
	l := &Legend{entries: make(map[legendKey][]RawLegend)}
	for _, rec := range records {
		key := legendKey{typ: rec.Type, id: rec.ID}
		dup := false
		for _, have := range l.entries[key] {
			if have == rec {
				dup = true
				break
			}
		}
		if !dup {
			l.entries[key] = append(l.entries[key], rec)
		}
	}
	return l
}

// Lookup returns the single record for (typ, id), or the Resolution
// explaining why there is no such record.
func (l *Legend) Lookup(typ, id int) (RawLegend, Resolution) {
	recs := l.entries[legendKey{typ: typ, id: id}]
	switch len(recs) {
	case 0:
		return RawLegend{}, Missing
	case 1:
		return recs[0], Found
	default:
		return RawLegend{}, Ambiguous
	}
}

func (l *Legend) course(ref ElementRef, periodID int) (model.Course, error) {
	rec, res := l.Lookup(ref.Type, ref.ID)
	if res != Found {
		return model.Course{}, &ResolveError{Kind: res, RefType: ref.Type, RefID: ref.ID, PeriodID: periodID}
	}
	long := rec.LongName
	if rec.DisplayName != "" {
		long = rec.DisplayName
	}
	return model.Course{ID: rec.ID, Name: rec.Name, LongName: long}, nil
}

func (l *Legend) room(ref ElementRef, periodID int) (model.Room, error) {
	rec, res := l.Lookup(ref.Type, ref.ID)
	if res != Found {
		return model.Room{}, &ResolveError{Kind: res, RefType: ref.Type, RefID: ref.ID, PeriodID: periodID}
	}
	return model.Room{ID: rec.ID, Name: rec.Name, LongName: rec.LongName}, nil
}

// Normalize converts one window's raw periods into model Periods with
// resolved legend references, ordered by (start, end). A reference that
// resolves to zero or multiple legend records is fatal.
func Normalize(payload Payload, zone *time.Location) ([]model.Period, error) {
	legend := BuildLegend(payload.Legend)

	out := make([]model.Period, 0, len(payload.Periods))
	for _, raw := range payload.Periods {
		p, err := normalizePeriod(raw, legend, zone)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	model.Sort(out)
	return out, nil
}

func normalizePeriod(raw RawPeriod, legend *Legend, zone *time.Location) (model.Period, error) {
	courseRef, roomRef := splitElements(raw.Elements)

	course, err := legend.course(courseRef, raw.ID)
	if err != nil {
		return model.Period{}, err
	}
	room, err := legend.room(roomRef, raw.ID)
	if err != nil {
		return model.Period{}, err
	}

	start := clockTime(raw.Date, raw.StartTime, zone)
	end := clockTime(raw.Date, raw.EndTime, zone)

	priority := model.PriorityNeutral
	if raw.Priority != nil {
		priority = clampPriority(*raw.Priority)
	}

	p := model.Period{
		ID:          raw.ID,
		Start:       start,
		End:         end,
		Course:      course,
		Room:        room,
		Code:        lessonCode(raw),
		State:       cellState(raw.CellState),
		Priority:    priority,
		Note:        raw.Note,
		IsCancelled: raw.Is.Cancelled,
		IsStandard:  raw.Is.Standard,
		IsEvent:     raw.Is.Event,
	}

	if raw.Reschedule != nil {
		rs := &model.Reschedule{
			Start:    clockTime(raw.Reschedule.Date, raw.Reschedule.StartTime, zone),
			End:      clockTime(raw.Reschedule.Date, raw.Reschedule.EndTime, zone),
			IsSource: raw.Reschedule.IsSource,
		}
		p.Reschedule = rs
		// The calendar projection has no reschedule field; fold it into
		// the note so the information survives the round-trip.
		p.Note = appendRescheduleNote(p.Note, rs)
	}

	return p, nil
}

// splitElements picks the course and room references out of the raw
// elements array. An absent reference stays the zero ref and resolves
// to Missing, which the caller treats as fatal.
func splitElements(elems []ElementRef) (course, room ElementRef) {
	for _, e := range elems {
		switch e.Type {
		case ElementCourse:
			if course == (ElementRef{}) {
				course = e
			}
		case ElementRoom:
			if room == (ElementRef{}) {
				room = e
			}
		}
	}
	if course == (ElementRef{}) {
		course = ElementRef{Type: ElementCourse}
	}
	if room == (ElementRef{}) {
		room = ElementRef{Type: ElementRoom}
	}
	return course, room
}

// clockTime builds a wall-clock instant from the provider's YYYYMMDD
// date and zero-padded HHmm time values.
func clockTime(date, hhmm int, zone *time.Location) time.Time {
	year := date / 10000
	month := (date / 100) % 100
	day := date % 100
	hour := hhmm / 100
	minute := hhmm % 100
	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, zone)
}

func clampPriority(p int) int {
	if p < 1 {
		return 1
	}
	if p > 9 {
		return 9
	}
	return p
}

func lessonCode(raw RawPeriod) model.LessonCode {
	switch strings.ToUpper(raw.LessonCode) {
	case "STANDARD", "LESSON":
		return model.CodeStandard
	case "ADDITIONAL":
		return model.CodeAdditional
	case "CANCEL", "CANCELLED":
		return model.CodeCancel
	case "SUBSTITUTION":
		return model.CodeSubstitution
	case "BREAK":
		return model.CodeBreak
	case "SUMMARY":
		return model.CodeSummary
	case "PRIO":
		return model.CodePrio
	}
	if raw.Is.Cancelled {
		return model.CodeCancel
	}
	return model.CodeStandard
}

func cellState(s string) model.CellState {
	switch strings.ToUpper(s) {
	case "EXAM":
		return model.StateExam
	case "SUBSTITUTION":
		return model.StateSubstitution
	case "SHIFT":
		return model.StateShift
	case "CANCEL":
		return model.StateCancel
	case "ADDITIONAL":
		return model.StateAdditional
	default:
		return model.StateStandard
	}
}

func appendRescheduleNote(note string, rs *model.Reschedule) string {
	dir := "moved to"
	if rs.IsSource {
		dir = "moved from"
	}
	tag := fmt.Sprintf("[%s %s-%s]", dir,
		rs.Start.Format("20060102 1504"), rs.End.Format("1504"))
	if note == "" {
		return tag
	}
	return note + " " + tag
}
