package ics

import (
	"time"

	"github.com/teambition/rrule-go"
)

// The published envelope carries one static timezone definition with a
// fixed daylight-saving rule: last Sunday of March 02:00 to last
// Sunday of October 03:00, +1h standard / +2h daylight offsets.

// dstRule evaluates the fixed transition rule for arbitrary years.
type dstRule struct {
	begin *rrule.RRule // last Sunday of March, 02:00
	end   *rrule.RRule // last Sunday of October, 03:00
}

func newDSTRule(loc *time.Location) (*dstRule, error) {
	begin, err := rrule.StrToRRule("FREQ=YEARLY;BYMONTH=3;BYDAY=-1SU")
	if err != nil {
		return nil, err
	}
	begin.DTStart(time.Date(1970, 3, 29, 2, 0, 0, 0, loc))

	end, err := rrule.StrToRRule("FREQ=YEARLY;BYMONTH=10;BYDAY=-1SU")
	if err != nil {
		return nil, err
	}
	end.DTStart(time.Date(1970, 10, 25, 3, 0, 0, 0, loc))

	return &dstRule{begin: begin, end: end}, nil
}

// active reports whether t falls inside the daylight-saving span of
// its own year under the fixed rule.
func (r *dstRule) active(t time.Time) bool {
	yearStart := time.Date(t.Year(), 1, 1, 0, 0, 0, 0, t.Location())
	begin := r.begin.After(yearStart, true)
	end := r.end.After(yearStart, true)
	return !t.Before(begin) && t.Before(end)
}

// vtimezoneLines is the static VTIMEZONE definition of the envelope.
func vtimezoneLines(tzid string) []string {
	return []string{
		"BEGIN:VTIMEZONE",
		"TZID:" + tzid,
		"BEGIN:DAYLIGHT",
		"TZOFFSETFROM:+0100",
		"TZOFFSETTO:+0200",
		"DTSTART:19700329T020000",
		"RRULE:FREQ=YEARLY;BYMONTH=3;BYDAY=-1SU",
		"END:DAYLIGHT",
		"BEGIN:STANDARD",
		"TZOFFSETFROM:+0200",
		"TZOFFSETTO:+0100",
		"DTSTART:19701025T030000",
		"RRULE:FREQ=YEARLY;BYMONTH=10;BYDAY=-1SU",
		"END:STANDARD",
		"END:VTIMEZONE",
	}
}
