package ics

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"untiscal/internal/model"
)

const (
	productID = "-//untiscal//timetable export//EN"

	uidPrefix = "untiscal-"
	uidDomain = "untiscal"

	dateLayout     = "20060102"
	dateTimeLayout = "20060102T150405"

	statusConfirmed = "CONFIRMED"
	statusTentative = "TENTATIVE"
	statusCancelled = "CANCELLED"
)

// CalendarEvent is the calendar-text projection of a Period.
type CalendarEvent struct {
	UID         string
	Start       time.Time
	End         time.Time
	AllDay      bool
	Location    string
	Summary     string
	Description string
	Status      string
	Category    string
	// Priority is on the published 1..9 scale, lower = more urgent;
	// the inverse of the internal scale.
	Priority    int
	Transparent bool
}

// Codec maps Periods to calendar text and back. Decode consumes only
// text this codec previously emitted.
type Codec struct {
	zone      *time.Location
	zoneID    string
	overrides map[string]string
	now       func() time.Time
	dst       *dstRule
}

// NewCodec builds a codec for the target zone. now may be nil.
func NewCodec(zoneID string, overrides map[string]string, now func() time.Time) (*Codec, error) {
	loc, err := time.LoadLocation(zoneID)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", zoneID, err)
	}
	dst, err := newDSTRule(loc)
	if err != nil {
		return nil, err
	}
	if now == nil {
		now = time.Now
	}
	return &Codec{
		zone:      loc,
		zoneID:    zoneID,
		overrides: overrides,
		now:       now,
		dst:       dst,
	}, nil
}

// displayShift is the uniform correction for the provider's display
// offset: while daylight-saving time is active at generation time
// (per the fixed rule, not the event's own date) timed events are
// emitted one hour late and taken back one hour on decode. The rule
// compensates a source-side rendering quirk and is intentionally not
// keyed to each event's date.
func (c *Codec) displayShift() time.Duration {
	if c.dst.active(c.now().In(c.zone)) {
		return time.Hour
	}
	return 0
}

// Event projects a Period onto its calendar representation.
func (c *Codec) Event(p model.Period) CalendarEvent {
	ev := CalendarEvent{
		UID:         fmt.Sprintf("%s%d@%s", uidPrefix, p.ID, uidDomain),
		Start:       p.Start,
		End:         p.End,
		AllDay:      p.Code == model.CodeSummary,
		Location:    p.Room.Display(),
		Summary:     p.Title,
		Description: p.Note,
		Status:      statusFor(p),
		Category:    string(p.Code),
		Priority:    10 - p.Priority,
	}
	if ev.Summary == "" {
		ev.Summary = p.Course.Display(c.overrides)
	}
	ev.Transparent = ev.Status != statusConfirmed
	return ev
}

// statusFor maps the cell state to the published status. Unrecognized
// states read as confirmed.
func statusFor(p model.Period) string {
	if p.IsCancelled || p.State == model.StateCancel || p.Code == model.CodeCancel {
		return statusCancelled
	}
	switch p.State {
	case model.StateExam, model.StateSubstitution, model.StateShift:
		return statusTentative
	}
	return statusConfirmed
}

// Encode serializes the given periods, in the order given, into one
// calendar document with the shared envelope and the static timezone
// definition. Output bytes are stable: encoding an unchanged decoded
// period reproduces its original text.
func (c *Codec) Encode(periods []model.Period) []byte {
	var buf bytes.Buffer
	shift := c.displayShift()

	writeLine(&buf, "BEGIN:VCALENDAR")
	writeLine(&buf, "VERSION:2.0")
	writeLine(&buf, "PRODID:"+productID)
	writeLine(&buf, "CALSCALE:GREGORIAN")
	writeLine(&buf, "METHOD:PUBLISH")
	for _, l := range vtimezoneLines(c.zoneID) {
		writeLine(&buf, l)
	}

	for _, p := range periods {
		c.writeEvent(&buf, c.Event(p), shift)
	}

	writeLine(&buf, "END:VCALENDAR")
	return buf.Bytes()
}

func (c *Codec) writeEvent(buf *bytes.Buffer, ev CalendarEvent, shift time.Duration) {
	writeLine(buf, "BEGIN:VEVENT")
	writeLine(buf, "UID:"+ev.UID)

	if ev.AllDay {
		start := ev.Start.In(c.zone)
		end := ev.End.In(c.zone).AddDate(0, 0, 1)
		writeLine(buf, "DTSTART;VALUE=DATE:"+start.Format(dateLayout))
		writeLine(buf, "DTEND;VALUE=DATE:"+end.Format(dateLayout))
	} else {
		start := ev.Start.In(c.zone).Add(shift)
		end := ev.End.In(c.zone).Add(shift)
		writeLine(buf, "DTSTART;TZID="+c.zoneID+":"+start.Format(dateTimeLayout))
		writeLine(buf, "DTEND;TZID="+c.zoneID+":"+end.Format(dateTimeLayout))
	}

	writeLine(buf, "LOCATION:"+escapeText(ev.Location))
	writeLine(buf, "SUMMARY:"+escapeText(ev.Summary))
	writeLine(buf, "DESCRIPTION:"+escapeText(ev.Description))
	writeLine(buf, "STATUS:"+ev.Status)
	writeLine(buf, "CATEGORIES:"+ev.Category)
	writeLine(buf, "PRIORITY:"+strconv.Itoa(ev.Priority))
	if ev.Transparent {
		writeLine(buf, "TRANSP:TRANSPARENT")
	} else {
		writeLine(buf, "TRANSP:OPAQUE")
	}
	writeLine(buf, "END:VEVENT")
}

func writeLine(buf *bytes.Buffer, line string) {
	buf.WriteString(line)
	buf.WriteString("\r\n")
}

// escapeText keeps a free-text value on one property line. Provider
// notes are arbitrary text; newlines, backslashes and the TEXT
// separators are escaped per RFC 5545 so the published block stays
// structurally valid. Decode inverts this exactly, so escaped values
// still round-trip byte-for-byte. CRLF and bare CR collapse into one
// escaped newline.
func escapeText(s string) string {
	if !strings.ContainsAny(s, "\\;,\r\n") {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			sb.WriteString(`\\`)
		case ';':
			sb.WriteString(`\;`)
		case ',':
			sb.WriteString(`\,`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
			sb.WriteString(`\n`)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
