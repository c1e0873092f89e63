package ics

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "untiscal/internal/log"
	"untiscal/internal/model"
)

// ErrMalformedContainer is returned when an event container does not
// hold exactly one BEGIN/END delimiter pair.
var ErrMalformedContainer = errors.New("malformed event container")

// Decode parses a previously published calendar back into Periods,
// marked preExisting so later stages can tell them from fresh data.
//
// Structural container errors and absent required fields are fatal.
// A missing PRIORITY or TRANSP tag is defaulted with a warning.
func (c *Codec) Decode(body []byte) ([]model.Period, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	if err := scanContainers(body); err != nil {
		return nil, err
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("calendar parse: %w", err)
	}

	shift := c.displayShift()

	out := make([]model.Period, 0, len(cal.Events()))
	for _, ve := range cal.Events() {
		p, err := c.decodeEvent(ve, shift)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	model.Sort(out)
	return out, nil
}

// scanContainers validates event delimiter pairing before the parser
// runs: nested, stray or unterminated delimiters reject the input.
func scanContainers(body []byte) error {
	sc := bufio.NewScanner(bytes.NewReader(body))
	inEvent := false
	events := 0

	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		switch line {
		case "BEGIN:VEVENT":
			if inEvent {
				return ErrMalformedContainer
			}
			inEvent = true
			events++
		case "END:VEVENT":
			if !inEvent {
				return ErrMalformedContainer
			}
			inEvent = false
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	if inEvent {
		return ErrMalformedContainer
	}
	return nil
}

func (c *Codec) decodeEvent(ve *ical.VEvent, shift time.Duration) (model.Period, error) {
	var p model.Period

	uid, err := requireProp(ve, ical.ComponentPropertyUniqueId, "UID")
	if err != nil {
		return p, err
	}

	id, err := parseUID(uid)
	if err != nil {
		return p, err
	}
	p.ID = id

	startProp := ve.GetProperty(ical.ComponentPropertyDtStart)
	endProp := ve.GetProperty(ical.ComponentPropertyDtEnd)
	if startProp == nil || startProp.Value == "" {
		return p, fmt.Errorf("event %s: missing required field DTSTART", uid)
	}
	if endProp == nil || endProp.Value == "" {
		return p, fmt.Errorf("event %s: missing required field DTEND", uid)
	}

	allDay := isDateValue(startProp)

	start, err := c.parseStamp(startProp.Value)
	if err != nil {
		return p, fmt.Errorf("event %s: DTSTART: %w", uid, err)
	}
	end, err := c.parseStamp(endProp.Value)
	if err != nil {
		return p, fmt.Errorf("event %s: DTEND: %w", uid, err)
	}

	if allDay {
		p.Start = start
		// The published all-day end is exclusive (date+1).
		p.End = end.AddDate(0, 0, -1)
	} else {
		p.Start = start.Add(-shift)
		p.End = end.Add(-shift)
	}

	location, err := requireProp(ve, ical.ComponentPropertyLocation, "LOCATION")
	if err != nil {
		return p, err
	}
	summary, err := requireProp(ve, ical.ComponentPropertySummary, "SUMMARY")
	if err != nil {
		return p, err
	}
	description, err := requireProp(ve, ical.ComponentPropertyDescription, "DESCRIPTION")
	if err != nil {
		return p, err
	}
	status, err := requireProp(ve, ical.ComponentProperty("STATUS"), "STATUS")
	if err != nil {
		return p, err
	}
	category, err := requireProp(ve, ical.ComponentProperty("CATEGORIES"), "CATEGORIES")
	if err != nil {
		return p, err
	}

	summary = unescapeText(summary)

	p.Room = model.Room{Name: unescapeText(location)}
	p.Title = summary
	p.Course = model.Course{Name: summary}
	p.Note = unescapeText(description)
	p.Code = model.LessonCode(category)

	switch status {
	case statusCancelled:
		p.IsCancelled = true
		p.State = model.StateCancel
	case statusTentative:
		p.State = model.StateShift
	default:
		// Unrecognized statuses read as confirmed.
		p.State = model.StateStandard
	}

	// Recover the internal priority by inverting the published scale.
	if prio := ve.GetProperty(ical.ComponentProperty("PRIORITY")); prio != nil && prio.Value != "" {
		v, err := strconv.Atoi(strings.TrimSpace(prio.Value))
		if err != nil {
			return p, fmt.Errorf("event %s: PRIORITY: %w", uid, err)
		}
		p.Priority = clampInternal(10 - v)
	} else {
		appLog.Warn("event missing PRIORITY tag, defaulting to neutral", "uid", uid)
		p.Priority = model.PriorityNeutral
	}

	// Transparency is derived from the status on encode; the decoded
	// value only matters when it is absent.
	if transp := ve.GetProperty(ical.ComponentProperty("TRANSP")); transp == nil || transp.Value == "" {
		appLog.Warn("event missing TRANSP tag, deriving from status", "uid", uid, "status", status)
	}

	p.PreExisting = true
	return p, nil
}

func requireProp(ve *ical.VEvent, prop ical.ComponentProperty, tag string) (string, error) {
	p := ve.GetProperty(prop)
	if p == nil {
		uid := "?"
		if u := ve.GetProperty(ical.ComponentPropertyUniqueId); u != nil {
			uid = u.Value
		}
		return "", fmt.Errorf("event %s: missing required field %s", uid, tag)
	}
	return p.Value, nil
}

// parseUID recovers the numeric period id from a published UID.
func parseUID(uid string) (int, error) {
	rest, ok := strings.CutPrefix(uid, uidPrefix)
	if !ok {
		return 0, fmt.Errorf("foreign UID %q", uid)
	}
	rest, _, _ = strings.Cut(rest, "@")
	id, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("foreign UID %q", uid)
	}
	return id, nil
}

// isDateValue detects the all-day form: VALUE=DATE or a value without
// a time component.
func isDateValue(prop *ical.IANAProperty) bool {
	if params := prop.ICalParameters; params != nil {
		if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			return true
		}
	}
	return !strings.Contains(prop.Value, "T")
}

// parseStamp parses the published date/date-time forms in the codec's
// target zone.
func (c *Codec) parseStamp(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}
	if strings.HasSuffix(v, "Z") {
		return time.Parse(dateTimeLayout+"Z0700", v)
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation(dateTimeLayout, v, c.zone)
	}
	return time.ParseInLocation(dateLayout, v, c.zone)
}

// unescapeText inverts the encoder's TEXT escaping. The parser hands
// property values through verbatim, so this is the only unescape step.
func unescapeText(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n', 'N':
			sb.WriteByte('\n')
		default:
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

func clampInternal(p int) int {
	if p < 1 {
		return 1
	}
	if p > 9 {
		return 9
	}
	return p
}
