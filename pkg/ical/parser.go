// Package ical parses booking-platform iCal feeds into blocked date ranges.
//
// The parser is deliberately lenient: feeds come from third parties, so a
// malformed VEVENT is dropped and scanning continues with the next block.
// Only occupied ranges are exposed by these feeds, so every emitted event is
// "blocked".
package ical

import (
	"fmt"
	"strings"
	"time"

	"villa-portal-service/internal/domain/entity"
	"villa-portal-service/pkg/clock"
	"villa-portal-service/pkg/utils"

	"github.com/google/uuid"
)

const (
	beginEvent = "BEGIN:VEVENT"
	endEvent   = "END:VEVENT"

	DefaultSummary = "Blocked"
)

type parserState int

const (
	stateIdle parserState = iota
	stateInEvent
)

// accumulator collects the fields of the VEVENT currently being read.
// It is replaced wholesale on every BEGIN:VEVENT, never patched across blocks.
type accumulator struct {
	uid       string
	summary   string
	startDate string
	endDate   string

	// detailLines holds DESCRIPTION lines and any line carrying a reservation details URL
	detailLines []string

	// nested counts open sub-components (VALARM etc.) whose lines are ignored
	nested int
}

// Parser converts feed text into booking events
type Parser struct {
	clock      clock.Clock
	extractors []codeExtractor
}

// NewParser creates a parser; c is used only to stamp fallback UIDs
func NewParser(c clock.Clock) *Parser {
	if c == nil {
		c = clock.System()
	}
	return &Parser{
		clock:      c,
		extractors: defaultExtractors,
	}
}

// Parse returns the events of body in feed order. Blocks missing a usable
// DTSTART or DTEND are skipped. Empty or event-less input yields an empty slice.
func (p *Parser) Parse(body string) []entity.BookingEvent {
	events := make([]entity.BookingEvent, 0)

	state := stateIdle
	var acc accumulator

	for _, line := range unfold(body) {
		marker := strings.TrimSpace(line)

		switch state {
		case stateIdle:
			if marker == beginEvent {
				acc = accumulator{}
				state = stateInEvent
			}

		case stateInEvent:
			switch {
			case marker == endEvent && acc.nested == 0:
				if ev, ok := p.emit(acc); ok {
					events = append(events, ev)
				}
				state = stateIdle
			case marker == beginEvent:
				// unterminated block; start over
				acc = accumulator{}
			case strings.HasPrefix(marker, "BEGIN:"):
				acc.nested++
			case strings.HasPrefix(marker, "END:") && acc.nested > 0:
				acc.nested--
			case acc.nested == 0:
				acc.consume(line)
			}
		}
	}

	return events
}

func (a *accumulator) consume(line string) {
	switch {
	case strings.HasPrefix(line, "UID:"):
		a.uid = strings.TrimSpace(line[len("UID:"):])
	case strings.HasPrefix(line, "SUMMARY:"):
		a.summary = strings.TrimSpace(line[len("SUMMARY:"):])
	case strings.HasPrefix(line, "DTSTART"):
		if d, ok := dateValue(line); ok {
			a.startDate = d
		}
	case strings.HasPrefix(line, "DTEND"):
		if d, ok := dateValue(line); ok {
			a.endDate = d
		}
	}

	if strings.HasPrefix(line, "DESCRIPTION:") || strings.Contains(line, reservationDetailsFragment) {
		a.detailLines = append(a.detailLines, line)
	}
}

func (p *Parser) emit(a accumulator) (entity.BookingEvent, bool) {
	if a.startDate == "" || a.endDate == "" {
		return entity.BookingEvent{}, false
	}

	ev := entity.BookingEvent{
		UID:             a.uid,
		Summary:         a.summary,
		StartDate:       a.startDate,
		EndDate:         a.endDate,
		Status:          entity.BookingStatusBlocked,
		ReservationCode: extractCode(p.extractors, a),
	}
	if ev.UID == "" {
		ev.UID = fallbackUID(p.clock.Now())
	}
	if ev.Summary == "" {
		ev.Summary = DefaultSummary
	}
	return ev, true
}

// dateValue reads the value after the first colon of a DTSTART/DTEND line,
// ignoring any ;PARAM=... section.
func dateValue(line string) (string, bool) {
	i := strings.IndexByte(line, ':')
	if i < 0 {
		return "", false
	}
	return utils.NormalizeICalDate(strings.TrimSpace(line[i+1:]))
}

// unfold joins continuation lines (leading space or tab) onto the previous line
func unfold(body string) []string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	body = strings.ReplaceAll(body, "\r", "\n")

	raw := strings.Split(body, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if len(lines) > 0 && (strings.HasPrefix(l, " ") || strings.HasPrefix(l, "\t")) {
			lines[len(lines)-1] += l[1:]
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

func fallbackUID(now time.Time) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%d-%s", now.UnixMilli(), random[:9])
}
