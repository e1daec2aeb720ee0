package utils

import (
	"fmt"
	"time"

	"villa-portal-service/pkg/clock"
)

// Calendar date handling.
//
// Calendar dates are kept in two forms: "YYYY-MM-DD" strings on the feed side and
// time.Time values pinned to 00:00 UTC on the storage side. Both compare correctly
// (lexicographically and chronologically) and neither carries a time of day.

const (
	DATE_LAYOUT      = "2006-01-02"
	ICAL_DATE_LAYOUT = "20060102"
)

// NormalizeICalDate converts an iCal DATE ("20240115") or UTC DATE-TIME
// ("20240115T140000Z") value into "2024-01-15". The date digits are taken
// verbatim; any time of day is dropped without timezone conversion.
func NormalizeICalDate(value string) (string, bool) {
	switch {
	case len(value) == 8 && allDigits(value):
	case len(value) == 16 && value[8] == 'T' && value[15] == 'Z' && allDigits(value[:8]) && allDigits(value[9:15]):
	default:
		return "", false
	}
	return value[0:4] + "-" + value[4:6] + "-" + value[6:8], true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// CalendarDate returns the calendar date of t as seen in loc, pinned to 00:00 UTC
func CalendarDate(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// Today is the current calendar date in loc, pinned to 00:00 UTC
func Today(c clock.Clock, loc *time.Location) time.Time {
	return CalendarDate(c.Now(), loc)
}

// ParseCalendarDate parses "YYYY-MM-DD" into 00:00 UTC of that date
func ParseCalendarDate(value string) (time.Time, error) {
	t, err := time.Parse(DATE_LAYOUT, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid calendar date %q: %w", value, err)
	}
	return t, nil
}

// FormatCalendarDate renders a pinned calendar date as "YYYY-MM-DD"
func FormatCalendarDate(t time.Time) string {
	return t.UTC().Format(DATE_LAYOUT)
}

// RangesOverlap reports whether two half-open stays [inA, outA) and [inB, outB)
// share a night. A checkout on the same day as the next check-in is not an overlap.
func RangesOverlap(inA, outA, inB, outB time.Time) bool {
	return inA.Before(outB) && inB.Before(outA)
}

// LoadLocationOrUTC resolves an IANA zone name, falling back to UTC
func LoadLocationOrUTC(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC, err
	}
	return loc, nil
}
