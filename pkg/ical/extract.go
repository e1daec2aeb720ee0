package ical

import (
	"regexp"
	"strings"
)

const reservationDetailsFragment = "/reservations/details/"

var (
	// two letters then alphanumerics, directly before the UID's @domain. The
	// code must start the UID or follow a separator, so a hex tail such as
	// "7a4ed3c1@" does not yield "ED3C1".
	uidCodePattern = regexp.MustCompile(`(?:^|[^A-Za-z0-9])([A-Za-z]{2}[A-Za-z0-9]+)@`)

	// same shape as a path segment of the platform's reservation details URL; may contain dashes
	detailsCodePattern = regexp.MustCompile(regexp.QuoteMeta(reservationDetailsFragment) + `([A-Za-z]{2}[A-Za-z0-9-]*)`)

	nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]`)
)

// codeExtractor pulls a reservation code out of an accumulated VEVENT
type codeExtractor struct {
	name    string
	extract func(a accumulator) (string, bool)
}

// defaultExtractors is ordered by priority; the first match wins. The details
// URL in the description is more reliable than the UID for this feed, so it
// is tried first.
var defaultExtractors = []codeExtractor{
	{name: "details-url", extract: codeFromDetails},
	{name: "uid", extract: codeFromUID},
}

func extractCode(extractors []codeExtractor, a accumulator) string {
	for _, ex := range extractors {
		if code, ok := ex.extract(a); ok {
			return code
		}
	}
	return ""
}

func codeFromDetails(a accumulator) (string, bool) {
	for _, line := range a.detailLines {
		m := detailsCodePattern.FindStringSubmatch(line)
		if len(m) < 2 {
			continue
		}
		code := strings.ToUpper(nonAlphanumeric.ReplaceAllString(m[1], ""))
		if code != "" {
			return code, true
		}
	}
	return "", false
}

func codeFromUID(a accumulator) (string, bool) {
	m := uidCodePattern.FindStringSubmatch(a.uid)
	if len(m) < 2 {
		return "", false
	}
	return strings.ToUpper(m[1]), true
}
