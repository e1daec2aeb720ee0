package ical

import (
	"sort"

	"villa-portal-service/internal/domain/entity"
)

// Upcoming sorts events by start date and drops those that ended before today.
// today is a "YYYY-MM-DD" string; fixed-width dates compare lexicographically.
func Upcoming(events []entity.BookingEvent, today string) []entity.BookingEvent {
	out := make([]entity.BookingEvent, 0, len(events))
	for _, ev := range events {
		if ev.EndDate >= today {
			out = append(out, ev)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartDate < out[j].StartDate
	})
	return out
}
