package ical

import (
	"time"

	"villa-portal-service/internal/domain/entity"

	ics "github.com/arran4/golang-ical"
)

const exportUIDDomain = "@villa-portal"

// Export renders reservations as an all-day iCal feed that external platforms
// can subscribe to, so direct bookings block dates there as well.
func Export(productID string, reservations []*entity.Reservation, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	if productID != "" {
		cal.SetProductId(productID)
	}

	for _, r := range reservations {
		if r.Status == entity.ReservationCancelled {
			continue
		}
		ev := cal.AddEvent(r.ID + exportUIDDomain)
		ev.SetDtStampTime(stamp)
		ev.SetAllDayStartAt(r.CheckInDate)
		ev.SetAllDayEndAt(r.CheckOutDate)
		ev.SetSummary("Reserved")
		if r.ReservationCode != "" {
			ev.SetDescription("Reservation code: " + r.ReservationCode)
		}
	}

	return cal.Serialize()
}
