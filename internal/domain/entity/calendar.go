package entity

import (
	"time"
)

// BookingStatusBlocked is the only status a feed event can carry
const BookingStatusBlocked = "blocked"

// BookingEvent is one occupied range parsed from an external calendar feed.
// StartDate and EndDate are YYYY-MM-DD strings.
type BookingEvent struct {
	UID             string `json:"uid"`
	Summary         string `json:"summary"`
	StartDate       string `json:"startDate"`
	EndDate         string `json:"endDate"`
	Status          string `json:"status"`
	ReservationCode string `json:"reservationCode,omitempty"`
}

// IsMalformed reports an event whose range runs backwards
func (e BookingEvent) IsMalformed() bool {
	return e.StartDate > e.EndDate
}

// ReservationRef is the display-level link from a feed event to a stored reservation
type ReservationRef struct {
	ID        string            `json:"id"`
	Status    ReservationStatus `json:"status"`
	GuestName string            `json:"guestName"`
}

// CalendarEvent is a BookingEvent as served by the calendar read path
type CalendarEvent struct {
	BookingEvent
	Reservation *ReservationRef `json:"reservation,omitempty"`
}

// CalendarFeed is the calendar read path response
type CalendarFeed struct {
	Events      []CalendarEvent `json:"events"`
	TotalEvents int             `json:"totalEvents"`
	LastSync    *time.Time      `json:"lastSync,omitempty"`
	CalendarURL *string         `json:"calendarUrl"`
	Message     string          `json:"message,omitempty"`
}

// CachedFeed is a raw feed body kept for the freshness window
type CachedFeed struct {
	Body      string    `json:"body"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// Property is the rental property record
type Property struct {
	ID           string    `json:"id" bson:"_id,omitempty" yaml:"-"`
	Slug         string    `json:"slug" bson:"slug" yaml:"slug"`
	Name         string    `json:"name" bson:"name" yaml:"name"`
	CalendarURL  string    `json:"calendarUrl,omitempty" bson:"calendarUrl,omitempty" yaml:"calendar_url"`
	Timezone     string    `json:"timezone,omitempty" bson:"timezone,omitempty" yaml:"timezone"`
	CheckInTime  string    `json:"checkInTime,omitempty" bson:"checkInTime,omitempty" yaml:"check_in_time"`
	CheckOutTime string    `json:"checkOutTime,omitempty" bson:"checkOutTime,omitempty" yaml:"check_out_time"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt" yaml:"-"`
}
