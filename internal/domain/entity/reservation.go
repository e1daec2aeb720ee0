package entity

import (
	"time"
)

// ReservationStatus is the lifecycle state of a stored reservation
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationUpcoming  ReservationStatus = "upcoming"
	ReservationCurrent   ReservationStatus = "current"
	ReservationCompleted ReservationStatus = "completed"
	ReservationCancelled ReservationStatus = "cancelled"
)

// IsTerminal reports whether no automatic transition may leave this status
func (s ReservationStatus) IsTerminal() bool {
	return s == ReservationCompleted || s == ReservationCancelled
}

// Valid reports whether s is a known status
func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationPending, ReservationUpcoming, ReservationCurrent, ReservationCompleted, ReservationCancelled:
		return true
	}
	return false
}

// ReservationSource is the channel that produced a reservation
type ReservationSource string

const (
	SourceAirbnb  ReservationSource = "airbnb"
	SourceBooking ReservationSource = "booking"
	SourceVrbo    ReservationSource = "vrbo"
	SourceDirect  ReservationSource = "direct"
	SourceOther   ReservationSource = "other"
)

// Notes tags swapped when an invite-backed reservation is confirmed
const (
	PreReservationTag = "[PRE-RESERVATION]"
	ConfirmedTag      = "[CONFIRMED]"
)

// Reservation is a persisted booking record.
//
// CheckInDate and CheckOutDate hold calendar dates as 00:00 UTC of that date;
// the time of day lives in CheckInTime / CheckOutTime.
type Reservation struct {
	ID                string            `json:"id" bson:"_id,omitempty"`
	UserID            string            `json:"userId,omitempty" bson:"userId,omitempty"`
	PreRegistrationID string            `json:"preRegistrationId,omitempty" bson:"preRegistrationId,omitempty"`
	GuestName         string            `json:"guestName" bson:"guestName"`
	GuestEmail        string            `json:"guestEmail" bson:"guestEmail"`
	Guests            int               `json:"guests" bson:"guests"`
	CheckInDate       time.Time         `json:"checkInDate" bson:"checkInDate"`
	CheckOutDate      time.Time         `json:"checkOutDate" bson:"checkOutDate"`
	CheckInTime       string            `json:"checkInTime,omitempty" bson:"checkInTime,omitempty"`
	CheckOutTime      string            `json:"checkOutTime,omitempty" bson:"checkOutTime,omitempty"`
	Status            ReservationStatus `json:"status" bson:"status"`
	Source            ReservationSource `json:"source" bson:"source"`
	ReservationCode   string            `json:"reservationCode,omitempty" bson:"reservationCode,omitempty"`
	Notes             string            `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt         time.Time         `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt" bson:"updatedAt"`
}

// StatusTransition describes one bulk status move. A reservation matches when
// its status is one of From and every non-nil date bound holds.
type StatusTransition struct {
	From []ReservationStatus
	To   ReservationStatus

	CheckInOnOrBefore *time.Time
	CheckOutAfter     *time.Time
	CheckOutBefore    *time.Time
}

// Matches evaluates the transition condition against a single reservation
func (t StatusTransition) Matches(r *Reservation) bool {
	fromOK := false
	for _, s := range t.From {
		if r.Status == s {
			fromOK = true
			break
		}
	}
	if !fromOK {
		return false
	}
	if t.CheckInOnOrBefore != nil && r.CheckInDate.After(*t.CheckInOnOrBefore) {
		return false
	}
	if t.CheckOutAfter != nil && !r.CheckOutDate.After(*t.CheckOutAfter) {
		return false
	}
	if t.CheckOutBefore != nil && !r.CheckOutDate.Before(*t.CheckOutBefore) {
		return false
	}
	return true
}

// ReservationQuery selects the first reservation ordered by checkInDate, then createdAt
type ReservationQuery struct {
	Statuses         []ReservationStatus
	CheckInAfter     *time.Time
	CheckInOnOrAfter *time.Time
}

// Matches evaluates the query against a single reservation
func (q ReservationQuery) Matches(r *Reservation) bool {
	if len(q.Statuses) > 0 {
		ok := false
		for _, s := range q.Statuses {
			if r.Status == s {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if q.CheckInAfter != nil && !r.CheckInDate.After(*q.CheckInAfter) {
		return false
	}
	if q.CheckInOnOrAfter != nil && r.CheckInDate.Before(*q.CheckInOnOrAfter) {
		return false
	}
	return true
}

// CurrentReservation is the consumer-facing view of the stay in progress and the next one
type CurrentReservation struct {
	Current *Reservation `json:"current"`
	Guest   *User        `json:"guest"`
	Next    *Reservation `json:"next"`
}
