package entity

import (
	"errors"
	"time"
)

// OutboundEmail is a transactional message handed to a mail transport
type OutboundEmail struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// Validate checks the fields every transport needs
func (m *OutboundEmail) Validate() error {
	if m.To == "" {
		return errors.New("email recipient is required")
	}
	if m.Subject == "" {
		return errors.New("email subject is required")
	}
	if m.Text == "" && m.HTML == "" {
		return errors.New("email must have a text or html body")
	}
	return nil
}

// Event bus subjects
const (
	SubjectReservationConfirmed  = "reservation.confirmed"
	SubjectReservationReconciled = "reservation.reconciled"
	SubjectReservationCancelled  = "reservation.cancelled"
)

// ReservationConfirmedEvent is published after the verification fan-out
type ReservationConfirmedEvent struct {
	PreRegistrationID string    `json:"preRegistrationId"`
	UserID            string    `json:"userId"`
	Confirmed         int64     `json:"confirmed"`
	OccurredAt        time.Time `json:"occurredAt"`
}

// ReservationReconciledEvent is published when a reconcile pass changed anything
type ReservationReconciledEvent struct {
	Today      string    `json:"today"`
	Current    int64     `json:"current"`
	Completed  int64     `json:"completed"`
	OccurredAt time.Time `json:"occurredAt"`
}

// ReservationCancelledEvent is published on staff cancellation
type ReservationCancelledEvent struct {
	ReservationID string    `json:"reservationId"`
	OccurredAt    time.Time `json:"occurredAt"`
}
