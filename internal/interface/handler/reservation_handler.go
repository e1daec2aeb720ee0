package handler

import (
	"net/http"

	"villa-portal-service/internal/domain/entity"
	"villa-portal-service/internal/usecase"
	"villa-portal-service/pkg/utils"

	"github.com/go-chi/chi/v5"
)

type createReservationRequest struct {
	UserID          string `json:"userId" validate:"required"`
	CheckInDate     string `json:"checkInDate" validate:"required,datetime=2006-01-02"`
	CheckOutDate    string `json:"checkOutDate" validate:"required,datetime=2006-01-02"`
	Guests          int    `json:"guests" validate:"min=1,max=30"`
	Source          string `json:"source" validate:"omitempty,oneof=airbnb booking vrbo direct other"`
	ReservationCode string `json:"reservationCode" validate:"omitempty,alphanum,max=32"`
	Notes           string `json:"notes" validate:"max=2000"`
}

type reconcileResponse struct {
	Today     string `json:"today"`
	Current   int64  `json:"current"`
	Completed int64  `json:"completed"`
	Confirmed int64  `json:"confirmed"`
}

// CurrentReservation reconciles statuses, then returns the stay in progress and the next one
func (h *Handlers) CurrentReservation(w http.ResponseWriter, r *http.Request) {
	view, err := h.reservations.Current(r.Context())
	if err != nil {
		h.fail(w, r, "current_reservation", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// CreateReservation stores a direct booking for an existing guest
func (h *Handlers) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req createReservationRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), CodeInvalidInput)
		return
	}

	reservation, err := h.reservations.Create(r.Context(), usecase.CreateReservationInput{
		UserID:          req.UserID,
		CheckInDate:     req.CheckInDate,
		CheckOutDate:    req.CheckOutDate,
		Guests:          req.Guests,
		Source:          entity.ReservationSource(req.Source),
		ReservationCode: req.ReservationCode,
		Notes:           req.Notes,
	})
	if err != nil {
		h.fail(w, r, "create_reservation", err)
		return
	}
	writeJSON(w, http.StatusCreated, reservation)
}

// CancelReservation cancels a non-terminal reservation
func (h *Handlers) CancelReservation(w http.ResponseWriter, r *http.Request) {
	reservation, err := h.reservations.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "cancel_reservation", err)
		return
	}
	writeJSON(w, http.StatusOK, reservation)
}

// ListReservations lists reservations, optionally filtered by ?status=a,b
func (h *Handlers) ListReservations(w http.ResponseWriter, r *http.Request) {
	reservations, err := h.reservations.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.fail(w, r, "list_reservations", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reservations": reservations,
		"count":        len(reservations),
	})
}

// ReconcileReservations runs a reconciliation pass on demand
func (h *Handlers) ReconcileReservations(w http.ResponseWriter, r *http.Request) {
	result, err := h.reservations.Reconcile(r.Context())
	if err != nil {
		h.fail(w, r, "reconcile", err)
		return
	}
	writeJSON(w, http.StatusOK, reconcileResponse{
		Today:     utils.FormatCalendarDate(result.Today),
		Current:   result.Current,
		Completed: result.Completed,
		Confirmed: result.Confirmed,
	})
}
