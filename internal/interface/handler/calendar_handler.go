package handler

import (
	"errors"
	"net/http"

	"villa-portal-service/internal/domain/entity"
	"villa-portal-service/internal/interface/calendar"
)

const calendarUnavailableMessage = "Unable to load the booking calendar right now"

type calendarErrorResponse struct {
	Error  string                 `json:"error"`
	Code   string                 `json:"code"`
	Events []entity.CalendarEvent `json:"events"`
}

// GetCalendar serves upcoming booking blocks from the external feed
func (h *Handlers) GetCalendar(w http.ResponseWriter, r *http.Request) {
	feed, err := h.calendar.GetFeed(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		code := CodeInternalError
		var fetchErr *calendar.FetchError
		if errors.As(err, &fetchErr) {
			status = http.StatusBadGateway
			code = CodeUpstream
		}
		h.logger.Error("Calendar feed unavailable", "error", err)
		writeJSON(w, status, calendarErrorResponse{
			Error:  calendarUnavailableMessage,
			Code:   code,
			Events: []entity.CalendarEvent{},
		})
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

// ExportCalendar renders active reservations as an iCal feed
func (h *Handlers) ExportCalendar(w http.ResponseWriter, r *http.Request) {
	body, err := h.calendar.ExportICS(r.Context())
	if err != nil {
		h.fail(w, r, "calendar_export", err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="reservations.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
