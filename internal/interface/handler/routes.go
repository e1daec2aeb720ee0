package handler

import (
	"villa-portal-service/internal/domain/entity"

	"github.com/go-chi/chi/v5"
)

// Mount registers the /api routes on r. Staff routes require a bearer token
// with the staff or admin role.
func (h *Handlers) Mount(r chi.Router, parser TokenParser) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/calendar", h.GetCalendar)
		r.Get("/calendar/export.ics", h.ExportCalendar)
		r.Get("/reservations/current", h.CurrentReservation)

		r.Route("/auth", func(r chi.Router) {
			r.Get("/invite", h.LookupInvite)
			r.Post("/register", h.Register)
			r.Get("/verify", h.VerifyEmail)
			r.Post("/login", h.Login)
		})

		r.Route("/staff", func(r chi.Router) {
			r.Use(RequireRole(parser, entity.RoleStaff, entity.RoleAdmin))
			r.Get("/reservations", h.ListReservations)
			r.Post("/reservations", h.CreateReservation)
			r.Post("/reservations/reconcile", h.ReconcileReservations)
			r.Post("/reservations/{id}/cancel", h.CancelReservation)
			r.Post("/pre-registrations", h.InviteGuest)
		})
	})
}
