// Package handler exposes the portal use cases over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"villa-portal-service/internal/domain/entity"
	"villa-portal-service/internal/usecase"
	"villa-portal-service/pkg/logger"

	"github.com/go-playground/validator/v10"
)

// CalendarReader serves the external booking feed
type CalendarReader interface {
	GetFeed(ctx context.Context) (*entity.CalendarFeed, error)
	ExportICS(ctx context.Context) (string, error)
}

// ReservationManager serves reservation reads and staff edits
type ReservationManager interface {
	Current(ctx context.Context) (*entity.CurrentReservation, error)
	Create(ctx context.Context, input usecase.CreateReservationInput) (*entity.Reservation, error)
	Cancel(ctx context.Context, id string) (*entity.Reservation, error)
	List(ctx context.Context, statuses string) ([]*entity.Reservation, error)
	Reconcile(ctx context.Context) (*usecase.ReconcileResult, error)
}

// GuestOnboarding runs invitation, registration and verification
type GuestOnboarding interface {
	InviteGuest(ctx context.Context, input usecase.InviteInput) (*usecase.InviteResult, error)
	LookupInvite(ctx context.Context, token string) (*entity.PreRegistration, error)
	Register(ctx context.Context, input usecase.RegisterInput) (*entity.User, error)
	VerifyEmail(ctx context.Context, token string) (*usecase.VerifyResult, error)
}

// Authenticator exchanges credentials for a token
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, *entity.User, error)
}

// Handlers groups the HTTP handlers of the portal API
type Handlers struct {
	calendar     CalendarReader
	reservations ReservationManager
	onboarding   GuestOnboarding
	auth         Authenticator
	validate     *validator.Validate
	logger       logger.Logger
}

// New creates the portal handlers
func New(
	calendar CalendarReader,
	reservations ReservationManager,
	onboarding GuestOnboarding,
	auth Authenticator,
	logger logger.Logger,
) *Handlers {
	return &Handlers{
		calendar:     calendar,
		reservations: reservations,
		onboarding:   onboarding,
		auth:         auth,
		validate:     validator.New(),
		logger:       logger,
	}
}

// decode reads a JSON body into dst and runs its validate tags
func (h *Handlers) decode(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := h.validate.Struct(dst); err != nil {
		return validationMessage(err)
	}
	return nil
}

func validationMessage(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid fields: %s", strings.Join(fields, ", "))
}

// fail logs unexpected errors and writes the mapped error body
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code, message := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", "operation", op, "path", r.URL.Path, "error", err)
	} else {
		h.logger.Debug("Request rejected", "operation", op, "path", r.URL.Path, "error", err)
	}
	writeError(w, status, message, code)
}
