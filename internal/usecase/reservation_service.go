package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"villa-portal-service/internal/domain/entity"
	"villa-portal-service/internal/domain/repository"
	"villa-portal-service/pkg/logger"
	"villa-portal-service/pkg/utils"
)

const listLimit = 500

// CreateReservationInput is a staff-entered direct booking
type CreateReservationInput struct {
	UserID          string
	CheckInDate     string
	CheckOutDate    string
	Guests          int
	Source          entity.ReservationSource
	ReservationCode string
	Notes           string
}

// ReservationService serves the reservation read path and staff edits
type ReservationService struct {
	reservationRepo repository.ReservationRepository
	userRepo        repository.UserRepository
	propertyRepo    repository.PropertyRepository
	reconciler      *ReservationReconciler
	publisher       repository.EventPublisher
	propertySlug    string
	logger          logger.Logger
}

// NewReservationService creates a new reservation service
func NewReservationService(
	reservationRepo repository.ReservationRepository,
	userRepo repository.UserRepository,
	propertyRepo repository.PropertyRepository,
	reconciler *ReservationReconciler,
	publisher repository.EventPublisher,
	propertySlug string,
	logger logger.Logger,
) *ReservationService {
	return &ReservationService{
		reservationRepo: reservationRepo,
		userRepo:        userRepo,
		propertyRepo:    propertyRepo,
		reconciler:      reconciler,
		publisher:       publisher,
		propertySlug:    propertySlug,
		logger:          logger,
	}
}

// Current reconciles, then returns the stay in progress with its guest and the next stay.
// Without a current stay, the next stay is the earliest upcoming one checking in today or later.
func (s *ReservationService) Current(ctx context.Context) (*entity.CurrentReservation, error) {
	result, err := s.reconciler.Reconcile(ctx)
	if err != nil {
		return nil, err
	}

	current, err := s.reservationRepo.FindFirst(ctx, entity.ReservationQuery{
		Statuses: []entity.ReservationStatus{entity.ReservationCurrent},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find current reservation: %w", err)
	}

	view := &entity.CurrentReservation{Current: current}

	next := entity.ReservationQuery{
		Statuses:         []entity.ReservationStatus{entity.ReservationUpcoming},
		CheckInOnOrAfter: &result.Today,
	}
	if current != nil {
		checkOut := current.CheckOutDate
		next = entity.ReservationQuery{
			Statuses:     []entity.ReservationStatus{entity.ReservationUpcoming},
			CheckInAfter: &checkOut,
		}

		if current.UserID != "" {
			guest, err := s.userRepo.FindByID(ctx, current.UserID)
			switch {
			case err == nil:
				view.Guest = guest
			case errors.Is(err, entity.ErrNotFound):
				s.logger.Warn("Current reservation references unknown user",
					"reservationID", current.ID,
					"userID", current.UserID)
			default:
				return nil, fmt.Errorf("failed to load guest: %w", err)
			}
		}
	}

	view.Next, err = s.reservationRepo.FindFirst(ctx, next)
	if err != nil {
		return nil, fmt.Errorf("failed to find next reservation: %w", err)
	}

	return view, nil
}

// Create stores a direct booking as upcoming for an existing guest account.
// Stays sharing a night with a non-cancelled reservation are rejected.
func (s *ReservationService) Create(ctx context.Context, input CreateReservationInput) (*entity.Reservation, error) {
	checkIn, checkOut, err := parseStay(input.CheckInDate, input.CheckOutDate)
	if err != nil {
		return nil, err
	}

	guest, err := s.userRepo.FindByID(ctx, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load guest: %w", err)
	}

	if err := ensureNoOverlap(ctx, s.reservationRepo, checkIn, checkOut); err != nil {
		return nil, err
	}

	source := input.Source
	if source == "" {
		source = entity.SourceDirect
	}

	reservation := &entity.Reservation{
		UserID:          guest.ID,
		GuestName:       guest.FullName(),
		GuestEmail:      guest.Email,
		Guests:          input.Guests,
		CheckInDate:     checkIn,
		CheckOutDate:    checkOut,
		Status:          entity.ReservationUpcoming,
		Source:          source,
		ReservationCode: strings.ToUpper(strings.TrimSpace(input.ReservationCode)),
		Notes:           strings.TrimSpace(input.Notes),
	}
	s.applyPropertyTimes(ctx, reservation)

	if err := s.reservationRepo.Create(ctx, reservation); err != nil {
		return nil, fmt.Errorf("failed to create reservation: %w", err)
	}

	s.logger.Info("Reservation created",
		"reservationID", reservation.ID,
		"checkIn", utils.FormatCalendarDate(checkIn),
		"checkOut", utils.FormatCalendarDate(checkOut))

	return reservation, nil
}

// Cancel moves a reservation to cancelled. Completed and cancelled stays cannot be cancelled.
func (s *ReservationService) Cancel(ctx context.Context, id string) (*entity.Reservation, error) {
	reservation, err := s.reservationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if reservation.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: reservation is %s", entity.ErrInvalidTransition, reservation.Status)
	}

	if err := s.reservationRepo.UpdateStatus(ctx, id, entity.ReservationCancelled); err != nil {
		return nil, fmt.Errorf("failed to cancel reservation: %w", err)
	}
	reservation.Status = entity.ReservationCancelled

	if err := s.publisher.Publish(ctx, entity.SubjectReservationCancelled, entity.ReservationCancelledEvent{
		ReservationID: id,
		OccurredAt:    s.reconciler.clock.Now().UTC(),
	}); err != nil {
		s.logger.Warn("Failed to publish event", "subject", entity.SubjectReservationCancelled, "error", err)
	}

	s.logger.Info("Reservation cancelled", "reservationID", id)
	return reservation, nil
}

// List returns reservations in the given comma-separated statuses; empty means all
func (s *ReservationService) List(ctx context.Context, statuses string) ([]*entity.Reservation, error) {
	parsed, err := ParseStatuses(statuses)
	if err != nil {
		return nil, err
	}
	return s.reservationRepo.FindByStatus(ctx, parsed, listLimit)
}

// Reconcile runs a reconciliation pass on demand
func (s *ReservationService) Reconcile(ctx context.Context) (*ReconcileResult, error) {
	return s.reconciler.Reconcile(ctx)
}

func (s *ReservationService) applyPropertyTimes(ctx context.Context, reservation *entity.Reservation) {
	property, err := s.propertyRepo.FindBySlug(ctx, s.propertySlug)
	if err != nil {
		if !errors.Is(err, entity.ErrNotFound) {
			s.logger.Warn("Failed to load property for check-in times", "error", err)
		}
		return
	}
	reservation.CheckInTime = property.CheckInTime
	reservation.CheckOutTime = property.CheckOutTime
}

// ParseStatuses parses "upcoming,current" into statuses
func ParseStatuses(raw string) ([]entity.ReservationStatus, error) {
	var out []entity.ReservationStatus
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		status := entity.ReservationStatus(part)
		if !status.Valid() {
			return nil, fmt.Errorf("%w: %q", entity.ErrInvalidStatus, part)
		}
		out = append(out, status)
	}
	return out, nil
}
