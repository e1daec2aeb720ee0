package usecase

import (
	"context"
	"fmt"
	"time"

	"villa-portal-service/internal/domain/entity"
	"villa-portal-service/internal/domain/repository"
	"villa-portal-service/pkg/clock"
	"villa-portal-service/pkg/logger"
	"villa-portal-service/pkg/metrics"
	"villa-portal-service/pkg/utils"
)

// ReconcileResult reports what one reconciliation pass changed
type ReconcileResult struct {
	Today     time.Time
	Current   int64
	Completed int64
	Confirmed int64
}

// Changed reports whether the pass modified any reservation
func (r *ReconcileResult) Changed() bool {
	return r.Current > 0 || r.Completed > 0 || r.Confirmed > 0
}

// ReservationReconciler advances stored reservations through
// upcoming -> current -> completed according to the calendar date.
// Cancelled reservations are never touched. Pending reservations only move
// when their guest has verified and the confirmation is still outstanding.
type ReservationReconciler struct {
	reservationRepo     repository.ReservationRepository
	preRegistrationRepo repository.PreRegistrationRepository
	userRepo            repository.UserRepository
	publisher           repository.EventPublisher
	clock               clock.Clock
	location            *time.Location
	metrics             *metrics.Metrics
	logger              logger.Logger
}

// NewReservationReconciler creates a new reconciler; "today" is evaluated in location
func NewReservationReconciler(
	reservationRepo repository.ReservationRepository,
	preRegistrationRepo repository.PreRegistrationRepository,
	userRepo repository.UserRepository,
	publisher repository.EventPublisher,
	clock clock.Clock,
	location *time.Location,
	metrics *metrics.Metrics,
	logger logger.Logger,
) *ReservationReconciler {
	return &ReservationReconciler{
		reservationRepo:     reservationRepo,
		preRegistrationRepo: preRegistrationRepo,
		userRepo:            userRepo,
		publisher:           publisher,
		clock:               clock,
		location:            location,
		metrics:             metrics,
		logger:              logger,
	}
}

// Today is the reconciler's notion of the current calendar date
func (r *ReservationReconciler) Today() time.Time {
	return utils.Today(r.clock, r.location)
}

// transitions returns the bulk moves for today in application order.
// Completion runs last and also accepts records promoted by the first move,
// so a stay that matches both ends up completed.
func transitions(today time.Time) []entity.StatusTransition {
	return []entity.StatusTransition{
		{
			From:              []entity.ReservationStatus{entity.ReservationUpcoming},
			To:                entity.ReservationCurrent,
			CheckInOnOrBefore: &today,
			CheckOutAfter:     &today,
		},
		{
			From:           []entity.ReservationStatus{entity.ReservationUpcoming, entity.ReservationCurrent},
			To:             entity.ReservationCompleted,
			CheckOutBefore: &today,
		},
	}
}

// Reconcile first retries outstanding confirmations, then applies both bulk
// transitions. A failed update aborts the pass; the first transition is not
// rolled back.
func (r *ReservationReconciler) Reconcile(ctx context.Context) (*ReconcileResult, error) {
	start := time.Now()
	defer func() {
		r.metrics.ReconcileTime.Observe(time.Since(start).Seconds())
	}()

	result := &ReconcileResult{Today: r.Today()}
	result.Confirmed = r.confirmVerified(ctx)

	for _, t := range transitions(result.Today) {
		n, err := r.reservationRepo.ApplyTransition(ctx, t)
		if err != nil {
			r.metrics.ErrorsCount.WithLabelValues("reconcile").Inc()
			return nil, fmt.Errorf("failed to reconcile reservations: %w", err)
		}

		r.metrics.StatusTransitions.WithLabelValues(string(t.To)).Add(float64(n))
		switch t.To {
		case entity.ReservationCurrent:
			result.Current = n
		case entity.ReservationCompleted:
			result.Completed = n
		}
	}

	if result.Changed() {
		r.logger.Info("Reservations reconciled",
			"today", utils.FormatCalendarDate(result.Today),
			"current", result.Current,
			"completed", result.Completed,
			"confirmed", result.Confirmed)

		r.publish(ctx, entity.SubjectReservationReconciled, entity.ReservationReconciledEvent{
			Today:      utils.FormatCalendarDate(result.Today),
			Current:    result.Current,
			Completed:  result.Completed,
			OccurredAt: r.clock.Now().UTC(),
		})
	}

	return result, nil
}

// ConfirmPreRegistration flips every pending reservation of the pre-registration
// to upcoming, assigns userID, and marks the pre-registration completed.
func (r *ReservationReconciler) ConfirmPreRegistration(ctx context.Context, preRegistrationID, userID string) (int64, error) {
	n, err := r.reservationRepo.ConfirmPending(ctx, preRegistrationID, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to confirm reservations: %w", err)
	}

	if err := r.preRegistrationRepo.UpdateStatus(ctx, preRegistrationID, entity.PreRegistrationCompleted, userID); err != nil {
		return n, fmt.Errorf("failed to complete pre-registration: %w", err)
	}

	r.metrics.StatusTransitions.WithLabelValues(string(entity.ReservationUpcoming)).Add(float64(n))
	r.logger.Info("Pre-registration confirmed",
		"preRegistrationID", preRegistrationID,
		"userID", userID,
		"reservations", n)

	r.publish(ctx, entity.SubjectReservationConfirmed, entity.ReservationConfirmedEvent{
		PreRegistrationID: preRegistrationID,
		UserID:            userID,
		Confirmed:         n,
		OccurredAt:        r.clock.Now().UTC(),
	})

	return n, nil
}

// confirmVerified runs the confirmation fan-out for registered invites whose
// guest is already verified. Those are left behind when the fan-out failed at
// verification time. Failures are logged and retried on the next pass.
func (r *ReservationReconciler) confirmVerified(ctx context.Context) int64 {
	registered, err := r.preRegistrationRepo.FindByStatus(ctx, entity.PreRegistrationRegistered)
	if err != nil {
		r.metrics.ErrorsCount.WithLabelValues("reconcile_confirm").Inc()
		r.logger.Error("Failed to list registered invites", "error", err)
		return 0
	}

	var confirmed int64
	for _, preRegistration := range registered {
		if preRegistration.UserID == "" {
			continue
		}
		user, err := r.userRepo.FindByID(ctx, preRegistration.UserID)
		if err != nil {
			r.logger.Warn("Failed to load invited user",
				"preRegistrationID", preRegistration.ID,
				"userID", preRegistration.UserID,
				"error", err)
			continue
		}
		if !user.IsVerified {
			continue
		}

		n, err := r.ConfirmPreRegistration(ctx, preRegistration.ID, user.ID)
		confirmed += n
		if err != nil {
			r.metrics.ErrorsCount.WithLabelValues("reconcile_confirm").Inc()
			r.logger.Error("Retried confirmation failed",
				"preRegistrationID", preRegistration.ID,
				"userID", user.ID,
				"error", err)
		}
	}
	return confirmed
}

func (r *ReservationReconciler) publish(ctx context.Context, subject string, event interface{}) {
	if err := r.publisher.Publish(ctx, subject, event); err != nil {
		r.metrics.ErrorsCount.WithLabelValues("publish").Inc()
		r.logger.Warn("Failed to publish event", "subject", subject, "error", err)
	}
}
