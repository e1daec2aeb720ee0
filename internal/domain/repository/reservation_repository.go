package repository

import (
	"context"
	"time"

	"villa-portal-service/internal/domain/entity"
)

// ReservationRepository defines the interface for reservation storage operations
type ReservationRepository interface {
	Create(ctx context.Context, reservation *entity.Reservation) error
	FindByID(ctx context.Context, id string) (*entity.Reservation, error)
	FindByStatus(ctx context.Context, statuses []entity.ReservationStatus, limit int) ([]*entity.Reservation, error)
	FindFirst(ctx context.Context, query entity.ReservationQuery) (*entity.Reservation, error)
	FindOverlapping(ctx context.Context, checkIn, checkOut time.Time) ([]*entity.Reservation, error)
	FindByReservationCodes(ctx context.Context, codes []string) (map[string]*entity.Reservation, error)
	ApplyTransition(ctx context.Context, transition entity.StatusTransition) (int64, error)
	ConfirmPending(ctx context.Context, preRegistrationID, userID string) (int64, error)
	UpdateStatus(ctx context.Context, id string, status entity.ReservationStatus) error
}
