package usecase

import (
	"context"
	"fmt"
	"time"

	"villa-portal-service/internal/domain/entity"
	"villa-portal-service/internal/domain/repository"
	"villa-portal-service/pkg/utils"
)

// parseStay parses a "YYYY-MM-DD" check-in/check-out pair; check-out must be later
func parseStay(checkIn, checkOut string) (time.Time, time.Time, error) {
	in, err := utils.ParseCalendarDate(checkIn)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %v", entity.ErrInvalidDates, err)
	}
	out, err := utils.ParseCalendarDate(checkOut)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %v", entity.ErrInvalidDates, err)
	}
	if !out.After(in) {
		return time.Time{}, time.Time{}, entity.ErrInvalidDates
	}
	return in, out, nil
}

func ensureNoOverlap(ctx context.Context, repo repository.ReservationRepository, checkIn, checkOut time.Time) error {
	existing, err := repo.FindOverlapping(ctx, checkIn, checkOut)
	if err != nil {
		return fmt.Errorf("failed to check overlapping reservations: %w", err)
	}
	if len(existing) > 0 {
		return fmt.Errorf("%w: %s to %s", entity.ErrOverlap,
			utils.FormatCalendarDate(existing[0].CheckInDate),
			utils.FormatCalendarDate(existing[0].CheckOutDate))
	}
	return nil
}
