package repository

import (
	"context"

	"villa-portal-service/internal/domain/entity"
)

// PreRegistrationRepository defines the interface for invitation storage operations
type PreRegistrationRepository interface {
	Create(ctx context.Context, preRegistration *entity.PreRegistration) error
	FindByID(ctx context.Context, id string) (*entity.PreRegistration, error)
	FindByToken(ctx context.Context, token string) (*entity.PreRegistration, error)
	FindByStatus(ctx context.Context, status entity.PreRegistrationStatus) ([]*entity.PreRegistration, error)
	UpdateStatus(ctx context.Context, id string, status entity.PreRegistrationStatus, userID string) error
}

// UserRepository defines the interface for account storage operations
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByVerificationToken(ctx context.Context, token string) (*entity.User, error)
	MarkVerified(ctx context.Context, id string) error
}
