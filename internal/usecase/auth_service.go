package usecase

import (
	"context"
	"fmt"

	"villa-portal-service/internal/domain/entity"
	"villa-portal-service/internal/domain/repository"
	"villa-portal-service/pkg/logger"

	"github.com/alexedwards/argon2id"
)

// TokenIssuer signs access tokens for authenticated users
type TokenIssuer interface {
	NewAccessToken(userID, email, role string) (string, error)
}

// AuthService exchanges portal credentials for a bearer token
type AuthService struct {
	userRepo repository.UserRepository
	issuer   TokenIssuer
	logger   logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo repository.UserRepository, issuer TokenIssuer, logger logger.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		issuer:   issuer,
		logger:   logger,
	}
}

// Login verifies the password and returns a signed token. Unverified accounts cannot log in.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *entity.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		return "", nil, entity.ErrInvalidCredentials
	}

	match, err := argon2id.ComparePasswordAndHash(password, user.PasswordHash)
	if err != nil || !match {
		return "", nil, entity.ErrInvalidCredentials
	}
	if !user.IsVerified {
		return "", nil, entity.ErrNotVerified
	}

	token, err := s.issuer.NewAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Info("User logged in", "userID", user.ID, "role", user.Role)
	return token, user, nil
}
