package entity

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidToken       = errors.New("invalid or unknown token")
	ErrExpired            = errors.New("token expired")
	ErrAlreadyVerified    = errors.New("account already verified")
	ErrAlreadyExists      = errors.New("already exists")
	ErrOverlap            = errors.New("reservation overlaps an existing reservation")
	ErrInvalidDates       = errors.New("check-out must be after check-in")
	ErrInvalidTransition  = errors.New("status transition not allowed")
	ErrInvalidStatus      = errors.New("unknown reservation status")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotVerified        = errors.New("account email not verified")
)
