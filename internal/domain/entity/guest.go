package entity

import (
	"time"
)

// PreRegistrationStatus tracks an invitation through guest sign-up
type PreRegistrationStatus string

const (
	PreRegistrationPending    PreRegistrationStatus = "pending"
	PreRegistrationRegistered PreRegistrationStatus = "registered"
	PreRegistrationCompleted  PreRegistrationStatus = "completed"
	PreRegistrationExpired    PreRegistrationStatus = "expired"
)

// PreRegistration is an invitation placeholder created by staff before the guest has an account
type PreRegistration struct {
	ID        string                `json:"id" bson:"_id,omitempty"`
	Email     string                `json:"email" bson:"email"`
	FirstName string                `json:"firstName" bson:"firstName"`
	LastName  string                `json:"lastName" bson:"lastName"`
	Token     string                `json:"-" bson:"token"`
	Status    PreRegistrationStatus `json:"status" bson:"status"`
	UserID    string                `json:"userId,omitempty" bson:"userId,omitempty"`
	ExpiresAt time.Time             `json:"expiresAt" bson:"expiresAt"`
	CreatedAt time.Time             `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time             `json:"updatedAt" bson:"updatedAt"`
}

// IsExpired reports whether a still-pending invite is past its deadline
func (p *PreRegistration) IsExpired(now time.Time) bool {
	return p.Status == PreRegistrationPending && !now.Before(p.ExpiresAt)
}

// User roles
const (
	RoleGuest = "guest"
	RoleStaff = "staff"
	RoleAdmin = "admin"
)

// User is a portal account
type User struct {
	ID                    string    `json:"id" bson:"_id,omitempty"`
	Email                 string    `json:"email" bson:"email"`
	FirstName             string    `json:"firstName" bson:"firstName"`
	LastName              string    `json:"lastName" bson:"lastName"`
	Phone                 string    `json:"phone,omitempty" bson:"phone,omitempty"`
	Role                  string    `json:"role" bson:"role"`
	PasswordHash          string    `json:"-" bson:"passwordHash"`
	IsVerified            bool      `json:"isVerified" bson:"isVerified"`
	VerificationToken     string    `json:"-" bson:"verificationToken,omitempty"`
	VerificationExpiresAt time.Time `json:"-" bson:"verificationExpiresAt,omitempty"`
	PreRegistrationID     string    `json:"preRegistrationId,omitempty" bson:"preRegistrationId,omitempty"`
	CreatedAt             time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt" bson:"updatedAt"`
}

// FullName joins first and last name
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
