package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"villa-portal-service/internal/domain/entity"
	"villa-portal-service/internal/domain/repository"
	"villa-portal-service/pkg/clock"
	"villa-portal-service/pkg/logger"
	"villa-portal-service/pkg/metrics"
	"villa-portal-service/pkg/utils"
	"villa-portal-service/templates"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
)

const defaultPropertyName = "our villa"

// ReservationConfirmer runs the pending -> upcoming fan-out for a verified guest
type ReservationConfirmer interface {
	ConfirmPreRegistration(ctx context.Context, preRegistrationID, userID string) (int64, error)
}

// StayInput is one stay requested in an invitation
type StayInput struct {
	CheckInDate     string
	CheckOutDate    string
	Guests          int
	Source          entity.ReservationSource
	ReservationCode string
	Notes           string
}

// InviteInput is the staff request that pre-registers a guest
type InviteInput struct {
	Email     string
	FirstName string
	LastName  string
	Stays     []StayInput
}

// InviteResult is the created invitation and its pending reservations
type InviteResult struct {
	PreRegistration *entity.PreRegistration `json:"preRegistration"`
	Reservations    []*entity.Reservation   `json:"reservations"`
}

// RegisterInput is the guest's sign-up against an invite token
type RegisterInput struct {
	Token    string
	Password string
	Phone    string
}

// VerifyResult reports the verified account and how many stays were confirmed
type VerifyResult struct {
	User      *entity.User `json:"user"`
	Confirmed int64        `json:"confirmed"`
}

// OnboardingOptions carries the non-repository settings of GuestOnboardingService
type OnboardingOptions struct {
	PublicBaseURL   string
	PropertySlug    string
	InviteTTL       time.Duration
	VerificationTTL time.Duration
}

// GuestOnboardingService takes a guest from staff invitation through
// registration and email verification
type GuestOnboardingService struct {
	preRegistrationRepo repository.PreRegistrationRepository
	userRepo            repository.UserRepository
	reservationRepo     repository.ReservationRepository
	propertyRepo        repository.PropertyRepository
	mailRepo            repository.MailRepository
	confirmer           ReservationConfirmer
	clock               clock.Clock
	options             OnboardingOptions
	metrics             *metrics.Metrics
	logger              logger.Logger
}

// NewGuestOnboardingService creates a new onboarding service
func NewGuestOnboardingService(
	preRegistrationRepo repository.PreRegistrationRepository,
	userRepo repository.UserRepository,
	reservationRepo repository.ReservationRepository,
	propertyRepo repository.PropertyRepository,
	mailRepo repository.MailRepository,
	confirmer ReservationConfirmer,
	clock clock.Clock,
	options OnboardingOptions,
	metrics *metrics.Metrics,
	logger logger.Logger,
) *GuestOnboardingService {
	return &GuestOnboardingService{
		preRegistrationRepo: preRegistrationRepo,
		userRepo:            userRepo,
		reservationRepo:     reservationRepo,
		propertyRepo:        propertyRepo,
		mailRepo:            mailRepo,
		confirmer:           confirmer,
		clock:               clock,
		options:             options,
		metrics:             metrics,
		logger:              logger,
	}
}

// InviteGuest creates a pre-registration with one pending reservation per stay
// and emails the registration link. Stays may not overlap each other or any
// stored non-cancelled reservation.
func (s *GuestOnboardingService) InviteGuest(ctx context.Context, input InviteInput) (*InviteResult, error) {
	if len(input.Stays) == 0 {
		return nil, fmt.Errorf("%w: at least one stay is required", entity.ErrInvalidDates)
	}

	type stay struct {
		in, out time.Time
		input   StayInput
	}
	stays := make([]stay, 0, len(input.Stays))
	for _, st := range input.Stays {
		in, out, err := parseStay(st.CheckInDate, st.CheckOutDate)
		if err != nil {
			return nil, err
		}
		for _, other := range stays {
			if utils.RangesOverlap(in, out, other.in, other.out) {
				return nil, fmt.Errorf("%w: requested stays overlap each other", entity.ErrOverlap)
			}
		}
		if err := ensureNoOverlap(ctx, s.reservationRepo, in, out); err != nil {
			return nil, err
		}
		stays = append(stays, stay{in: in, out: out, input: st})
	}

	now := s.clock.Now().UTC()
	preRegistration := &entity.PreRegistration{
		Email:     strings.ToLower(strings.TrimSpace(input.Email)),
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Token:     uuid.NewString(),
		Status:    entity.PreRegistrationPending,
		ExpiresAt: now.Add(s.options.InviteTTL),
	}
	if err := s.preRegistrationRepo.Create(ctx, preRegistration); err != nil {
		return nil, fmt.Errorf("failed to create pre-registration: %w", err)
	}

	property := s.property(ctx)
	guestName := strings.TrimSpace(preRegistration.FirstName + " " + preRegistration.LastName)

	result := &InviteResult{PreRegistration: preRegistration}
	for _, st := range stays {
		source := st.input.Source
		if source == "" {
			source = entity.SourceDirect
		}
		reservation := &entity.Reservation{
			PreRegistrationID: preRegistration.ID,
			GuestName:         guestName,
			GuestEmail:        preRegistration.Email,
			Guests:            st.input.Guests,
			CheckInDate:       st.in,
			CheckOutDate:      st.out,
			CheckInTime:       property.CheckInTime,
			CheckOutTime:      property.CheckOutTime,
			Status:            entity.ReservationPending,
			Source:            source,
			ReservationCode:   strings.ToUpper(strings.TrimSpace(st.input.ReservationCode)),
			Notes:             strings.TrimSpace(entity.PreReservationTag + " " + st.input.Notes),
		}
		if err := s.reservationRepo.Create(ctx, reservation); err != nil {
			return nil, fmt.Errorf("failed to create pending reservation: %w", err)
		}
		result.Reservations = append(result.Reservations, reservation)
	}

	s.logger.Info("Guest invited",
		"preRegistrationID", preRegistration.ID,
		"reservations", len(result.Reservations))

	s.sendEmail(ctx, "invite", func() (*entity.OutboundEmail, error) {
		return templates.InviteEmail(preRegistration.Email, templates.GuestEmailData{
			PropertyName: property.Name,
			GuestName:    preRegistration.FirstName,
			Link:         s.link("/register", preRegistration.Token),
			ExpiresAt:    utils.FormatCalendarDate(preRegistration.ExpiresAt),
			Stays:        stayLines(result.Reservations),
		})
	})

	return result, nil
}

// LookupInvite resolves an invite token. A pending invite past its deadline
// is marked expired and reported as ErrExpired.
func (s *GuestOnboardingService) LookupInvite(ctx context.Context, token string) (*entity.PreRegistration, error) {
	preRegistration, err := s.preRegistrationRepo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, entity.ErrInvalidToken
		}
		return nil, err
	}

	if preRegistration.IsExpired(s.clock.Now()) {
		if err := s.preRegistrationRepo.UpdateStatus(ctx, preRegistration.ID, entity.PreRegistrationExpired, ""); err != nil {
			s.logger.Warn("Failed to mark invite expired", "preRegistrationID", preRegistration.ID, "error", err)
		}
		return nil, entity.ErrExpired
	}
	if preRegistration.Status == entity.PreRegistrationExpired {
		return nil, entity.ErrExpired
	}
	return preRegistration, nil
}

// Register creates the guest account for a pending invite and sends the
// verification email. A mail failure does not fail registration.
func (s *GuestOnboardingService) Register(ctx context.Context, input RegisterInput) (*entity.User, error) {
	preRegistration, err := s.LookupInvite(ctx, input.Token)
	if err != nil {
		return nil, err
	}
	if preRegistration.Status != entity.PreRegistrationPending {
		return nil, fmt.Errorf("%w: invitation already used", entity.ErrInvalidToken)
	}

	existing, err := s.userRepo.FindByEmail(ctx, preRegistration.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: email already registered", entity.ErrAlreadyExists)
	}

	hash, err := argon2id.CreateHash(input.Password, argon2id.DefaultParams)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.clock.Now().UTC()
	user := &entity.User{
		Email:                 preRegistration.Email,
		FirstName:             preRegistration.FirstName,
		LastName:              preRegistration.LastName,
		Phone:                 strings.TrimSpace(input.Phone),
		Role:                  entity.RoleGuest,
		PasswordHash:          hash,
		VerificationToken:     uuid.NewString(),
		VerificationExpiresAt: now.Add(s.options.VerificationTTL),
		PreRegistrationID:     preRegistration.ID,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.preRegistrationRepo.UpdateStatus(ctx, preRegistration.ID, entity.PreRegistrationRegistered, user.ID); err != nil {
		return nil, fmt.Errorf("failed to mark invitation registered: %w", err)
	}

	s.logger.Info("Guest registered", "userID", user.ID, "preRegistrationID", preRegistration.ID)

	property := s.property(ctx)
	s.sendEmail(ctx, "verification", func() (*entity.OutboundEmail, error) {
		return templates.VerificationEmail(user.Email, templates.GuestEmailData{
			PropertyName: property.Name,
			GuestName:    user.FirstName,
			Link:         s.link("/api/auth/verify", user.VerificationToken),
			ExpiresAt:    utils.FormatCalendarDate(user.VerificationExpiresAt),
		})
	})

	return user, nil
}

// VerifyEmail marks the account verified, then confirms the guest's pending
// reservations. The confirmation is best effort: its failure is logged and
// counted, and verification still succeeds.
func (s *GuestOnboardingService) VerifyEmail(ctx context.Context, token string) (*VerifyResult, error) {
	user, err := s.userRepo.FindByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, entity.ErrInvalidToken
		}
		return nil, err
	}
	if user.IsVerified {
		return nil, entity.ErrAlreadyVerified
	}
	if !user.VerificationExpiresAt.IsZero() && !s.clock.Now().Before(user.VerificationExpiresAt) {
		return nil, entity.ErrExpired
	}

	if err := s.userRepo.MarkVerified(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to verify user: %w", err)
	}
	user.IsVerified = true
	user.VerificationToken = ""

	result := &VerifyResult{User: user}
	if user.PreRegistrationID == "" {
		return result, nil
	}

	confirmed, err := s.confirmer.ConfirmPreRegistration(ctx, user.PreRegistrationID, user.ID)
	result.Confirmed = confirmed
	if err != nil {
		s.metrics.ConfirmationFailure.Inc()
		s.logger.Error("Reservation confirmation failed after verification",
			"userID", user.ID,
			"preRegistrationID", user.PreRegistrationID,
			"error", err)
		return result, nil
	}

	if confirmed > 0 {
		s.sendConfirmation(ctx, user)
	}
	return result, nil
}

func (s *GuestOnboardingService) sendConfirmation(ctx context.Context, user *entity.User) {
	reservations, err := s.reservationRepo.FindByStatus(ctx, []entity.ReservationStatus{entity.ReservationUpcoming}, listLimit)
	if err != nil {
		s.logger.Warn("Failed to load confirmed reservations for email", "userID", user.ID, "error", err)
		return
	}
	mine := make([]*entity.Reservation, 0)
	for _, r := range reservations {
		if r.UserID == user.ID {
			mine = append(mine, r)
		}
	}

	property := s.property(ctx)
	s.sendEmail(ctx, "confirmation", func() (*entity.OutboundEmail, error) {
		return templates.ConfirmationEmail(user.Email, templates.GuestEmailData{
			PropertyName: property.Name,
			GuestName:    user.FirstName,
			Stays:        stayLines(mine),
		})
	})
}

// sendEmail renders and sends; failures are logged only
func (s *GuestOnboardingService) sendEmail(ctx context.Context, kind string, render func() (*entity.OutboundEmail, error)) {
	email, err := render()
	if err != nil {
		s.logger.Error("Failed to render email", "kind", kind, "error", err)
		return
	}

	messageID, err := s.mailRepo.Send(ctx, email)
	if err != nil {
		s.metrics.ErrorsCount.WithLabelValues("send_email").Inc()
		s.logger.Error("Failed to send email", "kind", kind, "to", email.To, "error", err)
		return
	}

	s.metrics.EmailsSent.Inc()
	s.logger.Info("Email sent", "kind", kind, "to", email.To, "messageID", messageID)
}

func (s *GuestOnboardingService) property(ctx context.Context) *entity.Property {
	property, err := s.propertyRepo.FindBySlug(ctx, s.options.PropertySlug)
	if err != nil {
		if !errors.Is(err, entity.ErrNotFound) {
			s.logger.Warn("Failed to load property", "error", err)
		}
		return &entity.Property{Name: defaultPropertyName}
	}
	if property.Name == "" {
		property.Name = defaultPropertyName
	}
	return property
}

func (s *GuestOnboardingService) link(path, token string) string {
	return s.options.PublicBaseURL + path + "?token=" + url.QueryEscape(token)
}

func stayLines(reservations []*entity.Reservation) []templates.StayLine {
	lines := make([]templates.StayLine, 0, len(reservations))
	for _, r := range reservations {
		lines = append(lines, templates.StayLine{
			CheckIn:  utils.FormatCalendarDate(r.CheckInDate),
			CheckOut: utils.FormatCalendarDate(r.CheckOutDate),
		})
	}
	return lines
}
