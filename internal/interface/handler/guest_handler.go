package handler

import (
	"net/http"
	"time"

	"villa-portal-service/internal/domain/entity"
	"villa-portal-service/internal/usecase"
)

type stayRequest struct {
	CheckInDate     string `json:"checkInDate" validate:"required,datetime=2006-01-02"`
	CheckOutDate    string `json:"checkOutDate" validate:"required,datetime=2006-01-02"`
	Guests          int    `json:"guests" validate:"min=1,max=30"`
	Source          string `json:"source" validate:"omitempty,oneof=airbnb booking vrbo direct other"`
	ReservationCode string `json:"reservationCode" validate:"omitempty,alphanum,max=32"`
	Notes           string `json:"notes" validate:"max=2000"`
}

type inviteRequest struct {
	Email     string        `json:"email" validate:"required,email"`
	FirstName string        `json:"firstName" validate:"required,max=100"`
	LastName  string        `json:"lastName" validate:"max=100"`
	Stays     []stayRequest `json:"stays" validate:"required,min=1,max=10,dive"`
}

type registerRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Phone    string `json:"phone" validate:"omitempty,max=32"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type inviteLookupResponse struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	ExpiresAt string `json:"expiresAt"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *entity.User `json:"user"`
}

// InviteGuest pre-registers a guest with one or more pending stays
func (h *Handlers) InviteGuest(w http.ResponseWriter, r *http.Request) {
	var req inviteRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), CodeInvalidInput)
		return
	}

	stays := make([]usecase.StayInput, 0, len(req.Stays))
	for _, st := range req.Stays {
		stays = append(stays, usecase.StayInput{
			CheckInDate:     st.CheckInDate,
			CheckOutDate:    st.CheckOutDate,
			Guests:          st.Guests,
			Source:          entity.ReservationSource(st.Source),
			ReservationCode: st.ReservationCode,
			Notes:           st.Notes,
		})
	}

	result, err := h.onboarding.InviteGuest(r.Context(), usecase.InviteInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Stays:     stays,
	})
	if err != nil {
		h.fail(w, r, "invite_guest", err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// LookupInvite lets the registration page show who the invite is for
func (h *Handlers) LookupInvite(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "missing token", CodeInvalidInput)
		return
	}

	invite, err := h.onboarding.LookupInvite(r.Context(), token)
	if err != nil {
		h.fail(w, r, "lookup_invite", err)
		return
	}
	writeJSON(w, http.StatusOK, inviteLookupResponse{
		Email:     invite.Email,
		FirstName: invite.FirstName,
		LastName:  invite.LastName,
		ExpiresAt: invite.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// Register creates the guest account for an invite token
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), CodeInvalidInput)
		return
	}

	user, err := h.onboarding.Register(r.Context(), usecase.RegisterInput{
		Token:    req.Token,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		h.fail(w, r, "register", err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"message": "verification email sent",
		"user":    user,
	})
}

// VerifyEmail consumes a verification token and confirms the guest's stays
func (h *Handlers) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "missing token", CodeInvalidInput)
		return
	}

	result, err := h.onboarding.VerifyEmail(r.Context(), token)
	if err != nil {
		h.fail(w, r, "verify_email", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Login exchanges email and password for a bearer token
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), CodeInvalidInput)
		return
	}

	token, user, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, "login", err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}
