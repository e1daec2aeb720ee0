package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"villa-portal-service/internal/domain/entity"
)

// Error codes returned in the "code" field of error bodies
const (
	CodeInvalidInput  = "INVALID_INPUT"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeForbidden     = "FORBIDDEN"
	CodeNotFound      = "NOT_FOUND"
	CodeConflict      = "CONFLICT"
	CodeExpired       = "EXPIRED_TOKEN"
	CodeInvalidToken  = "INVALID_TOKEN"
	CodeNotVerified   = "NOT_VERIFIED"
	CodeUpstream      = "CALENDAR_UNAVAILABLE"
	CodeInternalError = "INTERNAL_ERROR"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, message, code string) {
	writeJSON(w, statusCode, errorResponse{Error: message, Code: code})
}

// errorStatus maps domain errors to a status, code and client-safe message.
// Anything unrecognised is an internal error and its text is not exposed.
func errorStatus(err error) (int, string, string) {
	switch {
	case errors.Is(err, entity.ErrNotFound):
		return http.StatusNotFound, CodeNotFound, "not found"
	case errors.Is(err, entity.ErrInvalidDates),
		errors.Is(err, entity.ErrInvalidStatus):
		return http.StatusBadRequest, CodeInvalidInput, err.Error()
	case errors.Is(err, entity.ErrOverlap),
		errors.Is(err, entity.ErrAlreadyExists),
		errors.Is(err, entity.ErrAlreadyVerified),
		errors.Is(err, entity.ErrInvalidTransition):
		return http.StatusConflict, CodeConflict, err.Error()
	case errors.Is(err, entity.ErrExpired):
		return http.StatusGone, CodeExpired, err.Error()
	case errors.Is(err, entity.ErrInvalidToken):
		return http.StatusBadRequest, CodeInvalidToken, err.Error()
	case errors.Is(err, entity.ErrInvalidCredentials):
		return http.StatusUnauthorized, CodeUnauthorized, err.Error()
	case errors.Is(err, entity.ErrNotVerified):
		return http.StatusForbidden, CodeNotVerified, err.Error()
	}
	return http.StatusInternalServerError, CodeInternalError, "internal server error"
}
