package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	h "eventrsvp/internal/delivery/http/helpers"
	"eventrsvp/internal/domain"
)

// writeServiceError maps a service error onto the response envelope. Anything unrecognised
// is logged and reported as a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var verr *domain.ValidationError
	var derr *domain.DispatchError
	switch {
	case errors.As(err, &derr):
		logger.ErrorContext(r.Context(), "invitation dispatch failed", "path", r.URL.Path, "step", derr.Step, "err", derr.Err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, "failed to send invitation")
	case errors.As(err, &verr):
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, verr.Message)
	case errors.Is(err, domain.ErrValidation):
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrBadCredentials):
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeInvalidCredentials, "invalid email or password")
	case errors.Is(err, domain.ErrDuplicateEmail):
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "email already registered")
	case errors.Is(err, domain.ErrNoSession):
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "authentication required")
	case errors.Is(err, domain.ErrForbidden):
		h.WriteJSONError(w, http.StatusForbidden, h.ErrCodeForbidden, "only the organizer can do that")
	case errors.Is(err, domain.ErrInvitationInProgress):
		h.WriteJSONError(w, http.StatusConflict, h.ErrCodeConflict, "invitation already in progress, try again shortly")
	case errors.Is(err, domain.ErrUserNotFound):
		h.WriteJSONError(w, http.StatusNotFound, h.ErrCodeNotFound, "user not found")
	case errors.Is(err, domain.ErrNotFound):
		h.WriteJSONError(w, http.StatusNotFound, h.ErrCodeNotFound, "event not found")
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, "internal server error")
	}
}

func eventIDFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := h.PathID(r, "id")
	if !ok {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "invalid event id")
	}
	return id, ok
}
