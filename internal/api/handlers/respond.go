package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/isdelr/replydesk/internal/auth"
	"github.com/isdelr/replydesk/internal/services"
	"github.com/isdelr/replydesk/internal/store"
	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// WriteError writes a JSON error body. Its signature matches the reject
// callbacks of the auth and rate limit middleware.
func WriteError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeServiceError maps service and store errors to a status code in one place.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, services.ErrForbidden):
		WriteError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrEmailTaken):
		WriteError(w, http.StatusConflict, "email already registered")
	case errors.Is(err, store.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not found")
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decode reads a JSON body into dst and runs its validate tags.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		WriteError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request body"
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field())+" failed "+fe.Tag())
	}
	return "validation failed: " + strings.Join(fields, ", ")
}

// subject returns the authenticated user ID. A non-empty claimed ID that
// differs from it is rejected with 403.
func subject(w http.ResponseWriter, r *http.Request, claimed string) (string, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "missing auth token")
		return "", false
	}
	if claimed != "" && claimed != userID {
		log.Warn().Str("user_id", userID).Str("claimed", claimed).Msg("Body user_id does not match token")
		writeServiceError(w, r, services.ErrForbidden)
		return "", false
	}
	return userID, true
}
