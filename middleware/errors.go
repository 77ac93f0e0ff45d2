package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrEthical07/authcore"
)

// StatusCode maps an Engine error to an HTTP status.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, authcore.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, authcore.ErrDuplicateUsername),
		errors.Is(err, authcore.ErrDuplicateEmail):
		return http.StatusConflict
	case errors.Is(err, authcore.ErrNotFound),
		errors.Is(err, authcore.ErrInvalidCredentials),
		errors.Is(err, authcore.ErrInactiveAccount),
		errors.Is(err, authcore.ErrSessionNotFound),
		errors.Is(err, authcore.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, authcore.ErrCSRF),
		errors.Is(err, authcore.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// WriteError writes {"error": PublicMessage(err)} with the mapped status.
func WriteError(w http.ResponseWriter, err error) {
	WriteJSON(w, StatusCode(err), errorBody{Error: authcore.PublicMessage(err)})
}

// WriteJSON writes v as the JSON response body.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
