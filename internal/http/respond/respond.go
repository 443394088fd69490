// Package respond writes JSON responses and maps domain errors to status codes.
package respond

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrJamesThe3rd/unitrack/internal/apperrors"
	"github.com/MrJamesThe3rd/unitrack/internal/http/middleware"
)

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		middleware.Logger(r.Context()).Error("failed to encode response", "error", err)
	}
}

// Status maps err to the HTTP status the API reports for it.
func Status(err error) int {
	var pe *apperrors.PersistenceError

	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusInternalServerError
	case errors.As(err, &pe):
		return http.StatusBadGateway
	}

	return http.StatusInternalServerError
}

// Error writes err as {"error", "field"}. Server-side failures are logged and
// their details withheld.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status := Status(err)
	body := errorBody{Error: err.Error()}

	if field, ok := apperrors.FieldOf(err); ok {
		body.Field = field
	}

	switch status {
	case http.StatusNotFound:
		body.Error = "not found"
	case http.StatusBadGateway, http.StatusInternalServerError:
		middleware.Logger(r.Context()).Error("request failed", "status", status, "error", err)
		body.Error = http.StatusText(status)
	}

	JSON(w, r, status, body)
}

// BadRequest reports a malformed request that never reached a service.
func BadRequest(w http.ResponseWriter, r *http.Request, field, reason string) {
	Error(w, r, apperrors.NewValidation(field, reason))
}
