// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/pdiddy/trl-engine/internal/assess"
)

// RespondJSON writes data as a JSON body with the given status.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError writes {"error": ...}. Server-side failures are logged.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, err error) {
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	}
	RespondJSON(w, status, map[string]string{"error": err.Error()})
}

// MapHTTPStatus maps assessment errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, assess.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, assess.ErrExternalScoring):
		return http.StatusBadGateway
	case errors.Is(err, assess.ErrStorageRead):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
