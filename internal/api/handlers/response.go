package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/portoseguro/backend/internal/infrastructure/observability"
	apperrors "github.com/portoseguro/backend/pkg/errors"
)

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps an application error onto an HTTP status. Internal
// details are logged, never returned.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.AppError
	message := "internal server error"
	if errors.As(err, &appErr) {
		message = appErr.Message
	}

	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeNotFound:
		respondWithError(w, http.StatusNotFound, message)
	case apperrors.ErrorTypeValidation:
		respondWithError(w, http.StatusBadRequest, message)
	case apperrors.ErrorTypeConflict:
		respondWithError(w, http.StatusConflict, message)
	case apperrors.ErrorTypeUnauthorized:
		respondWithError(w, http.StatusUnauthorized, message)
	case apperrors.ErrorTypeExternal:
		observability.LoggerFromContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("upstream failure")
		respondWithError(w, http.StatusBadGateway, message)
	default:
		observability.LoggerFromContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		respondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

// queryInt reads an optional integer query parameter.
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidationErrorf("%s must be an integer, got %q", name, raw)
	}
	return v, nil
}
