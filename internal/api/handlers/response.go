package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
	apperrors "github.com/zatekoja/restaurantfinder/backend/pkg/errors"
)

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError writes err with the status matching its error type.
// Errors outside the taxonomy are reported as internal errors.
func respondWithAppError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		log.Error().Err(err).Msg("unclassified handler error")
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	payload := map[string]string{
		"error": appErr.Message,
		"kind":  string(appErr.Type),
	}
	if appErr.Status != "" {
		payload["status"] = appErr.Status
	}
	respondWithJSON(w, statusForError(appErr), payload)
}

func statusForError(appErr *apperrors.AppError) int {
	switch appErr.Type {
	case apperrors.ErrorTypeNotFound:
		return http.StatusNotFound
	case apperrors.ErrorTypeValidation:
		return http.StatusBadRequest
	case apperrors.ErrorTypeConflict:
		return http.StatusConflict
	case apperrors.ErrorTypeFeatureDisabled, apperrors.ErrorTypeNotInitialized:
		return http.StatusServiceUnavailable
	case apperrors.ErrorTypePlaceLookupFailed:
		switch appErr.Status {
		case "NOT_FOUND", "ZERO_RESULTS":
			return http.StatusNotFound
		case "INVALID_REQUEST":
			return http.StatusBadRequest
		case "OVER_QUERY_LIMIT":
			return http.StatusTooManyRequests
		default:
			return http.StatusBadGateway
		}
	case apperrors.ErrorTypeRateLimited, apperrors.ErrorTypeQuotaExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
