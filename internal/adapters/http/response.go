package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lalaverse/profile-sync-service/internal/domain"
)

type successResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type errorPayload struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type errorResponse struct {
	Status string       `json:"status"`
	Error  errorPayload `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, successResponse{Status: "success", Data: data})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, successResponse{Status: "success", Message: message})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Status: "error", Error: errorPayload{Code: code, Message: message}})
}

func mapDomainError(err error) (int, string, string) {
	switch {
	case errors.Is(err, domain.ErrFieldTooLong):
		return http.StatusBadRequest, "FIELD_TOO_LONG", err.Error()
	case errors.Is(err, domain.ErrImmutableField):
		return http.StatusConflict, "IMMUTABLE_FIELD", err.Error()
	case errors.Is(err, domain.ErrUnknownPlatform):
		return http.StatusNotFound, "UNKNOWN_PLATFORM", err.Error()
	case errors.Is(err, domain.ErrFieldNotSupported):
		return http.StatusBadRequest, "FIELD_NOT_SUPPORTED", err.Error()
	case errors.Is(err, domain.ErrPlatformNotConnected):
		return http.StatusConflict, "PLATFORM_NOT_CONNECTED", err.Error()
	case errors.Is(err, domain.ErrSyncInProgress):
		return http.StatusConflict, "SYNC_IN_PROGRESS", err.Error()
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "VALIDATION_ERROR", err.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN", err.Error()
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrIdempotencyConflict):
		return http.StatusConflict, "CONFLICT", err.Error()
	case errors.Is(err, domain.ErrDependencyUnavailable), errors.Is(err, domain.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "service unavailable"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"
	}
}
