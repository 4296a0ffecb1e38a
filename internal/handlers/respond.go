// internal/handlers/respond.go
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/chainflow/chainflow-be/internal/core/domain"
)

// envelope is the uniform response shape for every API endpoint.
type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func respondJSON(w http.ResponseWriter, logger *slog.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(envelope{Success: status < 400, Data: data}); err != nil {
		logger.Error("failed to encode JSON response",
			slog.String("error", err.Error()))
	}
}

func respondMessage(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(envelope{Success: status < 400, Message: message}); err != nil {
		logger.Error("failed to encode JSON response",
			slog.String("error", err.Error()))
	}
}

func respondError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	respondMessage(w, logger, status, message)
}

// respondDomainError maps a service error onto an HTTP status. Unrecognized
// errors become an opaque 500 so internals never leak to clients.
func respondDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var (
		validationErr *domain.ValidationError
		stockErr      *domain.InsufficientStockError
		notFoundErr   *domain.NotFoundError
		conflictErr   *domain.ConflictError
		duplicateErr  *domain.DuplicateKeyError
	)

	switch {
	case errors.As(err, &validationErr):
		respondError(w, logger, http.StatusBadRequest, validationErr.Error())
	case errors.As(err, &stockErr):
		respondError(w, logger, http.StatusBadRequest, stockErr.Error())
	case errors.As(err, &notFoundErr) || domain.IsNotFound(err):
		respondError(w, logger, http.StatusNotFound, err.Error())
	case errors.As(err, &conflictErr):
		respondError(w, logger, http.StatusConflict, conflictErr.Error())
	case errors.As(err, &duplicateErr):
		respondError(w, logger, http.StatusConflict, duplicateErr.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		respondError(w, logger, http.StatusUnauthorized, "Invalid credentials")
	default:
		respondError(w, logger, http.StatusInternalServerError, "Internal server error")
	}
}
