// internal/handlers/auth.go
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/chainflow/chainflow-be/internal/core/domain"
	"github.com/chainflow/chainflow-be/internal/core/ports"
	"github.com/chainflow/chainflow-be/internal/handlers/middleware"
)

// AuthHandler handles authentication HTTP requests
type AuthHandler struct {
	service ports.AuthService
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(service ports.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "auth")),
	}
}

// RegisterRequest represents the request body for user registration.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PasswordChangeRequest represents the request body for a password change.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// authResponse carries the issued token along with the user profile.
type authResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	role := domain.UserRole(req.Role)
	if role == "" {
		role = domain.RoleViewer
	}

	user, token, err := h.service.Register(ctx, req.Name, req.Email, req.Password, role)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, authResponse{Token: token, User: user})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, token, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		// failed logins log at warn without the credential detail
		h.logger.WarnContext(ctx, "login failed", slog.String("email", req.Email))
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, authResponse{Token: token, User: user})
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor := middleware.ActorFrom(ctx)
	if actor == nil {
		respondError(w, h.logger, http.StatusUnauthorized, "Authentication required")
		return
	}

	user, err := h.service.GetUser(ctx, actor.ID)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, user)
}

// ChangePassword handles POST /api/v1/auth/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor := middleware.ActorFrom(ctx)
	if actor == nil {
		respondError(w, h.logger, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req PasswordChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.UpdatePassword(ctx, actor.ID, req.CurrentPassword, req.NewPassword); err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondMessage(w, h.logger, http.StatusOK, "Password updated successfully")
}
