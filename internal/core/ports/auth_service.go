// internal/core/ports/auth_service.go
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/chainflow/chainflow-be/internal/core/domain"
)

// AuthService defines the application service port for authentication.
type AuthService interface {
	Register(ctx context.Context, name, email, password string, role domain.UserRole) (*domain.User, string, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, current, next string) error
	// VerifyToken parses and validates a JWT, returning the claims the
	// middleware turns into an Actor.
	VerifyToken(tokenString string) (*TokenClaims, error)
}

// TokenClaims is the authenticated identity carried in a JWT.
type TokenClaims struct {
	UserID uuid.UUID       `json:"user_id"`
	Name   string          `json:"name"`
	Role   domain.UserRole `json:"role"`
}
