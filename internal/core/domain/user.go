// internal/core/domain/user.go
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserRole represents the access level of a user
type UserRole string

// Role constants
const (
	RoleAdmin   UserRole = "admin"
	RoleManager UserRole = "manager"
	RoleViewer  UserRole = "viewer"
)

// Valid reports whether r is an accepted role.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleViewer:
		return true
	}
	return false
}

// User represents an authenticated account
type User struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         UserRole   `json:"role"`
	Active       bool       `json:"active"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Validate performs domain validation on the user
func (u *User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return NewValidationError("name", "is required")
	}
	if !strings.Contains(u.Email, "@") {
		return NewValidationError("email", "must be a valid email address")
	}
	if u.Role != "" && !u.Role.Valid() {
		return NewValidationError("role", "must be one of admin, manager, viewer")
	}
	return nil
}

// PrepareForStorage normalizes and defaults the user for persistence
func (u *User) PrepareForStorage() {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}

	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Name = strings.TrimSpace(u.Name)

	if u.Role == "" {
		u.Role = RoleViewer
	}

	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
		u.Active = true
	}
	u.UpdatedAt = now
}
