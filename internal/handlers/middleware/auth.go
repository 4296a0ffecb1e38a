// internal/handlers/middleware/auth.go
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/chainflow/chainflow-be/internal/core/domain"
	"github.com/chainflow/chainflow-be/internal/core/ports"
	"github.com/chainflow/chainflow-be/internal/pkg/logger"
)

type contextKey string

const actorKey contextKey = "actor"
const roleKey contextKey = "role"

// Authenticate validates the bearer token and puts the authenticated actor
// into the request context for handlers and audit trails.
func Authenticate(auth ports.AuthService, slogger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				unauthorized(w)
				return
			}

			claims, err := auth.VerifyToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				slogger.DebugContext(r.Context(), "token rejected",
					slog.String("error", err.Error()))
				unauthorized(w)
				return
			}

			actor := &ports.Actor{ID: claims.UserID, Name: claims.Name}

			ctx := context.WithValue(r.Context(), actorKey, actor)
			ctx = context.WithValue(ctx, roleKey, claims.Role)
			ctx = context.WithValue(ctx, logger.ContextKeyUserID, claims.UserID.String())

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects requests whose authenticated role is not in the
// allowed set. Admin passes every check.
func RequireRole(roles ...domain.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := r.Context().Value(roleKey).(domain.UserRole)
			if !ok {
				unauthorized(w)
				return
			}

			if role != domain.RoleAdmin {
				allowed := false
				for _, want := range roles {
					if role == want {
						allowed = true
						break
					}
				}
				if !allowed {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusForbidden)
					w.Write([]byte(`{"success":false,"message":"Insufficient permissions"}`))
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ActorFrom returns the authenticated actor, or nil on unauthenticated
// routes.
func ActorFrom(ctx context.Context) *ports.Actor {
	actor, _ := ctx.Value(actorKey).(*ports.Actor)
	return actor
}

// RoleFrom returns the authenticated role, or the zero value when absent.
func RoleFrom(ctx context.Context) domain.UserRole {
	role, _ := ctx.Value(roleKey).(domain.UserRole)
	return role
}

// WithActor returns a context carrying the given actor. Used by tests and
// internal callers that bypass the HTTP layer.
func WithActor(ctx context.Context, actor *ports.Actor, role domain.UserRole) context.Context {
	ctx = context.WithValue(ctx, actorKey, actor)
	return context.WithValue(ctx, roleKey, role)
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"success":false,"message":"Authentication required"}`))
}
