package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/Rrens/lingocode/internal/api/response"
	"github.com/Rrens/lingocode/internal/domain"
	"github.com/Rrens/lingocode/internal/security"
)

type contextKey string

const (
	UserIDKey    contextKey = "userID"
	UserEmailKey contextKey = "userEmail"
)

// TokenVerifier validates access tokens
type TokenVerifier interface {
	VerifyAccessToken(token string) (*security.Claims, error)
}

// AuthMiddleware handles JWT authentication
type AuthMiddleware struct {
	verifier TokenVerifier
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// Authenticate validates the bearer token. Failures are answered with 401 and
// one of TOKEN_MISSING, TOKEN_EXPIRED or TOKEN_INVALID.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, domain.ErrTokenMissing)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			response.Unauthorized(w, domain.ErrTokenInvalid)
			return
		}

		claims, err := m.verifier.VerifyAccessToken(strings.TrimSpace(parts[1]))
		if err != nil {
			if errors.Is(err, domain.ErrTokenExpired) {
				response.Unauthorized(w, domain.ErrTokenExpired)
				return
			}
			response.Unauthorized(w, domain.ErrTokenInvalid)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, UserEmailKey, claims.Email)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID gets the user ID from context
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// GetUserEmail gets the user email from context
func GetUserEmail(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(UserEmailKey).(string)
	return email, ok
}

// WithUserID returns a copy of ctx carrying userID, as Authenticate does
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}
