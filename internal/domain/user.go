package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User represents a registered account
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SignupRequest represents registration data. Password length is bounded in
// bytes because bcrypt only accepts 72.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,maxbytes=72"`
	Name     string `json:"name" validate:"required,max=100"`
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,maxbytes=72"`
}

// RefreshRequest carries a refresh token for rotation or revocation
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TokenPair represents an issued access/refresh token pair
type TokenPair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// AuthResponse is returned by signup and login
type AuthResponse struct {
	TokenPair
	User *User `json:"user"`
}

// UserRepository defines the interface for user storage
type UserRepository interface {
	// CreateWithProfile inserts the user and its profile atomically.
	// Returns ErrDuplicateEmail when the email is taken.
	CreateWithProfile(ctx context.Context, user *User, profile *Profile) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// RefreshToken is the server-side record of an issued refresh token
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	ExpiresAt time.Time
	CreatedAt time.Time
}

// RefreshTokenRepository tracks live refresh tokens so rotation can retire them
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *RefreshToken) error
	// Rotate deletes the live token oldID owned by userID and stores next in one
	// transaction. Returns ErrNotFound when oldID is unknown, expired or already used.
	Rotate(ctx context.Context, userID, oldID uuid.UUID, next *RefreshToken) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
