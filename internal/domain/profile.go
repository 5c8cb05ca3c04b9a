package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Profile holds per-user settings; name and email are joined from the user
type Profile struct {
	ID        uuid.UUID      `json:"id"`
	UserID    uuid.UUID      `json:"-"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	Settings  map[string]any `json:"settings"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ProfileUpdate represents a partial profile update
type ProfileUpdate struct {
	Name     *string        `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Settings map[string]any `json:"settings,omitempty"`
}

// ProfileRepository defines the interface for profile storage
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error)
	// Update applies name and settings changes in one transaction
	Update(ctx context.Context, userID uuid.UUID, update ProfileUpdate, at time.Time) error
}
