package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// GenerationType enumerates the kinds of generation requests
type GenerationType string

const (
	GenerationCode         GenerationType = "code"
	GenerationAppPlan      GenerationType = "app_plan"
	GenerationWebsite      GenerationType = "website"
	GenerationCodeFromPlan GenerationType = "code_from_plan"
)

// Valid reports whether t is one of the known generation types
func (t GenerationType) Valid() bool {
	switch t {
	case GenerationCode, GenerationAppPlan, GenerationWebsite, GenerationCodeFromPlan:
		return true
	}
	return false
}

// HistoryEntry is an append-only record of one generation request
type HistoryEntry struct {
	ID               uuid.UUID      `json:"id"`
	UserID           uuid.UUID      `json:"user_id"`
	Type             GenerationType `json:"type"`
	Input            string         `json:"input"`
	Output           string         `json:"output"`
	TranslatedPrompt *string        `json:"translated_prompt"`
	Explanation      *string        `json:"explanation"`
	LanguageCode     *string        `json:"language_code"`
	CreatedAt        time.Time      `json:"created_at"`
}

// HistoryRepository defines the interface for generation history storage
type HistoryRepository interface {
	Create(ctx context.Context, entry *HistoryEntry) error
	// ListByUser returns the newest entries first
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]HistoryEntry, error)
}
