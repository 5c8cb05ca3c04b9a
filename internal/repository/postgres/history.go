package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Rrens/lingocode/internal/domain"
)

// HistoryRepository implements domain.HistoryRepository
type HistoryRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

func (r *HistoryRepository) Create(ctx context.Context, entry *domain.HistoryEntry) error {
	query := `
		INSERT INTO generation_history
			(id, user_id, type, input, output, translated_prompt, explanation, language_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		string(entry.Type),
		entry.Input,
		entry.Output,
		entry.TranslatedPrompt,
		entry.Explanation,
		entry.LanguageCode,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create history entry: %w", err)
	}
	return nil
}

func (r *HistoryRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.HistoryEntry, error) {
	query := `
		SELECT id, user_id, type, input, output, translated_prompt, explanation, language_code, created_at
		FROM generation_history
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.HistoryEntry, 0)
	for rows.Next() {
		var e domain.HistoryEntry
		var typ string
		if err := rows.Scan(
			&e.ID,
			&e.UserID,
			&typ,
			&e.Input,
			&e.Output,
			&e.TranslatedPrompt,
			&e.Explanation,
			&e.LanguageCode,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		e.Type = domain.GenerationType(typ)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}
	return entries, nil
}
