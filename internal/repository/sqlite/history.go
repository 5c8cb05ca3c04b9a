package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/Rrens/lingocode/internal/domain"
)

// HistoryRepository implements domain.HistoryRepository
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Create(ctx context.Context, entry *domain.HistoryEntry) error {
	query := `
		INSERT INTO generation_history
			(id, user_id, type, input, output, translated_prompt, explanation, language_code, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID.String(),
		entry.UserID.String(),
		string(entry.Type),
		entry.Input,
		entry.Output,
		nullString(entry.TranslatedPrompt),
		nullString(entry.Explanation),
		nullString(entry.LanguageCode),
		entry.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create history entry: %w", err)
	}
	return nil
}

func (r *HistoryRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.HistoryEntry, error) {
	query := `
		SELECT id, type, input, output, translated_prompt, explanation, language_code, created_at
		FROM generation_history
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, userID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.HistoryEntry, 0)
	for rows.Next() {
		var (
			e                                 domain.HistoryEntry
			id, typ                           string
			translated, explanation, language sql.NullString
		)
		if err := rows.Scan(
			&id,
			&typ,
			&e.Input,
			&e.Output,
			&translated,
			&explanation,
			&language,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("failed to parse history id: %w", err)
		}
		e.UserID = userID
		e.Type = domain.GenerationType(typ)
		e.TranslatedPrompt = stringPtr(translated)
		e.Explanation = stringPtr(explanation)
		e.LanguageCode = stringPtr(language)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}
	return entries, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
