package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Rrens/lingocode/internal/domain"
)

// RefreshTokenRepository implements domain.RefreshTokenRepository
type RefreshTokenRepository struct {
	db *sql.DB
}

// NewRefreshTokenRepository creates a new refresh token repository
func NewRefreshTokenRepository(db *sql.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	return insertRefreshToken(ctx, r.db, token)
}

// Rotate treats tokens that expired before next.CreatedAt as unknown
func (r *RefreshTokenRepository) Rotate(ctx context.Context, userID, oldID uuid.UUID, next *domain.RefreshToken) error {
	return WithTx(ctx, r.db, nil, func(ctx context.Context, tx DBTX) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM refresh_tokens WHERE id = ? AND user_id = ? AND expires_at > ?`,
			oldID.String(), userID.String(), next.CreatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to consume refresh token: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to consume refresh token: %w", err)
		}
		if n == 0 {
			return domain.ErrNotFound
		}
		return insertRefreshToken(ctx, tx, next)
	})
}

func (r *RefreshTokenRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}
	return res.RowsAffected()
}

func insertRefreshToken(ctx context.Context, db DBTX, token *domain.RefreshToken) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (id, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)
	`, token.ID.String(), token.UserID.String(), token.ExpiresAt.UTC(), token.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}
