package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Rrens/lingocode/internal/domain"
)

// ProfileRepository implements domain.ProfileRepository
type ProfileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	query := `
		SELECT p.id, p.user_id, u.name, u.email, p.settings, p.created_at, p.updated_at
		FROM profiles p
		JOIN users u ON u.id = p.user_id
		WHERE p.user_id = $1
	`
	var p domain.Profile
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&p.ID,
		&p.UserID,
		&p.Name,
		&p.Email,
		&p.Settings,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if p.Settings == nil {
		p.Settings = map[string]any{}
	}
	return &p, nil
}

func (r *ProfileRepository) Update(ctx context.Context, userID uuid.UUID, update domain.ProfileUpdate, at time.Time) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if update.Name != nil {
			tag, err := tx.Exec(ctx,
				`UPDATE users SET name = $1, updated_at = $2 WHERE id = $3`,
				*update.Name, at, userID,
			)
			if err != nil {
				return fmt.Errorf("failed to update user name: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return domain.ErrUserNotFound
			}
		}

		var (
			tag pgconn.CommandTag
			err error
		)
		if update.Settings != nil {
			tag, err = tx.Exec(ctx,
				`UPDATE profiles SET settings = $1, updated_at = $2 WHERE user_id = $3`,
				update.Settings, at, userID,
			)
		} else {
			tag, err = tx.Exec(ctx,
				`UPDATE profiles SET updated_at = $1 WHERE user_id = $2`,
				at, userID,
			)
		}
		if err != nil {
			return fmt.Errorf("failed to update profile: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrProfileNotFound
		}
		return nil
	})
}
