package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Rrens/lingocode/internal/domain"
)

// ProfileRepository implements domain.ProfileRepository
type ProfileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	query := `
		SELECT p.id, u.name, u.email, p.settings, p.created_at, p.updated_at
		FROM profiles p
		JOIN users u ON u.id = p.user_id
		WHERE p.user_id = ?
	`
	var (
		p        domain.Profile
		id       string
		settings string
	)
	err := r.db.QueryRowContext(ctx, query, userID.String()).Scan(
		&id,
		&p.Name,
		&p.Email,
		&settings,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	if p.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("failed to parse profile id: %w", err)
	}
	p.UserID = userID

	p.Settings = map[string]any{}
	if err := json.Unmarshal([]byte(settings), &p.Settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	if p.Settings == nil {
		p.Settings = map[string]any{}
	}
	return &p, nil
}

func (r *ProfileRepository) Update(ctx context.Context, userID uuid.UUID, update domain.ProfileUpdate, at time.Time) error {
	at = at.UTC()
	return WithTx(ctx, r.db, nil, func(ctx context.Context, tx DBTX) error {
		if update.Name != nil {
			res, err := tx.ExecContext(ctx,
				`UPDATE users SET name = ?, updated_at = ? WHERE id = ?`,
				*update.Name, at, userID.String(),
			)
			if err != nil {
				return fmt.Errorf("failed to update user name: %w", err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return domain.ErrUserNotFound
			}
		}

		var (
			res sql.Result
			err error
		)
		if update.Settings != nil {
			raw, mErr := json.Marshal(update.Settings)
			if mErr != nil {
				return fmt.Errorf("failed to encode settings: %w", mErr)
			}
			res, err = tx.ExecContext(ctx,
				`UPDATE profiles SET settings = ?, updated_at = ? WHERE user_id = ?`,
				string(raw), at, userID.String(),
			)
		} else {
			res, err = tx.ExecContext(ctx,
				`UPDATE profiles SET updated_at = ? WHERE user_id = ?`,
				at, userID.String(),
			)
		}
		if err != nil {
			return fmt.Errorf("failed to update profile: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrProfileNotFound
		}
		return nil
	})
}
