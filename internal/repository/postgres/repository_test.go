package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/lingocode/internal/domain"
)

// setupDB migrates and connects to POSTGRES_TEST_DSN; tests are skipped without it.
// Tests share the database, so every fixture uses fresh ids and emails.
func setupDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	require.NoError(t, RunMigrations(dsn))

	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	db := &DB{Pool: pool}
	require.NoError(t, db.Ping(context.Background()))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newUser(t *testing.T, db *DB) (*domain.User, *domain.Profile) {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	user := &domain.User{
		ID:           uuid.New(),
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "hash",
		Name:         "A",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	profile := &domain.Profile{
		ID:        uuid.New(),
		UserID:    user.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	t.Cleanup(func() {
		_, _ = db.Pool.Exec(context.Background(), `DELETE FROM users WHERE id = $1`, user.ID)
	})
	return user, profile
}

func countByUser(t *testing.T, db *DB, table string, userID uuid.UUID) int {
	t.Helper()
	var n int
	require.NoError(t, db.Pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM `+table+` WHERE user_id = $1`, userID,
	).Scan(&n))
	return n
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	db := setupDB(t)
	repo := NewUserRepository(db.Pool)
	ctx := context.Background()

	user, profile := newUser(t, db)
	require.NoError(t, repo.CreateWithProfile(ctx, user, profile))

	byEmail, err := repo.GetByEmail(ctx, user.Email)
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.Equal(t, "hash", byEmail.PasswordHash)
	assert.True(t, user.CreatedAt.Equal(byEmail.CreatedAt))

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, byID.Email)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	assert.Equal(t, 1, countByUser(t, db, "profiles", user.ID))
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	db := setupDB(t)
	repo := NewUserRepository(db.Pool)
	ctx := context.Background()

	user, profile := newUser(t, db)
	require.NoError(t, repo.CreateWithProfile(ctx, user, profile))

	dup, dupProfile := newUser(t, db)
	dup.Email = user.Email
	err := repo.CreateWithProfile(ctx, dup, dupProfile)
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)

	_, err = repo.GetByID(ctx, dup.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserRepository_ProfileFailureRollsBackUser(t *testing.T) {
	db := setupDB(t)
	repo := NewUserRepository(db.Pool)
	ctx := context.Background()

	existing, existingProfile := newUser(t, db)
	require.NoError(t, repo.CreateWithProfile(ctx, existing, existingProfile))

	// Reusing a profile id fails the second insert inside the transaction.
	user, profile := newUser(t, db)
	profile.ID = existingProfile.ID
	require.Error(t, repo.CreateWithProfile(ctx, user, profile))

	_, err := repo.GetByEmail(ctx, user.Email)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserRepository_DeleteCascades(t *testing.T) {
	db := setupDB(t)
	users := NewUserRepository(db.Pool)
	history := NewHistoryRepository(db.Pool)
	tokens := NewRefreshTokenRepository(db.Pool)
	ctx := context.Background()

	user, profile := newUser(t, db)
	require.NoError(t, users.CreateWithProfile(ctx, user, profile))
	require.NoError(t, history.Create(ctx, &domain.HistoryEntry{
		ID: uuid.New(), UserID: user.ID, Type: domain.GenerationCode,
		Input: "in", Output: "out", CreatedAt: time.Now().UTC(),
	}))
	require.NoError(t, tokens.Create(ctx, &domain.RefreshToken{
		ID: uuid.New(), UserID: user.ID,
		ExpiresAt: time.Now().Add(time.Hour).UTC(), CreatedAt: time.Now().UTC(),
	}))

	require.NoError(t, users.Delete(ctx, user.ID))
	assert.ErrorIs(t, users.Delete(ctx, user.ID), domain.ErrUserNotFound)

	for _, table := range []string{"profiles", "generation_history", "refresh_tokens"} {
		assert.Equal(t, 0, countByUser(t, db, table, user.ID), table)
	}
}

func TestProfileRepository_SettingsRoundTrip(t *testing.T) {
	db := setupDB(t)
	users := NewUserRepository(db.Pool)
	profiles := NewProfileRepository(db.Pool)
	ctx := context.Background()

	user, profile := newUser(t, db)
	require.NoError(t, users.CreateWithProfile(ctx, user, profile))

	got, err := profiles.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, got.Settings)
	assert.Equal(t, user.Email, got.Email)

	name := "நிலா"
	at := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, profiles.Update(ctx, user.ID, domain.ProfileUpdate{
		Name: &name,
		Settings: map[string]any{
			"theme":     "dark",
			"font_size": 14,
			"languages": []string{"ta-IN", "hi-IN"},
		},
	}, at))

	got, err = profiles.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, name, got.Name)
	assert.Equal(t, "dark", got.Settings["theme"])
	assert.Equal(t, float64(14), got.Settings["font_size"])
	assert.Equal(t, []any{"ta-IN", "hi-IN"}, got.Settings["languages"])
	assert.True(t, at.Equal(got.UpdatedAt))

	// A name-only update keeps the stored settings.
	other := "Nila"
	require.NoError(t, profiles.Update(ctx, user.ID, domain.ProfileUpdate{Name: &other}, at.Add(time.Second)))
	got, err = profiles.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, other, got.Name)
	assert.Equal(t, "dark", got.Settings["theme"])
}

func TestProfileRepository_Missing(t *testing.T) {
	db := setupDB(t)
	profiles := NewProfileRepository(db.Pool)
	ctx := context.Background()

	_, err := profiles.GetByUserID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)

	name := "B"
	err = profiles.Update(ctx, uuid.New(), domain.ProfileUpdate{Name: &name}, time.Now())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	err = profiles.Update(ctx, uuid.New(), domain.ProfileUpdate{Settings: map[string]any{"a": 1}}, time.Now())
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestHistoryRepository_ListNewestFirst(t *testing.T) {
	db := setupDB(t)
	users := NewUserRepository(db.Pool)
	history := NewHistoryRepository(db.Pool)
	ctx := context.Background()

	user, profile := newUser(t, db)
	require.NoError(t, users.CreateWithProfile(ctx, user, profile))

	empty, err := history.ListByUser(ctx, user.ID, 10)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	lang := "ta-IN"
	base := time.Now().UTC().Truncate(time.Microsecond)
	for i, typ := range []domain.GenerationType{domain.GenerationCode, domain.GenerationWebsite, domain.GenerationAppPlan} {
		require.NoError(t, history.Create(ctx, &domain.HistoryEntry{
			ID:           uuid.New(),
			UserID:       user.ID,
			Type:         typ,
			Input:        "in",
			Output:       "out",
			LanguageCode: &lang,
			CreatedAt:    base.Add(time.Duration(i) * time.Second),
		}))
	}

	entries, err := history.ListByUser(ctx, user.ID, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.GenerationAppPlan, entries[0].Type)
	assert.Equal(t, domain.GenerationWebsite, entries[1].Type)
	require.NotNil(t, entries[0].LanguageCode)
	assert.Equal(t, lang, *entries[0].LanguageCode)
	assert.Nil(t, entries[0].Explanation)
}

func TestRefreshTokenRepository_Rotate(t *testing.T) {
	db := setupDB(t)
	users := NewUserRepository(db.Pool)
	tokens := NewRefreshTokenRepository(db.Pool)
	ctx := context.Background()

	user, profile := newUser(t, db)
	require.NoError(t, users.CreateWithProfile(ctx, user, profile))

	now := time.Now().UTC()
	old := &domain.RefreshToken{ID: uuid.New(), UserID: user.ID, ExpiresAt: now.Add(time.Hour), CreatedAt: now}
	require.NoError(t, tokens.Create(ctx, old))

	next := &domain.RefreshToken{ID: uuid.New(), UserID: user.ID, ExpiresAt: now.Add(2 * time.Hour), CreatedAt: now}
	require.NoError(t, tokens.Rotate(ctx, user.ID, old.ID, next))
	assert.Equal(t, 1, countByUser(t, db, "refresh_tokens", user.ID))

	// The consumed token cannot be rotated again, and the failed attempt stores nothing.
	replay := &domain.RefreshToken{ID: uuid.New(), UserID: user.ID, ExpiresAt: now.Add(2 * time.Hour), CreatedAt: now}
	assert.ErrorIs(t, tokens.Rotate(ctx, user.ID, old.ID, replay), domain.ErrNotFound)
	assert.Equal(t, 1, countByUser(t, db, "refresh_tokens", user.ID))

	// Another user cannot consume it either.
	assert.ErrorIs(t, tokens.Rotate(ctx, uuid.New(), next.ID, replay), domain.ErrNotFound)
}

func TestRefreshTokenRepository_RotateExpired(t *testing.T) {
	db := setupDB(t)
	users := NewUserRepository(db.Pool)
	tokens := NewRefreshTokenRepository(db.Pool)
	ctx := context.Background()

	user, profile := newUser(t, db)
	require.NoError(t, users.CreateWithProfile(ctx, user, profile))

	now := time.Now().UTC()
	expired := &domain.RefreshToken{ID: uuid.New(), UserID: user.ID, ExpiresAt: now.Add(-time.Minute), CreatedAt: now.Add(-time.Hour)}
	require.NoError(t, tokens.Create(ctx, expired))

	next := &domain.RefreshToken{ID: uuid.New(), UserID: user.ID, ExpiresAt: now.Add(time.Hour), CreatedAt: now}
	assert.ErrorIs(t, tokens.Rotate(ctx, user.ID, expired.ID, next), domain.ErrNotFound)
}

func TestRefreshTokenRepository_DeleteAndDeleteExpired(t *testing.T) {
	db := setupDB(t)
	users := NewUserRepository(db.Pool)
	tokens := NewRefreshTokenRepository(db.Pool)
	ctx := context.Background()

	user, profile := newUser(t, db)
	require.NoError(t, users.CreateWithProfile(ctx, user, profile))

	now := time.Now().UTC()
	live := &domain.RefreshToken{ID: uuid.New(), UserID: user.ID, ExpiresAt: now.Add(time.Hour), CreatedAt: now}
	expired := &domain.RefreshToken{ID: uuid.New(), UserID: user.ID, ExpiresAt: now.Add(-time.Hour), CreatedAt: now.Add(-2 * time.Hour)}
	require.NoError(t, tokens.Create(ctx, live))
	require.NoError(t, tokens.Create(ctx, expired))

	n, err := tokens.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))
	assert.Equal(t, 1, countByUser(t, db, "refresh_tokens", user.ID))

	require.NoError(t, tokens.Delete(ctx, live.ID))
	require.NoError(t, tokens.Delete(ctx, live.ID), "deleting a missing token succeeds")
	assert.Equal(t, 0, countByUser(t, db, "refresh_tokens", user.ID))
}
