package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/lingocode/internal/domain"
	"github.com/Rrens/lingocode/internal/repository"
	"github.com/Rrens/lingocode/internal/security"
)

const testSecret = "test-secret-key-with-at-least-32-chars"

type testClock struct {
	t time.Time
}

func (c *testClock) Now() time.Time { return c.t }

func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestAuthService(t *testing.T, users domain.UserRepository, tokens domain.RefreshTokenRepository, clock *testClock) *AuthService {
	t.Helper()
	jwtManager := security.NewJWTManager(testSecret, 15*time.Minute, 7*24*time.Hour, security.WithClock(clock.Now))
	svc, err := NewAuthService(users, tokens, jwtManager)
	require.NoError(t, err)
	svc.now = clock.Now
	return svc
}

func newStoredUser(t *testing.T, email, password string) *domain.User {
	t.Helper()
	hash, err := security.HashPassword(password)
	require.NoError(t, err)
	return &domain.User{ID: uuid.New(), Email: email, PasswordHash: hash, Name: "A"}
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}

	t.Run("success", func(t *testing.T) {
		users := new(MockUserRepository)
		svc := newTestAuthService(t, users, new(MockRefreshTokenRepository), clock)

		users.On("CreateWithProfile", ctx, mock.AnythingOfType("*domain.User"), mock.AnythingOfType("*domain.Profile")).
			Return(nil)

		user, err := svc.Register(ctx, domain.SignupRequest{Email: "a@b.com", Password: "pw123456", Name: "A"})
		require.NoError(t, err)
		assert.Equal(t, "a@b.com", user.Email)
		assert.NotEqual(t, "pw123456", user.PasswordHash)
		assert.True(t, security.CheckPassword(user.PasswordHash, "pw123456"))

		profile := users.Calls[0].Arguments.Get(2).(*domain.Profile)
		assert.Equal(t, user.ID, profile.UserID)
		assert.NotNil(t, profile.Settings)
		users.AssertExpectations(t)
	})

	t.Run("duplicate email", func(t *testing.T) {
		users := new(MockUserRepository)
		svc := newTestAuthService(t, users, new(MockRefreshTokenRepository), clock)

		users.On("CreateWithProfile", ctx, mock.Anything, mock.Anything).
			Return(fmt.Errorf("insert: %w", domain.ErrDuplicateEmail))

		_, err := svc.Register(ctx, domain.SignupRequest{Email: "a@b.com", Password: "pw123456", Name: "A"})
		assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
	})

	t.Run("storage failure", func(t *testing.T) {
		users := new(MockUserRepository)
		svc := newTestAuthService(t, users, new(MockRefreshTokenRepository), clock)

		users.On("CreateWithProfile", ctx, mock.Anything, mock.Anything).Return(errors.New("disk full"))

		_, err := svc.Register(ctx, domain.SignupRequest{Email: "a@b.com", Password: "pw123456", Name: "A"})
		require.Error(t, err)
		var domainErr *domain.Error
		assert.False(t, errors.As(err, &domainErr))
	})
}

func TestAuthService_Authenticate_NoEnumeration(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{t: time.Now()}
	users := new(MockUserRepository)
	svc := newTestAuthService(t, users, new(MockRefreshTokenRepository), clock)

	stored := newStoredUser(t, "a@b.com", "pw123456")
	users.On("GetByEmail", ctx, "a@b.com").Return(stored, nil)
	users.On("GetByEmail", ctx, "nobody@b.com").Return(nil, domain.ErrUserNotFound)

	user, err := svc.Authenticate(ctx, "a@b.com", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, stored.ID, user.ID)

	_, wrongPassword := svc.Authenticate(ctx, "a@b.com", "wrong-password")
	_, unknownEmail := svc.Authenticate(ctx, "nobody@b.com", "pw123456")

	assert.ErrorIs(t, wrongPassword, domain.ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, domain.ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestAuthService_Login_IssuesRecordedPair(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	users := new(MockUserRepository)
	tokens := new(MockRefreshTokenRepository)
	svc := newTestAuthService(t, users, tokens, clock)

	stored := newStoredUser(t, "a@b.com", "pw123456")
	users.On("GetByEmail", ctx, "a@b.com").Return(stored, nil)
	tokens.On("Create", ctx, mock.MatchedBy(func(rt *domain.RefreshToken) bool {
		return rt.UserID == stored.ID && rt.ExpiresAt.Equal(clock.t.Add(7*24*time.Hour))
	})).Return(nil)

	resp, err := svc.Login(ctx, domain.LoginRequest{Email: "a@b.com", Password: "pw123456"})
	require.NoError(t, err)
	assert.Equal(t, stored.ID, resp.User.ID)
	assert.Equal(t, int64(900), resp.ExpiresIn)

	claims, err := svc.VerifyAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, claims.UserID)
	assert.Equal(t, "a@b.com", claims.Email)

	tokens.AssertExpectations(t)
}

func TestAuthService_VerifyAccessToken_Expiry(t *testing.T) {
	clock := &testClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	svc := newTestAuthService(t, new(MockUserRepository), new(MockRefreshTokenRepository), clock)

	user := &domain.User{ID: uuid.New(), Email: "a@b.com"}
	token, err := svc.jwtManager.GenerateAccessToken(user.ID, user.Email)
	require.NoError(t, err)

	clock.Advance(15*time.Minute - time.Second)
	_, err = svc.VerifyAccessToken(token)
	assert.NoError(t, err)

	clock.Advance(2 * time.Second)
	_, err = svc.VerifyAccessToken(token)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)

	_, err = svc.VerifyAccessToken("garbage")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestAuthService_Refresh(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	user := &domain.User{ID: uuid.New(), Email: "a@b.com"}

	t.Run("rotates", func(t *testing.T) {
		users := new(MockUserRepository)
		tokens := new(MockRefreshTokenRepository)
		svc := newTestAuthService(t, users, tokens, clock)

		old, err := svc.jwtManager.GenerateTokenPair(user.ID, user.Email)
		require.NoError(t, err)

		users.On("GetByID", ctx, user.ID).Return(user, nil)
		tokens.On("Rotate", ctx, user.ID, old.RefreshID, mock.MatchedBy(func(rt *domain.RefreshToken) bool {
			return rt.ID != old.RefreshID && rt.UserID == user.ID
		})).Return(nil)

		pair, err := svc.Refresh(ctx, old.RefreshToken)
		require.NoError(t, err)
		assert.NotEqual(t, old.RefreshToken, pair.RefreshToken)

		claims, err := svc.VerifyAccessToken(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
		tokens.AssertExpectations(t)
	})

	t.Run("consumed token", func(t *testing.T) {
		users := new(MockUserRepository)
		tokens := new(MockRefreshTokenRepository)
		svc := newTestAuthService(t, users, tokens, clock)

		old, err := svc.jwtManager.GenerateTokenPair(user.ID, user.Email)
		require.NoError(t, err)

		users.On("GetByID", ctx, user.ID).Return(user, nil)
		tokens.On("Rotate", ctx, user.ID, old.RefreshID, mock.Anything).Return(domain.ErrNotFound)

		_, err = svc.Refresh(ctx, old.RefreshToken)
		assert.ErrorIs(t, err, domain.ErrInvalidRefreshToken)
	})

	t.Run("deleted user", func(t *testing.T) {
		users := new(MockUserRepository)
		tokens := new(MockRefreshTokenRepository)
		svc := newTestAuthService(t, users, tokens, clock)

		old, err := svc.jwtManager.GenerateTokenPair(user.ID, user.Email)
		require.NoError(t, err)

		users.On("GetByID", ctx, user.ID).Return(nil, domain.ErrUserNotFound)

		_, err = svc.Refresh(ctx, old.RefreshToken)
		assert.ErrorIs(t, err, domain.ErrInvalidRefreshToken)
		tokens.AssertNotCalled(t, "Rotate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("access token presented", func(t *testing.T) {
		svc := newTestAuthService(t, new(MockUserRepository), new(MockRefreshTokenRepository), clock)

		access, err := svc.jwtManager.GenerateAccessToken(user.ID, user.Email)
		require.NoError(t, err)

		_, err = svc.Refresh(ctx, access)
		assert.ErrorIs(t, err, domain.ErrInvalidRefreshToken)
	})

	t.Run("malformed", func(t *testing.T) {
		svc := newTestAuthService(t, new(MockUserRepository), new(MockRefreshTokenRepository), clock)

		_, err := svc.Refresh(ctx, "not-a-token")
		assert.ErrorIs(t, err, domain.ErrInvalidRefreshToken)
	})
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{t: time.Now()}
	tokens := new(MockRefreshTokenRepository)
	svc := newTestAuthService(t, new(MockUserRepository), tokens, clock)

	pair, err := svc.jwtManager.GenerateTokenPair(uuid.New(), "a@b.com")
	require.NoError(t, err)

	tokens.On("Delete", ctx, pair.RefreshID).Return(nil)

	require.NoError(t, svc.Logout(ctx, pair.RefreshToken))
	assert.ErrorIs(t, svc.Logout(ctx, "bogus"), domain.ErrInvalidRefreshToken)
	tokens.AssertExpectations(t)
}

func TestAuthService_CleanupExpired(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	tokens := new(MockRefreshTokenRepository)
	svc := newTestAuthService(t, new(MockUserRepository), tokens, clock)

	tokens.On("DeleteExpired", ctx, clock.t).Return(int64(3), nil)

	n, err := svc.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

var storeSeq atomic.Int64

func openTestStore(t *testing.T) *repository.Store {
	t.Helper()
	store, err := repository.OpenSQLite(context.Background(),
		fmt.Sprintf("file:service_test_%d?mode=memory&cache=shared", storeSeq.Add(1)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAuthService_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{t: time.Now().UTC()}
	store := openTestStore(t)
	svc := newTestAuthService(t, store.Users, store.RefreshTokens, clock)

	signup, err := svc.Signup(ctx, domain.SignupRequest{Email: "a@b.com", Password: "pw123456", Name: "A"})
	require.NoError(t, err)

	_, err = svc.Signup(ctx, domain.SignupRequest{Email: "a@b.com", Password: "other-pass", Name: "B"})
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)

	login, err := svc.Login(ctx, domain.LoginRequest{Email: "a@b.com", Password: "pw123456"})
	require.NoError(t, err)
	assert.Equal(t, signup.User.ID, login.User.ID)

	clock.Advance(time.Second)
	rotated, err := svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(rotated.AccessToken)
	require.NoError(t, err)

	// The old refresh token was consumed by the rotation.
	_, err = svc.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrInvalidRefreshToken)

	// The signup session is independent and still refreshable.
	_, err = svc.Refresh(ctx, signup.RefreshToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, rotated.RefreshToken))
	_, err = svc.Refresh(ctx, rotated.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrInvalidRefreshToken)

	require.NoError(t, svc.DeleteUser(ctx, signup.User.ID))
	_, err = svc.GetUser(ctx, signup.User.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
