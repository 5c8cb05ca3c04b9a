package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/lingocode/internal/domain"
	"github.com/Rrens/lingocode/internal/security"
)

// AuthService handles authentication operations. It is the only component
// that mints session credentials.
type AuthService struct {
	userRepo         domain.UserRepository
	refreshTokenRepo domain.RefreshTokenRepository
	jwtManager       *security.JWTManager
	now              func() time.Time

	// dummyHash is compared against on unknown emails so both failure paths cost one bcrypt check
	dummyHash string
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo domain.UserRepository,
	refreshTokenRepo domain.RefreshTokenRepository,
	jwtManager *security.JWTManager,
) (*AuthService, error) {
	dummyHash, err := security.HashPassword(uuid.NewString())
	if err != nil {
		return nil, err
	}

	return &AuthService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		jwtManager:       jwtManager,
		now:              time.Now,
		dummyHash:        dummyHash,
	}, nil
}

// Register creates a new user account together with an empty profile
func (s *AuthService) Register(ctx context.Context, input domain.SignupRequest) (*domain.User, error) {
	hashedPassword, err := security.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        input.Email,
		PasswordHash: hashedPassword,
		Name:         input.Name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	profile := &domain.Profile{
		ID:        uuid.New(),
		UserID:    user.ID,
		Settings:  map[string]any{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.userRepo.CreateWithProfile(ctx, user, profile); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Authenticate checks credentials. Unknown emails and wrong passwords both
// yield domain.ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			security.CheckPassword(s.dummyHash, password)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !security.CheckPassword(user.PasswordHash, password) {
		return nil, domain.ErrInvalidCredentials
	}

	return user, nil
}

// IssueTokenPair mints an access/refresh pair and records the refresh token
func (s *AuthService) IssueTokenPair(ctx context.Context, user *domain.User) (*domain.TokenPair, error) {
	pair, err := s.jwtManager.GenerateTokenPair(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	if err := s.refreshTokenRepo.Create(ctx, &domain.RefreshToken{
		ID:        pair.RefreshID,
		UserID:    user.ID,
		ExpiresAt: pair.RefreshExpiresAt,
		CreatedAt: s.now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("failed to record refresh token: %w", err)
	}

	return toTokenPair(pair), nil
}

// Signup registers a user and returns a fresh session
func (s *AuthService) Signup(ctx context.Context, input domain.SignupRequest) (*domain.AuthResponse, error) {
	user, err := s.Register(ctx, input)
	if err != nil {
		return nil, err
	}

	pair, err := s.IssueTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	log.Info().Str("user_id", user.ID.String()).Msg("user registered")

	return &domain.AuthResponse{TokenPair: *pair, User: user}, nil
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(ctx context.Context, input domain.LoginRequest) (*domain.AuthResponse, error) {
	user, err := s.Authenticate(ctx, input.Email, input.Password)
	if err != nil {
		return nil, err
	}

	pair, err := s.IssueTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	return &domain.AuthResponse{TokenPair: *pair, User: user}, nil
}

// VerifyAccessToken returns the claims of a valid access token, or
// domain.ErrTokenExpired / domain.ErrTokenInvalid
func (s *AuthService) VerifyAccessToken(token string) (*security.Claims, error) {
	return s.jwtManager.ValidateAccessToken(token)
}

// Refresh exchanges a live refresh token for a new pair. The presented token
// is consumed, so replaying it fails with domain.ErrInvalidRefreshToken.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}
	tokenID, err := uuid.Parse(claims.ID)
	if err != nil {
		return nil, domain.ErrInvalidRefreshToken
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	pair, err := s.jwtManager.GenerateTokenPair(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	next := &domain.RefreshToken{
		ID:        pair.RefreshID,
		UserID:    user.ID,
		ExpiresAt: pair.RefreshExpiresAt,
		CreatedAt: s.now().UTC(),
	}
	if err := s.refreshTokenRepo.Rotate(ctx, user.ID, tokenID, next); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Warn().Str("user_id", user.ID.String()).Msg("refresh token reuse or unknown token")
			return nil, domain.ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	return toTokenPair(pair), nil
}

// Logout revokes a refresh token. Revoking an already revoked token succeeds.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return err
	}
	tokenID, err := uuid.Parse(claims.ID)
	if err != nil {
		return domain.ErrInvalidRefreshToken
	}

	if err := s.refreshTokenRepo.Delete(ctx, tokenID); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// GetUser returns the user with the given ID
func (s *AuthService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// DeleteUser removes an account with its profile, history and refresh tokens
func (s *AuthService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	log.Info().Str("user_id", id.String()).Msg("user deleted")
	return nil
}

// CleanupExpired deletes refresh token records that can no longer be used
func (s *AuthService) CleanupExpired(ctx context.Context) (int64, error) {
	return s.refreshTokenRepo.DeleteExpired(ctx, s.now().UTC())
}

// RunCleanup calls CleanupExpired every interval until ctx is done
func (s *AuthService) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.CleanupExpired(ctx)
			if err != nil {
				log.Error().Err(err).Msg("failed to delete expired refresh tokens")
				continue
			}
			if n > 0 {
				log.Info().Int64("count", n).Msg("deleted expired refresh tokens")
			}
		}
	}
}

func toTokenPair(pair *security.IssuedPair) *domain.TokenPair {
	return &domain.TokenPair{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}
}
