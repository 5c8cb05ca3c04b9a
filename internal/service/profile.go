package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/lingocode/internal/domain"
)

// ProfileCache is an optional read-through cache for profiles
type ProfileCache interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
	Set(ctx context.Context, profile *domain.Profile) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

// ProfileService handles profile reads and updates
type ProfileService struct {
	profileRepo domain.ProfileRepository
	cache       ProfileCache
	now         func() time.Time
}

// NewProfileService creates a new profile service. cache may be nil.
func NewProfileService(profileRepo domain.ProfileRepository, cache ProfileCache) *ProfileService {
	return &ProfileService{
		profileRepo: profileRepo,
		cache:       cache,
		now:         time.Now,
	}
}

// Get returns the profile of a user
func (s *ProfileService) Get(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, userID)
		if err != nil {
			log.Warn().Err(err).Msg("profile cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, profile); err != nil {
			log.Warn().Err(err).Msg("profile cache write failed")
		}
	}

	return profile, nil
}

// Update applies a partial update and returns the stored profile
func (s *ProfileService) Update(ctx context.Context, userID uuid.UUID, update domain.ProfileUpdate) (*domain.Profile, error) {
	if err := s.profileRepo.Update(ctx, userID, update, s.now().UTC()); err != nil {
		var domainErr *domain.Error
		if errors.As(err, &domainErr) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.invalidate(ctx, userID)

	return s.Get(ctx, userID)
}

// Forget drops any cached copy of a user's profile
func (s *ProfileService) Forget(ctx context.Context, userID uuid.UUID) {
	s.invalidate(ctx, userID)
}

func (s *ProfileService) invalidate(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		log.Warn().Err(err).Msg("profile cache invalidation failed")
	}
}
