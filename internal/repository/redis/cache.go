package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Rrens/lingocode/internal/domain"
)

const (
	profileCachePrefix = "profile:"
	profileCacheTTL    = 5 * time.Minute
)

// ProfileCache caches profile reads in Redis
type ProfileCache struct {
	client *Client
	ttl    time.Duration
}

// NewProfileCache creates a new profile cache
func NewProfileCache(client *Client) *ProfileCache {
	return &ProfileCache{client: client, ttl: profileCacheTTL}
}

// Get returns the cached profile, or nil on a cache miss
func (c *ProfileCache) Get(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	data, err := c.client.rdb.Get(ctx, profileKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cached profile: %w", err)
	}

	var profile domain.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	profile.UserID = userID

	return &profile, nil
}

// Set caches a profile
func (c *ProfileCache) Set(ctx context.Context, profile *domain.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	return c.client.rdb.Set(ctx, profileKey(profile.UserID), data, c.ttl).Err()
}

// Invalidate removes the cached profile for a user
func (c *ProfileCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	return c.client.rdb.Del(ctx, profileKey(userID)).Err()
}

func profileKey(userID uuid.UUID) string {
	return profileCachePrefix + userID.String()
}
