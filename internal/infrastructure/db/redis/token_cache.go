package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/darkr4m/5StarK9/internal/core/ports"
)

const (
	defaultTokenTTL = 15 * time.Minute
	tokenKeyPrefix  = "authtoken:"
)

// TokenCache maps token keys to user IDs so authenticated requests can skip
// the token table. Entries expire after ttl.
// Key format: authtoken:<key>
type TokenCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTokenCache wraps client. A non-positive ttl falls back to defaultTokenTTL.
func NewTokenCache(client *redis.Client, ttl time.Duration) *TokenCache {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &TokenCache{client: client, ttl: ttl}
}

func (c *TokenCache) Get(ctx context.Context, key string) (uuid.UUID, bool, error) {
	val, err := c.client.Get(ctx, tokenKeyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, fmt.Errorf("token cache get: %w", err)
	}

	id, err := uuid.Parse(val)
	if err != nil {
		// unreadable entry, treat as a miss and let the caller repopulate
		_ = c.client.Del(ctx, tokenKeyPrefix+key).Err()
		return uuid.Nil, false, nil
	}
	return id, true, nil
}

func (c *TokenCache) Set(ctx context.Context, key string, userID uuid.UUID) error {
	if err := c.client.Set(ctx, tokenKeyPrefix+key, userID.String(), c.ttl).Err(); err != nil {
		return fmt.Errorf("token cache set: %w", err)
	}
	return nil
}

func (c *TokenCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, tokenKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("token cache delete: %w", err)
	}
	return nil
}

var _ ports.TokenCache = (*TokenCache)(nil)
