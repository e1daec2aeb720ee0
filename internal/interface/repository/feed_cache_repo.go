package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"villa-portal-service/internal/domain/entity"
	"villa-portal-service/internal/domain/repository"

	"github.com/redis/go-redis/v9"
)

const feedCacheKeyPrefix = "calendar:feed:"

// RedisFeedCacheRepository implements the FeedCacheRepository interface
type RedisFeedCacheRepository struct {
	client *redis.Client
}

// NewRedisFeedCacheRepository creates a new Redis-backed feed cache
func NewRedisFeedCacheRepository(client *redis.Client) repository.FeedCacheRepository {
	return &RedisFeedCacheRepository{
		client: client,
	}
}

// Get returns the cached feed for url, or nil on a miss
func (r *RedisFeedCacheRepository) Get(ctx context.Context, url string) (*entity.CachedFeed, error) {
	raw, err := r.client.Get(ctx, feedCacheKey(url)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read feed cache: %w", err)
	}

	var feed entity.CachedFeed
	if err := json.Unmarshal(raw, &feed); err != nil {
		return nil, fmt.Errorf("failed to decode cached feed: %w", err)
	}
	return &feed, nil
}

// Set stores the feed body for ttl
func (r *RedisFeedCacheRepository) Set(ctx context.Context, url string, feed *entity.CachedFeed, ttl time.Duration) error {
	raw, err := json.Marshal(feed)
	if err != nil {
		return fmt.Errorf("failed to encode feed: %w", err)
	}

	if err := r.client.Set(ctx, feedCacheKey(url), raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write feed cache: %w", err)
	}
	return nil
}

// feedCacheKey hashes the URL so private feed tokens never appear in key names
func feedCacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return feedCacheKeyPrefix + hex.EncodeToString(sum[:8])
}
