package repository

import (
	"context"
	"time"

	"villa-portal-service/internal/domain/entity"
)

// PropertyRepository defines the interface for property storage operations
type PropertyRepository interface {
	FindBySlug(ctx context.Context, slug string) (*entity.Property, error)
	Upsert(ctx context.Context, property *entity.Property) error
}

// FeedCacheRepository keeps fetched calendar bodies for a freshness window
type FeedCacheRepository interface {
	Get(ctx context.Context, url string) (*entity.CachedFeed, error)
	Set(ctx context.Context, url string, feed *entity.CachedFeed, ttl time.Duration) error
}
