package repository

import (
	"context"
	"time"

	"yana/internal/domain/entity"
)

// ContentCacheRepository is the advisory URL->HTML cache EnrichmentPipeline
// consults before every fetch. A miss must never be treated as an error.
type ContentCacheRepository interface {
	Get(ctx context.Context, url string) (*entity.ContentCacheEntry, bool, error)
	Put(ctx context.Context, entry *entity.ContentCacheEntry) error
	// EvictOlderThan deletes cache rows inserted before cutoff, run
	// periodically by the worker's maintenance sweep.
	EvictOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// IconCacheRepository stores the most recently fetched feed/page icon
// metadata keyed by the hashed source URL.
type IconCacheRepository interface {
	Get(ctx context.Context, url string) (*entity.IconCacheEntry, bool, error)
	Put(ctx context.Context, entry *entity.IconCacheEntry) error
}
