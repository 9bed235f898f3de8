package repository

import (
	"context"
	"time"

	"yana/internal/domain/entity"
)

// ArticleSearchFilters contains optional filters for article search.
type ArticleSearchFilters struct {
	FeedID *int64     // Optional: restrict to a single feed
	From   *time.Time // Optional: published >= this timestamp
	To     *time.Time // Optional: published <= this timestamp
}

// ArticleRepository persists Article rows produced by the enrichment
// pipeline and read back by StreamService.
type ArticleRepository interface {
	Get(ctx context.Context, id int64) (*entity.Article, error)
	GetByCanonicalURL(ctx context.Context, feedID int64, canonicalURL string) (*entity.Article, error)
	// ListByFeedIDs returns articles belonging to any of feedIDs, newest
	// first, honoring a continuation cursor (pagination).
	ListByFeedIDs(ctx context.Context, feedIDs []int64, filters ArticleSearchFilters, afterID int64, limit int) ([]*entity.Article, error)
	Search(ctx context.Context, keyword string) ([]*entity.Article, error)
	Create(ctx context.Context, article *entity.Article) error
	Update(ctx context.Context, article *entity.Article) error
	Delete(ctx context.Context, id int64) error
	ExistsByCanonicalURL(ctx context.Context, feedID int64, canonicalURL string) (bool, error)
	// ExistsByCanonicalURLBatch batches the existence check to avoid N+1
	// queries during a single aggregator run (dedup rule).
	ExistsByCanonicalURLBatch(ctx context.Context, feedID int64, canonicalURLs []string) (map[string]bool, error)
	// CountByFeedSince counts articles inserted for feedID since the start
	// of the UTC day containing since, used by the daily-quota formula.
	CountByFeedSince(ctx context.Context, feedID int64, since time.Time) (int, error)
	// LastInsertedAt returns the insertion timestamp of the most recently
	// created article for feedID since since, or nil if none exist yet
	// today (the "no posts today yet" substitution).
	LastInsertedAt(ctx context.Context, feedID int64, since time.Time) (*time.Time, error)
	// NewestPublishedByFeeds returns, for each feedID with at least one
	// article, the published_at of its newest article. Used by
	// StreamService's unread-count endpoint to report
	// newestItemTimestampUsec without per-article iteration.
	NewestPublishedByFeeds(ctx context.Context, feedIDs []int64) (map[int64]time.Time, error)
}
