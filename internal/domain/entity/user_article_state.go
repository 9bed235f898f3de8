package entity

import "time"

// UserArticleState holds per-(user, article) flags. It is created lazily on
// first toggle and is independent of Feed ownership so a system-shared feed
// can serve many users.
type UserArticleState struct {
	UserID    int64
	ArticleID int64
	IsRead    bool
	IsSaved   bool
	UpdatedAt time.Time
}

// ContentCacheEntry is a per-URL keyed blob of the most recently fetched
// HTML, consulted by EnrichmentPipeline before any fetch.
// Caches are advisory: correctness must never depend on a hit.
type ContentCacheEntry struct {
	URL        string
	HTML       string
	InsertedAt time.Time
}

// IconCacheEntry is a hashed-URL file on disk storing the feed/page icon
// most recently fetched for a given URL.
type IconCacheEntry struct {
	URL      string    `json:"url"`
	DataURI  string    `json:"dataUri"`
	CachedAt time.Time `json:"cachedAt"`
}

// Run records one execution of an aggregator against a specific feed.
// success=false always carries a human-readable Reason; the feed is not
// auto-disabled unless the aggregator explicitly says so.
type Run struct {
	ID         string // uuid
	FeedID     int64
	StartedAt  time.Time
	FinishedAt time.Time
	Success    bool
	Reason     string
	Stats      RunStats
}

// RunStats summarizes the outcome of one Run.
type RunStats struct {
	ItemsFound      int
	ItemsInserted   int
	ItemsUpdated    int
	ItemsSkipped    int
	ItemsDuplicated int
	Errors          int
}
