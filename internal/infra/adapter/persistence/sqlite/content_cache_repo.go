package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"yana/internal/domain/entity"
	"yana/internal/repository"
)

// ContentCacheRepo is the advisory per-URL HTML cache the enrichment
// pipeline consults before every fetch. Correctness never depends on a
// hit.
type ContentCacheRepo struct{ db *sql.DB }

func NewContentCacheRepo(db *sql.DB) repository.ContentCacheRepository {
	return &ContentCacheRepo{db: db}
}

func (r *ContentCacheRepo) Get(ctx context.Context, url string) (*entity.ContentCacheEntry, bool, error) {
	var e entity.ContentCacheEntry
	var inserted string
	err := r.db.QueryRowContext(ctx,
		`SELECT url, html, inserted_at FROM content_cache WHERE url = ?`, url).
		Scan(&e.URL, &e.HTML, &inserted)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get content cache entry: %w", err)
	}
	e.InsertedAt = parseTime(inserted)
	return &e, true, nil
}

func (r *ContentCacheRepo) Put(ctx context.Context, entry *entity.ContentCacheEntry) error {
	if entry.InsertedAt.IsZero() {
		entry.InsertedAt = time.Now().UTC()
	}
	const q = `
INSERT INTO content_cache (url, html, inserted_at) VALUES (?, ?, ?)
ON CONFLICT (url) DO UPDATE SET html = excluded.html, inserted_at = excluded.inserted_at`
	if _, err := r.db.ExecContext(ctx, q, entry.URL, entry.HTML, formatTime(entry.InsertedAt)); err != nil {
		return fmt.Errorf("put content cache entry: %w", err)
	}
	return nil
}

func (r *ContentCacheRepo) EvictOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM content_cache WHERE inserted_at < ?`, formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("evict content cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("evict content cache: rows affected: %w", err)
	}
	return n, nil
}
