package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"yana/internal/domain/entity"
	"yana/internal/repository"
)

// placeholders builds a "?, ?,..." SQL fragment and appends values to
// args. SQLite binds positionally regardless of placeholder style, so the
// plain "?" form (rather than postgres's "$n") is used throughout.
func placeholders(values []any, args *[]any) string {
	var b strings.Builder
	for i, v := range values {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("?")
		*args = append(*args, v)
	}
	return b.String()
}

// ArticleRepo persists entity.Article rows against SQLite. Grounded on the
// postgres package's ArticleRepo (same repository.ArticleRepository
// contract), adapted to "?" placeholders and RFC3339-text timestamps.
type ArticleRepo struct{ db *sql.DB }

func NewArticleRepo(db *sql.DB) repository.ArticleRepository {
	return &ArticleRepo{db: db}
}

const articleColumns = `id, feed_id, url, canonical_url, name, content, published_at,
	created_at, author, external_id, thumbnail_url, media_url, media_type, score, view_count`

func scanArticle(row interface{ Scan(...any) error }) (*entity.Article, error) {
	var a entity.Article
	var published, created string
	if err := row.Scan(&a.ID, &a.FeedID, &a.URL, &a.CanonicalURL, &a.Name, &a.Content,
		&published, &created, &a.Author, &a.ExternalID, &a.ThumbnailURL,
		&a.MediaURL, &a.MediaType, &a.Score, &a.ViewCount); err != nil {
		return nil, err
	}
	a.PublishedAt = parseTime(published)
	a.CreatedAt = parseTime(created)
	return &a, nil
}

func (r *ArticleRepo) Get(ctx context.Context, id int64) (*entity.Article, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = ?`, id)
	a, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}
	return a, nil
}

func (r *ArticleRepo) GetByCanonicalURL(ctx context.Context, feedID int64, canonicalURL string) (*entity.Article, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE feed_id = ? AND canonical_url = ?`,
		feedID, canonicalURL)
	a, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get article by canonical url: %w", err)
	}
	return a, nil
}

// ListByFeedIDs returns articles belonging to any of feedIDs, newest first,
// honoring a keyset cursor (afterID).
func (r *ArticleRepo) ListByFeedIDs(ctx context.Context, feedIDs []int64, filters repository.ArticleSearchFilters, afterID int64, limit int) ([]*entity.Article, error) {
	if len(feedIDs) == 0 {
		return nil, nil
	}
	var args []any
	idVals := make([]any, len(feedIDs))
	for i, id := range feedIDs {
		idVals[i] = id
	}
	inClause := placeholders(idVals, &args)
	query := `SELECT ` + articleColumns + ` FROM articles WHERE feed_id IN (` + inClause + `)`
	if filters.FeedID != nil {
		query += ` AND feed_id = ?`
		args = append(args, *filters.FeedID)
	}
	if filters.From != nil {
		query += ` AND published_at >= ?`
		args = append(args, formatTime(*filters.From))
	}
	if filters.To != nil {
		query += ` AND published_at <= ?`
		args = append(args, formatTime(*filters.To))
	}
	if afterID > 0 {
		query += ` AND id < ?`
		args = append(args, afterID)
	}
	query += ` ORDER BY published_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list articles by feed ids: %w", err)
	}
	defer func() { _ = rows.Close() }()

	articles := make([]*entity.Article, 0, limit)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

func (r *ArticleRepo) Search(ctx context.Context, keyword string) ([]*entity.Article, error) {
	like := "%" + strings.ReplaceAll(keyword, "%", `\%`) + "%"
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE name LIKE ? ESCAPE '\' OR content LIKE ? ESCAPE '\' ORDER BY published_at DESC LIMIT 200`,
		like, like)
	if err != nil {
		return nil, fmt.Errorf("search articles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	articles := make([]*entity.Article, 0, 64)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

func (r *ArticleRepo) Create(ctx context.Context, article *entity.Article) error {
	if article.CanonicalURL == "" {
		article.CanonicalURL = entity.NormalizeURL(article.URL)
	}
	if article.CreatedAt.IsZero() {
		article.CreatedAt = time.Now().UTC()
	}
	const q = `
INSERT INTO articles (feed_id, url, canonical_url, name, content, published_at, created_at,
	author, external_id, thumbnail_url, media_url, media_type, score, view_count)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, article.FeedID, article.URL, article.CanonicalURL,
		article.Name, article.Content, formatTime(article.PublishedAt), formatTime(article.CreatedAt),
		article.Author, article.ExternalID, article.ThumbnailURL, article.MediaURL, article.MediaType,
		article.Score, article.ViewCount)
	if err != nil {
		return fmt.Errorf("create article: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create article: last insert id: %w", err)
	}
	article.ID = id
	return nil
}

func (r *ArticleRepo) Update(ctx context.Context, article *entity.Article) error {
	const q = `
UPDATE articles SET feed_id = ?, url = ?, canonical_url = ?, name = ?, content = ?,
	published_at = ?, author = ?, external_id = ?, thumbnail_url = ?, media_url = ?,
	media_type = ?, score = ?, view_count = ?
WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, article.FeedID, article.URL, article.CanonicalURL,
		article.Name, article.Content, formatTime(article.PublishedAt), article.Author, article.ExternalID,
		article.ThumbnailURL, article.MediaURL, article.MediaType, article.Score, article.ViewCount, article.ID)
	if err != nil {
		return fmt.Errorf("update article: %w", err)
	}
	return requireRowsAffected(res, "update article")
}

func (r *ArticleRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM articles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	return requireRowsAffected(res, "delete article")
}

func (r *ArticleRepo) ExistsByCanonicalURL(ctx context.Context, feedID int64, canonicalURL string) (bool, error) {
	var exists int
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM articles WHERE feed_id = ? AND canonical_url = ?)`,
		feedID, canonicalURL).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists by canonical url: %w", err)
	}
	return exists != 0, nil
}

// ExistsByCanonicalURLBatch avoids one query per candidate URL during a
// single aggregator run.
func (r *ArticleRepo) ExistsByCanonicalURLBatch(ctx context.Context, feedID int64, canonicalURLs []string) (map[string]bool, error) {
	result := make(map[string]bool, len(canonicalURLs))
	if len(canonicalURLs) == 0 {
		return result, nil
	}
	for _, u := range canonicalURLs {
		result[u] = false
	}
	urlVals := make([]any, len(canonicalURLs))
	for i, u := range canonicalURLs {
		urlVals[i] = u
	}
	args := []any{feedID}
	inClause := placeholders(urlVals, &args)
	rows, err := r.db.QueryContext(ctx,
		`SELECT canonical_url FROM articles WHERE feed_id = ? AND canonical_url IN (`+inClause+`)`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("exists by canonical url batch: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan canonical url: %w", err)
		}
		result[u] = true
	}
	return result, rows.Err()
}

func (r *ArticleRepo) CountByFeedSince(ctx context.Context, feedID int64, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM articles WHERE feed_id = ? AND created_at >= ?`, feedID, formatTime(since)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count by feed since: %w", err)
	}
	return count, nil
}

func (r *ArticleRepo) LastInsertedAt(ctx context.Context, feedID int64, since time.Time) (*time.Time, error) {
	var created string
	err := r.db.QueryRowContext(ctx,
		`SELECT created_at FROM articles WHERE feed_id = ? AND created_at >= ? ORDER BY created_at DESC LIMIT 1`,
		feedID, formatTime(since)).Scan(&created)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last inserted at: %w", err)
	}
	t := parseTime(created)
	return &t, nil
}

// NewestPublishedByFeeds implements the aggregate lookup StreamService's
// unread-count endpoint uses for newestItemTimestampUsec, one GROUP BY
// query rather than a per-feed round trip.
func (r *ArticleRepo) NewestPublishedByFeeds(ctx context.Context, feedIDs []int64) (map[int64]time.Time, error) {
	result := make(map[int64]time.Time, len(feedIDs))
	if len(feedIDs) == 0 {
		return result, nil
	}
	var args []any
	vals := make([]any, len(feedIDs))
	for i, id := range feedIDs {
		vals[i] = id
	}
	inClause := placeholders(vals, &args)

	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT feed_id, MAX(published_at) FROM articles WHERE feed_id IN (%s) GROUP BY feed_id`, inClause),
		args...)
	if err != nil {
		return nil, fmt.Errorf("newest published by feeds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var feedID int64
		var published string
		if err := rows.Scan(&feedID, &published); err != nil {
			return nil, fmt.Errorf("scan newest published: %w", err)
		}
		result[feedID] = parseTime(published)
	}
	return result, rows.Err()
}

func requireRowsAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: no matching row", op)
	}
	return nil
}
