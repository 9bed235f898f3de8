// Package postgres implements the repository interfaces (internal/repository)
// against a PostgreSQL database via database/sql and the pgx stdlib driver,
// using hand-written raw SQL rather than an ORM.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"yana/internal/domain/entity"
	"yana/internal/repository"
)

// FeedRepo persists entity.Feed rows. FeedOptions and AIHints are stored as
// a single JSONB column since the option set is closed but grows with each
// aggregator kind and doesn't warrant its own normalized table.
type FeedRepo struct{ db *sql.DB }

func NewFeedRepo(db *sql.DB) repository.FeedRepository {
	return &FeedRepo{db: db}
}

// feedOptionsRow is the JSON wire-shape persisted for Feed.Options/Feed.AI.
type feedOptionsRow struct {
	ExcludeSelectors []string `json:"exclude_selectors,omitempty"`
	IgnoreTitleContains []string `json:"ignore_title_contains,omitempty"`
	IgnoreContentContains []string `json:"ignore_content_contains,omitempty"`
	RegexReplacements []entity.RegexReplacement `json:"regex_replacements,omitempty"`
	TraverseMultipage bool `json:"traverse_multipage,omitempty"`
	SkipDuplicates bool `json:"skip_duplicates,omitempty"`
	UseCurrentTimestamp bool `json:"use_current_timestamp,omitempty"`
	GenerateTitleImage bool `json:"generate_title_image,omitempty"`
	AddSourceFooter bool `json:"add_source_footer,omitempty"`
	DailyPostLimit int `json:"daily_post_limit"`

	Summarize bool `json:"summarize,omitempty"`
	TranslateTo string `json:"translate_to,omitempty"`
	CustomPrompt string `json:"custom_prompt,omitempty"`
}

func encodeFeedOptions(f *entity.Feed) ([]byte, error) {
	row := feedOptionsRow{
		ExcludeSelectors: f.Options.ExcludeSelectors,
		IgnoreTitleContains: f.Options.IgnoreTitleContains,
		IgnoreContentContains: f.Options.IgnoreContentContains,
		RegexReplacements: f.Options.RegexReplacements,
		TraverseMultipage: f.Options.TraverseMultipage,
		SkipDuplicates: f.Options.SkipDuplicates,
		UseCurrentTimestamp: f.Options.UseCurrentTimestamp,
		GenerateTitleImage: f.Options.GenerateTitleImage,
		AddSourceFooter: f.Options.AddSourceFooter,
		DailyPostLimit: f.Options.DailyPostLimit,
		Summarize: f.AI.Summarize,
		TranslateTo: f.AI.TranslateTo,
		CustomPrompt: f.AI.CustomPrompt,
	}
	return json.Marshal(row)
}

func decodeFeedOptions(raw []byte, f *entity.Feed) error {
	if len(raw) == 0 {
		return nil
	}
	var row feedOptionsRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return fmt.Errorf("unmarshal feed options: %w", err)
	}
	f.Options = entity.FeedOptions{
		ExcludeSelectors: row.ExcludeSelectors,
		IgnoreTitleContains: row.IgnoreTitleContains,
		IgnoreContentContains: row.IgnoreContentContains,
		RegexReplacements: row.RegexReplacements,
		TraverseMultipage: row.TraverseMultipage,
		SkipDuplicates: row.SkipDuplicates,
		UseCurrentTimestamp: row.UseCurrentTimestamp,
		GenerateTitleImage: row.GenerateTitleImage,
		AddSourceFooter: row.AddSourceFooter,
		DailyPostLimit: row.DailyPostLimit,
	}
	f.AI = entity.AIHints{
		Summarize: row.Summarize,
		TranslateTo: row.TranslateTo,
		CustomPrompt: row.CustomPrompt,
	}
	return nil
}

const feedColumns = `id, user_id, kind, identifier, name, icon, enabled, options,
	last_crawled_at, last_icon_identifier, created_at`

func scanFeed(row interface{ Scan(...any) error }) (*entity.Feed, error) {
	var f entity.Feed
	var optsRaw []byte
	if err := row.Scan(&f.ID, &f.UserID, &f.Kind, &f.Identifier, &f.Name, &f.Icon,
		&f.Enabled, &optsRaw, &f.LastCrawledAt, &f.LastIconIdentifier, &f.CreatedAt); err != nil {
		return nil, err
	}
	if err := decodeFeedOptions(optsRaw, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *FeedRepo) Get(ctx context.Context, id int64) (*entity.Feed, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+feedColumns+` FROM feeds WHERE id = $1`, id)
	f, err := scanFeed(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get feed: %w", err)
	}
	return f, nil
}

func (r *FeedRepo) queryFeeds(ctx context.Context, query string, args ...any) ([]*entity.Feed, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	feeds := make([]*entity.Feed, 0, 32)
	for rows.Next() {
		f, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("scan feed: %w", err)
		}
		feeds = append(feeds, f)
	}
	return feeds, rows.Err()
}

func (r *FeedRepo) List(ctx context.Context) ([]*entity.Feed, error) {
	feeds, err := r.queryFeeds(ctx, `SELECT `+feedColumns+` FROM feeds ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list feeds: %w", err)
	}
	return feeds, nil
}

func (r *FeedRepo) ListEnabled(ctx context.Context) ([]*entity.Feed, error) {
	feeds, err := r.queryFeeds(ctx, `SELECT `+feedColumns+` FROM feeds WHERE enabled = TRUE ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list enabled feeds: %w", err)
	}
	return feeds, nil
}

func (r *FeedRepo) ListByUser(ctx context.Context, userID int64) ([]*entity.Feed, error) {
	feeds, err := r.queryFeeds(ctx,
		`SELECT `+feedColumns+` FROM feeds WHERE user_id = $1 OR user_id IS NULL ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list feeds by user: %w", err)
	}
	return feeds, nil
}

func (r *FeedRepo) Create(ctx context.Context, feed *entity.Feed) error {
	opts, err := encodeFeedOptions(feed)
	if err != nil {
		return err
	}
	if feed.CreatedAt.IsZero() {
		feed.CreatedAt = time.Now().UTC()
	}
	const q = `
INSERT INTO feeds (user_id, kind, identifier, name, icon, enabled, options, last_crawled_at, last_icon_identifier, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id`
	err = r.db.QueryRowContext(ctx, q, feed.UserID, feed.Kind, feed.Identifier, feed.Name,
		feed.Icon, feed.Enabled, opts, feed.LastCrawledAt, feed.LastIconIdentifier, feed.CreatedAt).Scan(&feed.ID)
	if err != nil {
		return fmt.Errorf("create feed: %w", err)
	}
	return nil
}

func (r *FeedRepo) Update(ctx context.Context, feed *entity.Feed) error {
	opts, err := encodeFeedOptions(feed)
	if err != nil {
		return err
	}
	const q = `
UPDATE feeds SET user_id = $2, kind = $3, identifier = $4, name = $5, icon = $6,
	enabled = $7, options = $8, last_crawled_at = $9, last_icon_identifier = $10
WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, feed.ID, feed.UserID, feed.Kind, feed.Identifier,
		feed.Name, feed.Icon, feed.Enabled, opts, feed.LastCrawledAt, feed.LastIconIdentifier)
	if err != nil {
		return fmt.Errorf("update feed: %w", err)
	}
	return requireRowsAffected(res, "update feed")
}

func (r *FeedRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM feeds WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete feed: %w", err)
	}
	return requireRowsAffected(res, "delete feed")
}

func (r *FeedRepo) TouchCrawledAt(ctx context.Context, id int64, t time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE feeds SET last_crawled_at = $2 WHERE id = $1`, id, t)
	if err != nil {
		return fmt.Errorf("touch crawled at: %w", err)
	}
	return requireRowsAffected(res, "touch crawled at")
}

func (r *FeedRepo) SetLastIconIdentifier(ctx context.Context, id int64, identifier string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE feeds SET last_icon_identifier = $2 WHERE id = $1`, id, identifier)
	if err != nil {
		return fmt.Errorf("set last icon identifier: %w", err)
	}
	return requireRowsAffected(res, "set last icon identifier")
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
