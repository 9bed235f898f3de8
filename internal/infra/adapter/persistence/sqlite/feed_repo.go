package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"yana/internal/domain/entity"
	"yana/internal/repository"
)

// FeedRepo persists entity.Feed rows against SQLite. Options/AIHints are
// stored as a single TEXT column holding JSON, mirroring the postgres
// package's JSONB column (SQLite has no native JSON type).
type FeedRepo struct{ db *sql.DB }

func NewFeedRepo(db *sql.DB) repository.FeedRepository {
	return &FeedRepo{db: db}
}

type feedOptionsRow struct {
	ExcludeSelectors      []string                  `json:"exclude_selectors,omitempty"`
	IgnoreTitleContains   []string                  `json:"ignore_title_contains,omitempty"`
	IgnoreContentContains []string                  `json:"ignore_content_contains,omitempty"`
	RegexReplacements     []entity.RegexReplacement `json:"regex_replacements,omitempty"`
	TraverseMultipage     bool                      `json:"traverse_multipage,omitempty"`
	SkipDuplicates        bool                      `json:"skip_duplicates,omitempty"`
	UseCurrentTimestamp   bool                      `json:"use_current_timestamp,omitempty"`
	GenerateTitleImage    bool                      `json:"generate_title_image,omitempty"`
	AddSourceFooter       bool                      `json:"add_source_footer,omitempty"`
	DailyPostLimit        int                       `json:"daily_post_limit"`

	Summarize    bool   `json:"summarize,omitempty"`
	TranslateTo  string `json:"translate_to,omitempty"`
	CustomPrompt string `json:"custom_prompt,omitempty"`
}

func encodeFeedOptions(f *entity.Feed) (string, error) {
	row := feedOptionsRow{
		ExcludeSelectors:      f.Options.ExcludeSelectors,
		IgnoreTitleContains:   f.Options.IgnoreTitleContains,
		IgnoreContentContains: f.Options.IgnoreContentContains,
		RegexReplacements:     f.Options.RegexReplacements,
		TraverseMultipage:     f.Options.TraverseMultipage,
		SkipDuplicates:        f.Options.SkipDuplicates,
		UseCurrentTimestamp:   f.Options.UseCurrentTimestamp,
		GenerateTitleImage:    f.Options.GenerateTitleImage,
		AddSourceFooter:       f.Options.AddSourceFooter,
		DailyPostLimit:        f.Options.DailyPostLimit,
		Summarize:             f.AI.Summarize,
		TranslateTo:           f.AI.TranslateTo,
		CustomPrompt:          f.AI.CustomPrompt,
	}
	raw, err := json.Marshal(row)
	return string(raw), err
}

func decodeFeedOptions(raw string, f *entity.Feed) error {
	if raw == "" {
		return nil
	}
	var row feedOptionsRow
	if err := json.Unmarshal([]byte(raw), &row); err != nil {
		return fmt.Errorf("unmarshal feed options: %w", err)
	}
	f.Options = entity.FeedOptions{
		ExcludeSelectors:      row.ExcludeSelectors,
		IgnoreTitleContains:   row.IgnoreTitleContains,
		IgnoreContentContains: row.IgnoreContentContains,
		RegexReplacements:     row.RegexReplacements,
		TraverseMultipage:     row.TraverseMultipage,
		SkipDuplicates:        row.SkipDuplicates,
		UseCurrentTimestamp:   row.UseCurrentTimestamp,
		GenerateTitleImage:    row.GenerateTitleImage,
		AddSourceFooter:       row.AddSourceFooter,
		DailyPostLimit:        row.DailyPostLimit,
	}
	f.AI = entity.AIHints{
		Summarize:    row.Summarize,
		TranslateTo:  row.TranslateTo,
		CustomPrompt: row.CustomPrompt,
	}
	return nil
}

const feedColumns = `id, user_id, kind, identifier, name, icon, enabled, options,
	last_crawled_at, last_icon_identifier, created_at`

func scanFeed(row interface{ Scan(...any) error }) (*entity.Feed, error) {
	var f entity.Feed
	var userID sql.NullInt64
	var opts, created string
	var lastCrawled sql.NullString
	var enabled int
	if err := row.Scan(&f.ID, &userID, &f.Kind, &f.Identifier, &f.Name, &f.Icon,
		&enabled, &opts, &lastCrawled, &f.LastIconIdentifier, &created); err != nil {
		return nil, err
	}
	if userID.Valid {
		id := userID.Int64
		f.UserID = &id
	}
	f.Enabled = enabled != 0
	f.LastCrawledAt = parseTimePtr(lastCrawled)
	f.CreatedAt = parseTime(created)
	if err := decodeFeedOptions(opts, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *FeedRepo) Get(ctx context.Context, id int64) (*entity.Feed, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+feedColumns+` FROM feeds WHERE id = ?`, id)
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
	feeds, err := r.queryFeeds(ctx, `SELECT `+feedColumns+` FROM feeds WHERE enabled = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list enabled feeds: %w", err)
	}
	return feeds, nil
}

func (r *FeedRepo) ListByUser(ctx context.Context, userID int64) ([]*entity.Feed, error) {
	feeds, err := r.queryFeeds(ctx,
		`SELECT `+feedColumns+` FROM feeds WHERE user_id = ? OR user_id IS NULL ORDER BY id`, userID)
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
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, feed.UserID, feed.Kind, feed.Identifier, feed.Name,
		feed.Icon, feed.Enabled, opts, nullableTime(feed.LastCrawledAt), feed.LastIconIdentifier, formatTime(feed.CreatedAt))
	if err != nil {
		return fmt.Errorf("create feed: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create feed: last insert id: %w", err)
	}
	feed.ID = id
	return nil
}

func (r *FeedRepo) Update(ctx context.Context, feed *entity.Feed) error {
	opts, err := encodeFeedOptions(feed)
	if err != nil {
		return err
	}
	const q = `
UPDATE feeds SET user_id = ?, kind = ?, identifier = ?, name = ?, icon = ?,
	enabled = ?, options = ?, last_crawled_at = ?, last_icon_identifier = ?
WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, feed.UserID, feed.Kind, feed.Identifier,
		feed.Name, feed.Icon, feed.Enabled, opts, nullableTime(feed.LastCrawledAt), feed.LastIconIdentifier, feed.ID)
	if err != nil {
		return fmt.Errorf("update feed: %w", err)
	}
	return requireRowsAffected(res, "update feed")
}

func (r *FeedRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM feeds WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete feed: %w", err)
	}
	return requireRowsAffected(res, "delete feed")
}

func (r *FeedRepo) TouchCrawledAt(ctx context.Context, id int64, t time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE feeds SET last_crawled_at = ? WHERE id = ?`, formatTime(t), id)
	if err != nil {
		return fmt.Errorf("touch crawled at: %w", err)
	}
	return requireRowsAffected(res, "touch crawled at")
}

func (r *FeedRepo) SetLastIconIdentifier(ctx context.Context, id int64, identifier string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE feeds SET last_icon_identifier = ? WHERE id = ?`, identifier, id)
	if err != nil {
		return fmt.Errorf("set last icon identifier: %w", err)
	}
	return requireRowsAffected(res, "set last icon identifier")
}
