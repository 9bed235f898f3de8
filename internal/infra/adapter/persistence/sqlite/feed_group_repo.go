package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"yana/internal/repository"
)

// FeedGroupRepo persists the label assignments behind the
// `user/-/label/{groupName}` stream id.
type FeedGroupRepo struct{ db *sql.DB }

func NewFeedGroupRepo(db *sql.DB) repository.FeedGroupRepository {
	return &FeedGroupRepo{db: db}
}

func (r *FeedGroupRepo) AddLabel(ctx context.Context, feedID, userID int64, label string) error {
	const q = `INSERT OR IGNORE INTO feed_groups (feed_id, user_id, label) VALUES (?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, feedID, userID, label); err != nil {
		return fmt.Errorf("add feed label: %w", err)
	}
	return nil
}

func (r *FeedGroupRepo) RemoveLabel(ctx context.Context, feedID, userID int64, label string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM feed_groups WHERE feed_id = ? AND user_id = ? AND label = ?`,
		feedID, userID, label)
	if err != nil {
		return fmt.Errorf("remove feed label: %w", err)
	}
	return nil
}

func (r *FeedGroupRepo) ListLabelsByFeed(ctx context.Context, feedID, userID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT label FROM feed_groups WHERE feed_id = ? AND user_id = ? ORDER BY label`, feedID, userID)
	if err != nil {
		return nil, fmt.Errorf("list labels by feed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var labels []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, fmt.Errorf("scan label: %w", err)
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

func (r *FeedGroupRepo) ListFeedIDsByLabel(ctx context.Context, userID int64, label string) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT feed_id FROM feed_groups WHERE user_id = ? AND label = ?`, userID, label)
	if err != nil {
		return nil, fmt.Errorf("list feed ids by label: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan feed id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
