package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"yana/internal/domain/entity"
	"yana/internal/repository"
)

// UserArticleStateRepo persists per-(user, article) read/saved flags,
// created lazily on first toggle.
type UserArticleStateRepo struct{ db *sql.DB }

func NewUserArticleStateRepo(db *sql.DB) repository.UserArticleStateRepository {
	return &UserArticleStateRepo{db: db}
}

func (r *UserArticleStateRepo) Get(ctx context.Context, userID, articleID int64) (*entity.UserArticleState, error) {
	var s entity.UserArticleState
	var isRead, isSaved int
	var updated string
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, article_id, is_read, is_saved, updated_at FROM user_article_states
		 WHERE user_id = ? AND article_id = ?`, userID, articleID).
		Scan(&s.UserID, &s.ArticleID, &isRead, &isSaved, &updated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user article state: %w", err)
	}
	s.IsRead = isRead != 0
	s.IsSaved = isSaved != 0
	s.UpdatedAt = parseTime(updated)
	return &s, nil
}

func (r *UserArticleStateRepo) Upsert(ctx context.Context, state *entity.UserArticleState) error {
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now().UTC()
	}
	const q = `
INSERT INTO user_article_states (user_id, article_id, is_read, is_saved, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (user_id, article_id) DO UPDATE
SET is_read = excluded.is_read, is_saved = excluded.is_saved, updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, q, state.UserID, state.ArticleID, state.IsRead, state.IsSaved, formatTime(state.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upsert user article state: %w", err)
	}
	return nil
}

// CountUnread implements the unread-count contract with two
// aggregate queries (total articles per feed, minus read states per feed)
// rather than per-article iteration.
func (r *UserArticleStateRepo) CountUnread(ctx context.Context, userID int64, feedIDs []int64) (int64, error) {
	if len(feedIDs) == 0 {
		return 0, nil
	}
	var args []any
	vals := make([]any, len(feedIDs))
	for i, id := range feedIDs {
		vals[i] = id
	}
	inClause := placeholders(vals, &args)
	args = append([]any{userID}, args...)

	const q = `
SELECT
	(SELECT COUNT(*) FROM articles WHERE feed_id IN (%s)) -
	(SELECT COUNT(*) FROM user_article_states s
	 JOIN articles a ON a.id = s.article_id
	 WHERE s.user_id = ? AND s.is_read = 1 AND a.feed_id IN (%s))`
	query := fmt.Sprintf(q, inClause, inClause)
	var count int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	if count < 0 {
		count = 0
	}
	return count, nil
}

// CountUnreadByFeeds breaks CountUnread down per feed, via the same
// paired-aggregate shape: total articles per feed minus read states per
// feed, merged in Go rather than a single correlated query.
func (r *UserArticleStateRepo) CountUnreadByFeeds(ctx context.Context, userID int64, feedIDs []int64) (map[int64]int64, error) {
	totals := make(map[int64]int64, len(feedIDs))
	if len(feedIDs) == 0 {
		return totals, nil
	}
	var args []any
	vals := make([]any, len(feedIDs))
	for i, id := range feedIDs {
		vals[i] = id
	}
	inClause := placeholders(vals, &args)

	totalRows, err := r.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT feed_id, COUNT(*) FROM articles WHERE feed_id IN (%s) GROUP BY feed_id`, inClause),
		args...)
	if err != nil {
		return nil, fmt.Errorf("count unread by feeds (totals): %w", err)
	}
	func() {
		defer func() { _ = totalRows.Close() }()
		for totalRows.Next() {
			var feedID, count int64
			if err := totalRows.Scan(&feedID, &count); err == nil {
				totals[feedID] = count
			}
		}
	}()
	if err := totalRows.Err(); err != nil {
		return nil, fmt.Errorf("count unread by feeds (totals): %w", err)
	}

	readArgs := append([]any{userID}, args...)
	readRows, err := r.db.QueryContext(ctx,
		fmt.Sprintf(`
SELECT a.feed_id, COUNT(*) FROM user_article_states s
JOIN articles a ON a.id = s.article_id
WHERE s.user_id = ? AND s.is_read = 1 AND a.feed_id IN (%s)
GROUP BY a.feed_id`, inClause),
		readArgs...)
	if err != nil {
		return nil, fmt.Errorf("count unread by feeds (read): %w", err)
	}
	defer func() { _ = readRows.Close() }()
	read := make(map[int64]int64, len(feedIDs))
	for readRows.Next() {
		var feedID, count int64
		if err := readRows.Scan(&feedID, &count); err != nil {
			return nil, fmt.Errorf("scan unread by feeds (read): %w", err)
		}
		read[feedID] = count
	}
	if err := readRows.Err(); err != nil {
		return nil, err
	}

	unread := make(map[int64]int64, len(feedIDs))
	for _, feedID := range feedIDs {
		n := totals[feedID] - read[feedID]
		if n < 0 {
			n = 0
		}
		unread[feedID] = n
	}
	return unread, nil
}

func (r *UserArticleStateRepo) ListReadArticleIDs(ctx context.Context, userID int64, articleIDs []int64) (map[int64]bool, error) {
	return r.listFlaggedArticleIDs(ctx, userID, articleIDs, "is_read")
}

func (r *UserArticleStateRepo) ListSavedArticleIDs(ctx context.Context, userID int64, articleIDs []int64) (map[int64]bool, error) {
	return r.listFlaggedArticleIDs(ctx, userID, articleIDs, "is_saved")
}

func (r *UserArticleStateRepo) listFlaggedArticleIDs(ctx context.Context, userID int64, articleIDs []int64, column string) (map[int64]bool, error) {
	result := make(map[int64]bool, len(articleIDs))
	if len(articleIDs) == 0 {
		return result, nil
	}
	args := []any{userID}
	vals := make([]any, len(articleIDs))
	for i, id := range articleIDs {
		vals[i] = id
	}
	inClause := placeholders(vals, &args)
	query := fmt.Sprintf(`SELECT article_id FROM user_article_states WHERE user_id = ? AND %s = 1 AND article_id IN (%s)`,
		column, inClause)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list flagged article ids (%s): %w", column, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan article id: %w", err)
		}
		result[id] = true
	}
	return result, rows.Err()
}
