package repository

import (
	"context"

	"yana/internal/domain/entity"
)

// UserArticleStateRepository persists per-user read/saved flags, created
// lazily on first toggle.
type UserArticleStateRepository interface {
	Get(ctx context.Context, userID, articleID int64) (*entity.UserArticleState, error)
	Upsert(ctx context.Context, state *entity.UserArticleState) error
	// CountUnread returns the number of articles in feedIDs that userID has
	// not marked read, used by StreamService's unread-count endpoint.
	CountUnread(ctx context.Context, userID int64, feedIDs []int64) (int64, error)
	// CountUnreadByFeeds returns the same quantity broken down per feedID,
	// used to populate StreamService's unread-count response which reports
	// one count per feed.
	CountUnreadByFeeds(ctx context.Context, userID int64, feedIDs []int64) (map[int64]int64, error)
	// ListReadArticleIDs returns, of the given candidate article ids, those
	// userID has marked read — used to annotate stream/contents responses.
	ListReadArticleIDs(ctx context.Context, userID int64, articleIDs []int64) (map[int64]bool, error)
	ListSavedArticleIDs(ctx context.Context, userID int64, articleIDs []int64) (map[int64]bool, error)
}
