package repository

import (
	"context"

	"yana/internal/domain/entity"
)

// FeedGroupRepository persists the (feed, user, label) assignments behind
// the `user/-/label/{groupName}` stream id.
type FeedGroupRepository interface {
	AddLabel(ctx context.Context, feedID, userID int64, label string) error
	RemoveLabel(ctx context.Context, feedID, userID int64, label string) error
	ListLabelsByFeed(ctx context.Context, feedID, userID int64) ([]string, error)
	// ListFeedIDsByLabel returns the feeds userID has assigned to label.
	ListFeedIDsByLabel(ctx context.Context, userID int64, label string) ([]int64, error)
}
