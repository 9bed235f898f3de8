package repository

import (
	"context"
	"time"

	"yana/internal/domain/entity"
)

// FeedRepository persists Feed configuration.
type FeedRepository interface {
	Get(ctx context.Context, id int64) (*entity.Feed, error)
	List(ctx context.Context) ([]*entity.Feed, error)
	ListEnabled(ctx context.Context) ([]*entity.Feed, error)
	// ListByUser returns feeds owned by userID plus system-shared feeds
	// (UserID == nil), multi-user ownership model.
	ListByUser(ctx context.Context, userID int64) ([]*entity.Feed, error)
	Create(ctx context.Context, feed *entity.Feed) error
	Update(ctx context.Context, feed *entity.Feed) error
	Delete(ctx context.Context, id int64) error
	// TouchCrawledAt records the timestamp of the most recently completed run.
	TouchCrawledAt(ctx context.Context, id int64, t time.Time) error
	// SetLastIconIdentifier records the identifier value the feed icon was
	// last collected for.
	SetLastIconIdentifier(ctx context.Context, id int64, identifier string) error
}
