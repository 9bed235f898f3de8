package repository

import (
	"context"

	"yana/internal/domain/entity"
)

// RunRepository persists one Run record per aggregator execution, used for
// operator visibility and for the daily-quota distributor's "posts already
// made today" lookups.
type RunRepository interface {
	Create(ctx context.Context, run *entity.Run) error
	// ListRecentByFeed returns the most recent runs for feedID, newest
	// first, bounded by limit.
	ListRecentByFeed(ctx context.Context, feedID int64, limit int) ([]*entity.Run, error)
}
