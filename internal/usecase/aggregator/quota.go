package aggregator

import (
	"context"
	"math"
	"time"

	"yana/internal/domain/entity"
	"yana/internal/repository"
)

// QuotaSource is the subset of ArticleRepository the distributor needs to
// learn how many articles a feed has already inserted today and when the
// most recent of those was inserted.
type QuotaSource interface {
	CountByFeedSince(ctx context.Context, feedID int64, since time.Time) (int, error)
	LastInsertedAt(ctx context.Context, feedID int64, since time.Time) (*time.Time, error)
}

var _ QuotaSource = repository.ArticleRepository(nil)

// unlimitedRunCap is the per-run cap substituted when daily_post_limit is
// -1 ("unlimited").
const unlimitedRunCap = 100

// Distribute implements the daily-quota distributor: it paces a feed's
// ingestion evenly across the remaining scheduled runs of the UTC day
// rather than front-loading the full quota on the first run.
func Distribute(ctx context.Context, source QuotaSource, feed *entity.Feed, forceRefresh bool, now time.Time) (int, error) {
	limit := feed.Options.DailyPostLimit

	if limit == -1 {
		return unlimitedRunCap, nil
	}
	if limit == 0 {
		return 0, nil
	}
	if forceRefresh {
		return limit, nil
	}

	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	postsToday, err := source.CountByFeedSince(ctx, feed.ID, midnight)
	if err != nil {
		return 0, err
	}

	remainingQuota := limit - postsToday
	if remainingQuota <= 0 {
		return 0, nil
	}

	secondsUntilMidnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC).Sub(now).Seconds()

	var secondsSinceLastPost float64
	lastPost, err := source.LastInsertedAt(ctx, feed.ID, midnight)
	if err != nil {
		return 0, err
	}
	if lastPost == nil {
		secondsSinceLastPost = now.Sub(midnight).Seconds()
	} else {
		secondsSinceLastPost = now.Sub(*lastPost).Seconds()
	}
	if secondsSinceLastPost <= 0 {
		secondsSinceLastPost = 1
	}

	remainingRuns := math.Ceil(secondsUntilMidnight / secondsSinceLastPost)
	if remainingRuns < 1 {
		remainingRuns = 1
	}

	dynamic := int(math.Ceil(float64(remainingQuota) / remainingRuns))
	if dynamic < 1 {
		dynamic = 1
	}
	return dynamic, nil
}
