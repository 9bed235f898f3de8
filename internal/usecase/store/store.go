// Package store implements the ContentStore: the deduplication and
// persistence rules applied to every enriched article before it reaches
// the database, plus feed icon collection.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"yana/internal/domain/entity"
	"yana/internal/repository"
)

// titleDupWindow is the lookback window for the title-duplicate check
// (rule 3).
const titleDupWindow = 14 * 24 * time.Hour

// Icon is the subset of ImageExtractor feed-icon collection needs.
type Icon interface {
	FetchIcon(ctx context.Context, sourceURL string) (dataURI string, err error)
}

// Outcome reports what ContentStore actually did with one candidate
// article, for the run's stats.
type Outcome int

const (
	OutcomeInserted Outcome = iota
	OutcomeUpdated
	OutcomeSkippedRead
	OutcomeSkippedTitleDup
)

// Store applies the dedup/persistence rules.
type Store struct {
	articles repository.ArticleRepository
	states   repository.UserArticleStateRepository
	feeds    repository.FeedRepository
	icon     Icon
}

func New(articles repository.ArticleRepository, states repository.UserArticleStateRepository, feeds repository.FeedRepository, icon Icon) *Store {
	return &Store{articles: articles, states: states, feeds: feeds, icon: icon}
}

// Save implements steps 1-4 for one candidate article, keyed
// by (feed_id, canonical_url). now is injected so the caller controls the
// UTC clock used for created_at and the title-dup window.
func (s *Store) Save(ctx context.Context, feed *entity.Feed, candidate *entity.Article, forceRefresh bool, now time.Time) (Outcome, *entity.Article, error) {
	candidate.CanonicalURL = entity.NormalizeURL(candidate.URL)

	if !forceRefresh {
		existing, err := s.articles.GetByCanonicalURL(ctx, feed.ID, candidate.CanonicalURL)
		if err != nil {
			return 0, nil, fmt.Errorf("lookup existing article: %w", err)
		}
		if existing != nil {
			return s.handleURLDuplicate(ctx, feed, existing, candidate, now)
		}

		titleDup, err := s.hasRecentTitleDuplicate(ctx, feed, candidate, now)
		if err != nil {
			return 0, nil, fmt.Errorf("check title duplicate: %w", err)
		}
		if titleDup {
			return OutcomeSkippedTitleDup, nil, nil
		}
	} else {
		existing, err := s.articles.GetByCanonicalURL(ctx, feed.ID, candidate.CanonicalURL)
		if err != nil {
			return 0, nil, fmt.Errorf("lookup existing article: %w", err)
		}
		if existing != nil {
			return s.handleURLDuplicate(ctx, feed, existing, candidate, now)
		}
	}

	candidate.CreatedAt = now.UTC()
	if feed.Options.UseCurrentTimestamp {
		candidate.PublishedAt = now.UTC()
	}
	candidate.FeedID = feed.ID

	if err := s.articles.Create(ctx, candidate); err != nil {
		return 0, nil, fmt.Errorf("insert article: %w", err)
	}
	return OutcomeInserted, candidate, nil
}

// handleURLDuplicate implements rule 2: skip if the owner has
// read it, otherwise refresh content/date while preserving id and
// read/starred state.
func (s *Store) handleURLDuplicate(ctx context.Context, feed *entity.Feed, existing, candidate *entity.Article, now time.Time) (Outcome, *entity.Article, error) {
	if feed.UserID != nil {
		state, err := s.states.Get(ctx, *feed.UserID, existing.ID)
		if err != nil {
			return 0, nil, fmt.Errorf("lookup read state: %w", err)
		}
		if state != nil && state.IsRead {
			return OutcomeSkippedRead, existing, nil
		}
	}

	existing.Content = candidate.Content
	existing.PublishedAt = candidate.PublishedAt
	if feed.Options.UseCurrentTimestamp {
		existing.PublishedAt = now.UTC()
	}
	existing.ThumbnailURL = candidate.ThumbnailURL
	existing.MediaURL = candidate.MediaURL
	existing.MediaType = candidate.MediaType

	if err := s.articles.Update(ctx, existing); err != nil {
		return 0, nil, fmt.Errorf("update existing article: %w", err)
	}
	return OutcomeUpdated, existing, nil
}

func (s *Store) hasRecentTitleDuplicate(ctx context.Context, feed *entity.Feed, candidate *entity.Article, now time.Time) (bool, error) {
	since := now.UTC().Add(-titleDupWindow)
	matches, err := s.articles.Search(ctx, candidate.Name)
	if err != nil {
		return false, err
	}
	for _, m := range matches {
		if m.FeedID != feed.ID {
			continue
		}
		if m.Name != candidate.Name {
			continue
		}
		if m.CreatedAt.After(since) {
			return true, nil
		}
	}
	return false, nil
}

// CollectIconIfNeeded collects the feed's icon on first successful
// aggregation: an icon already collected for the feed's current identifier
// is left alone, but a changed identifier (e.g. a YouTube handle
// re-resolved to a different channel) forces re-collection.
func (s *Store) CollectIconIfNeeded(ctx context.Context, feed *entity.Feed, sourceURL string) {
	if s.icon == nil {
		return
	}
	if feed.Icon != "" && feed.LastIconIdentifier == feed.Identifier {
		return
	}

	dataURI, err := s.icon.FetchIcon(ctx, sourceURL)
	if err != nil {
		slog.Warn("feed icon collection failed", slog.Int64("feed_id", feed.ID), slog.Any("error", err))
		return
	}

	feed.Icon = dataURI
	if err := s.feeds.SetLastIconIdentifier(ctx, feed.ID, feed.Identifier); err != nil {
		slog.Warn("failed to persist icon identifier", slog.Int64("feed_id", feed.ID), slog.Any("error", err))
		return
	}
	feed.LastIconIdentifier = feed.Identifier
}
