// Package aggregator implements the Aggregator template: the fixed
// per-run flow (validate -> fetchSourceData -> parseToRawArticles ->
// applyArticleFilters -> applyArticleLimit -> enrich+store each survivor)
// shared by every closed source kind, each of which plugs in by filling
// the slots in rather than subclassing a base type.
package aggregator

import (
	"context"

	"yana/internal/domain/entity"
)

// SourceData is the opaque, kind-specific structure fetchSourceData
// produces (a parsed RSS feed, a YouTube uploads listing, a Reddit
// listing,...). Each Aggregator implementation knows its own shape.
type SourceData any

// Aggregator is the capability set every source kind must supply. Optional
// overrides are satisfied by the default methods on Base, embedded by
// kind implementations that don't need to customize them.
type Aggregator interface {
	Kind() entity.AggregatorKind
	SelectorsToRemove() []string
	WaitForSelector() string

	// Validate performs aggregator-specific identifier checks (template
	// step 1), potentially normalizing feed.Identifier in place (e.g. the
	// YouTube handle-to-channel-id resolution).
	Validate(ctx context.Context, feed *entity.Feed) error

	FetchSourceData(ctx context.Context, feed *entity.Feed, limit int) (SourceData, error)
	ParseToRawArticles(ctx context.Context, feed *entity.Feed, data SourceData) ([]entity.RawArticle, error)

	// ApplyArticleFilters removes items matching the feed's
	// ignore_title_contains / ignore_content_contains options (template
	// step 4). The default implementation in Base covers every kind; it is
	// part of the interface so a kind can special-case it (none currently
	// do).
	ApplyArticleFilters(feed *entity.Feed, items []entity.RawArticle) []entity.RawArticle

	// FetchArticleContentInternal lets a kind override how a single raw
	// article's content is fetched ahead of EnrichmentPipeline (e.g.
	// mein_mmo's multi-page traversal). Returning ("", false, nil) means
	// "no override, let EnrichmentPipeline fetch normally".
	FetchArticleContentInternal(ctx context.Context, feed *entity.Feed, raw *entity.RawArticle) (html string, handled bool, err error)

	// CollectFeedIcon lets a kind override icon collection (e.g. Reddit
	// uses the subreddit icon rather than the page favicon). Returning
	// ("", false, nil) means "no override, use the default favicon path".
	CollectFeedIcon(ctx context.Context, feed *entity.Feed) (iconURL string, handled bool, err error)
}

// Base gives kind implementations the default behavior for every optional
// slot so a concrete aggregator only needs to implement the mandatory
// ones (embed Base, override what's needed).
type Base struct {
	KindValue    entity.AggregatorKind
	Selectors    []string
	WaitSelector string
}

func (b Base) Kind() entity.AggregatorKind { return b.KindValue }
func (b Base) SelectorsToRemove() []string { return b.Selectors }
func (b Base) WaitForSelector() string     { return b.WaitSelector }

func (b Base) Validate(context.Context, *entity.Feed) error { return nil }

func (b Base) ApplyArticleFilters(feed *entity.Feed, items []entity.RawArticle) []entity.RawArticle {
	return ApplyArticleFilters(feed, items)
}

func (b Base) FetchArticleContentInternal(context.Context, *entity.Feed, *entity.RawArticle) (string, bool, error) {
	return "", false, nil
}

func (b Base) CollectFeedIcon(context.Context, *entity.Feed) (string, bool, error) {
	return "", false, nil
}
