// Package entity defines the core domain entities and validation logic for the application.
// It contains the fundamental business objects such as Feed and Article, along with
// their validation rules and domain-specific errors.
package entity

import "time"

// RawArticle is the transient, pre-persistence item produced by an
// aggregator's parseToRawArticles step. It never touches
// storage directly; EnrichmentPipeline turns it into an Article.
type RawArticle struct {
	Title        string
	URL          string
	Published    time.Time
	Summary      string
	Author       string
	ThumbnailURL string
	MediaURL     string
	MediaType    string
	ExternalID   string

	// HeaderImageURL, when set by the aggregator (e.g. Reddit/YouTube
	// plugins), overrides the default header-image source selection.
	HeaderImageURL string

	// IsMultiPage mirrors the source-specific __isMultiPage tag (mein_mmo).
	IsMultiPage bool
}

// Article is the persisted, processed item. Content is an HTML fragment
// rooted at a single <article> element (invariant).
type Article struct {
	ID           int64
	FeedID       int64
	URL          string // original, for display
	CanonicalURL string // normalized: no trailing slash, fragment, or query
	Name         string
	Content      string
	PublishedAt  time.Time
	CreatedAt    time.Time
	Author       string
	ExternalID   string
	ThumbnailURL string
	MediaURL     string
	MediaType    string
	Score        int
	ViewCount    int64
}
