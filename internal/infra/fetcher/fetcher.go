package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"

	"yana/internal/domain/entity"
	"yana/internal/resilience/circuitbreaker"
	"yana/internal/resilience/retry"
)

// Backend is satisfied by both HTTPBackend and BrowserBackend.
type Backend interface {
	FetchHTML(ctx context.Context, feedID int64, url string, opts FetchOptions) (string, error)
}

// Fetcher is the single entry point aggregators and the enrichment
// pipeline use to retrieve feed documents and article HTML.
type Fetcher struct {
	http *HTTPBackend
	browser Backend // nil-able; lazily required only by kinds that need JS rendering
	feedParser *gofeed.Parser
	retryConfig retry.Config
	circuitBreaker *circuitbreaker.CircuitBreaker
}

func New(httpBackend *HTTPBackend, browserBackend Backend) *Fetcher {
	fp := gofeed.NewParser()
	fp.UserAgent = "YanaBot/1.0"
	return &Fetcher{
		http: httpBackend,
		browser: browserBackend,
		feedParser: fp,
		retryConfig: retry.FeedFetchConfig,
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedFetchConfig),
	}
}

// FetchHTML fetches url via the HTTP backend, or the browser backend when
// opts.WaitForSelector is set.
func (f *Fetcher) FetchHTML(ctx context.Context, feedID int64, url string, opts FetchOptions) (string, error) {
	if opts.WaitForSelector != "" {
		if f.browser == nil {
			return "", entity.NewFatal("fetchHTML", feedID, fmt.Errorf("waitForSelector requires a browser backend, none configured"))
		}
		return f.browser.FetchHTML(ctx, feedID, url, opts)
	}
	return f.http.FetchHTML(ctx, feedID, url, opts)
}

// FetchBytes fetches raw bytes (used by ImageExtractor's direct-image and
// page-image strategies).
func (f *Fetcher) FetchBytes(ctx context.Context, feedID int64, url string) ([]byte, string, error) {
	return f.http.FetchBytes(ctx, feedID, url)
}

// ParsedFeed is the subset of a gofeed.Feed the aggregator layer consumes.
type ParsedFeed struct {
	Items []ParsedFeedItem
}

type ParsedFeedItem struct {
	Title string
	URL string
	Content string
	Summary string
	Author string
	PublishedAt time.Time
	ExternalID string

	// MediaURL/MediaType carry the first enclosure of the item (podcast
	// audio, YouTube/Reddit media links), when present.
	MediaURL string
	MediaType string
}

// FetchFeed retrieves and parses an RSS/Atom document, classifying parse
// failures as Parse errors.
func (f *Fetcher) FetchFeed(ctx context.Context, feedID int64, feedURL string) (*ParsedFeed, error) {
	var parsed *ParsedFeed

	retryErr := retry.WithBackoff(ctx, f.retryConfig, func() error {
		result, err := f.circuitBreaker.Execute(func() (interface{}, error) {
			return f.doFetchFeed(ctx, feedURL)
		})
		if err != nil {
			return err
		}
		parsed = result.(*ParsedFeed)
		return nil
	})
	if retryErr != nil {
		return nil, entity.NewParseError("fetchFeed", feedID, feedURL, retryErr)
	}
	return parsed, nil
}

func (f *Fetcher) doFetchFeed(ctx context.Context, feedURL string) (*ParsedFeed, error) {
	feed, err := f.feedParser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	items := make([]ParsedFeedItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		pubAt := time.Now()
		if it.PublishedParsed != nil {
			pubAt = *it.PublishedParsed
		}
		content := it.Content
		if content == "" {
			content = it.Description
		}
		author := ""
		if it.Author != nil {
			author = it.Author.Name
		}
		var mediaURL, mediaType string
		if len(it.Enclosures) > 0 {
			mediaURL = it.Enclosures[0].URL
			mediaType = it.Enclosures[0].Type
		}
		items = append(items, ParsedFeedItem{
			Title: it.Title,
			URL: it.Link,
			Content: content,
			Summary: it.Description,
			Author: author,
			PublishedAt: pubAt,
			ExternalID: it.GUID,
			MediaURL: mediaURL,
			MediaType: mediaType,
		})
	}
	return &ParsedFeed{Items: items}, nil
}
