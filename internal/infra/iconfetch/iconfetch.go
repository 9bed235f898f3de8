// Package iconfetch adapts imageextract.Extractor into the
// store.Icon surface ContentStore uses to collect a feed's icon:
// fetch the site's home page,
// run the same header/meta-tag/SVG strategy chain article images use,
// and return the result as a data URI so it can be stored directly on
// Feed.Icon.
package iconfetch

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/url"

	"yana/internal/domain/entity"
	"yana/internal/infra/fetcher"
	"yana/internal/infra/imageextract"
)

// HTMLFetcher is the subset of fetching needed to render the site's home
// page before running the DOM-dependent strategies.
type HTMLFetcher interface {
	FetchHTML(ctx context.Context, feedID int64, url string, opts fetcher.FetchOptions) (string, error)
}

// Collector fetches a feed icon for a source URL.
type Collector struct {
	html      HTMLFetcher
	extractor *imageextract.Extractor
}

func New(html HTMLFetcher, extractor *imageextract.Extractor) *Collector {
	return &Collector{html: html, extractor: extractor}
}

// FetchIcon satisfies store.Icon: it resolves sourceURL to its site root,
// renders that page, and runs the strategy chain with IsHeader=false
// (icons use the smaller, non-WebP-forced target).
func (c *Collector) FetchIcon(ctx context.Context, sourceURL string) (string, error) {
	root, err := siteRoot(sourceURL)
	if err != nil {
		return "", err
	}

	html, err := c.html.FetchHTML(ctx, 0, root, fetcher.FetchOptions{})
	if err != nil {
		return "", fmt.Errorf("fetch site root for icon: %w", err)
	}

	img, err := c.extractor.Extract(ctx, 0, root, imageextract.Options{DocumentHTML: html})
	if err == nil && img != nil {
		return fmt.Sprintf("data:%s;base64,%s", img.ContentType, base64.StdEncoding.EncodeToString(img.Bytes)), nil
	}

	// Fall back to a <link rel="icon"> tag when no meta/header image
	// candidate was found; sites commonly advertise their favicon there
	// instead of via og:image.
	if faviconURL, ok := findFaviconLink(html, root); ok {
		if faviconImg, ferr := c.extractor.Extract(ctx, 0, faviconURL, imageextract.Options{}); ferr == nil && faviconImg != nil {
			return fmt.Sprintf("data:%s;base64,%s", faviconImg.ContentType, base64.StdEncoding.EncodeToString(faviconImg.Bytes)), nil
		}
	}

	if err != nil {
		return "", err
	}
	return "", nil
}

// IconCache is the subset of repository.IconCacheRepository the caching
// decorator needs.
type IconCache interface {
	Get(ctx context.Context, url string) (*entity.IconCacheEntry, bool, error)
	Put(ctx context.Context, entry *entity.IconCacheEntry) error
}

// CachingCollector wraps a Collector with an on-disk icon cache: a cache
// hit skips the network fetch entirely; a miss falls through to the
// wrapped Collector and populates the cache on success.
type CachingCollector struct {
	inner *Collector
	cache IconCache
}

func NewCaching(inner *Collector, cache IconCache) *CachingCollector {
	return &CachingCollector{inner: inner, cache: cache}
}

func (c *CachingCollector) FetchIcon(ctx context.Context, sourceURL string) (string, error) {
	if entry, ok, err := c.cache.Get(ctx, sourceURL); err == nil && ok {
		return entry.DataURI, nil
	}

	dataURI, err := c.inner.FetchIcon(ctx, sourceURL)
	if err != nil || dataURI == "" {
		return dataURI, err
	}

	if perr := c.cache.Put(ctx, &entity.IconCacheEntry{URL: sourceURL, DataURI: dataURI}); perr != nil {
		slog.Warn("failed to persist icon cache entry", slog.String("url", sourceURL), slog.Any("error", perr))
	}
	return dataURI, nil
}

func siteRoot(sourceURL string) (string, error) {
	u, err := url.Parse(sourceURL)
	if err != nil {
		return "", fmt.Errorf("parse source url for icon: %w", err)
	}
	u.Path = "/"
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}
