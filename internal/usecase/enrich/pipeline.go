// Package enrich implements the EnrichmentPipeline: the per-article
// sequence that turns a RawArticle into stored Article content, fetching,
// extracting, processing and illustrating it while honoring a uniform
// per-step recovery policy.
package enrich

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"yana/internal/domain/entity"
	"yana/internal/infra/contentprocessor"
	"yana/internal/infra/fetcher"
	"yana/internal/infra/imageextract"
	"yana/internal/repository"
)

// Fetcher is the subset of fetching the pipeline needs.
type Fetcher interface {
	FetchHTML(ctx context.Context, feedID int64, url string, opts fetcher.FetchOptions) (string, error)
}

// ContentExtractor is the subset of Mozilla-Readability-style extraction
// needed between fetch and processing.
type ContentExtractor interface {
	Extract(rawHTML string, sourceURL string) (string, error)
}

// ContentProcessor is the subset of contentprocessor the pipeline needs.
type ContentProcessor interface {
	Process(ctx context.Context, html string, opts contentprocessor.Options) (string, error)
}

// ImageExtractor is the subset of imageextract needed for the optional
// image step;
// in practice processContent already routes through it via header synthesis,
// so this is reserved for any stand-alone image collection a caller wants.
type ImageExtractor interface {
	Extract(ctx context.Context, feedID int64, url string, opts imageextract.Options) (*imageextract.Image, error)
}

// Config carries the per-feed options the pipeline threads into extraction
// and processing.
type Config struct {
	FeedID             int64
	WaitForSelector    string
	ExcludeSelectors   []string
	RegexReplacements  []entity.RegexReplacement
	GenerateTitleImage bool
	AddSourceFooter    bool
	ForceRefresh       bool
	// MinContentLengthForFetch gates shouldFetchContent: an RSS summary at
	// or above this length is considered already sufficient.
	MinContentLengthForFetch int
}

// Result is the pipeline's successful outcome: the standardized content and
// whether it came from the content cache.
type Result struct {
	Content   string
	FromCache bool
}

// Pipeline runs the enrichment contract: run(article, mixin) -> {content,
// fromCache} | SkipArticle | nil.
type Pipeline struct {
	fetcher   Fetcher
	extractor ContentExtractor
	processor ContentProcessor
	cache     repository.ContentCacheRepository
	cacheTTL  time.Duration
}

func New(fetcher Fetcher, extractor ContentExtractor, processor ContentProcessor, cache repository.ContentCacheRepository) *Pipeline {
	return &Pipeline{
		fetcher:   fetcher,
		extractor: extractor,
		processor: processor,
		cache:     cache,
		cacheTTL:  7 * 24 * time.Hour,
	}
}

// Run executes the pipeline for one RawArticle. A nil, nil return means the
// step table's "shouldFetchContent returns false" case: the article is kept
// as-is with no enrichment performed.
func (p *Pipeline) Run(ctx context.Context, raw *entity.RawArticle, cfg Config) (*Result, error) {
	if !p.shouldFetchContent(raw, cfg) {
		return nil, nil
	}

	rawHTML, fromCache, err := p.resolveContent(ctx, raw, cfg)
	if err != nil {
		return nil, err
	}

	return p.runFromHTML(ctx, raw, cfg, rawHTML, fromCache)
}

// RunWithHTML runs the pipeline starting from already-fetched HTML,
// skipping steps 1-3 (shouldFetchContent/cache/fetch). Used when an
// aggregator's FetchArticleContentInternal override has already produced
// the article's raw HTML (e.g. mein_mmo's multi-page traversal), so the
// rest of the standardization pipeline still applies uniformly.
func (p *Pipeline) RunWithHTML(ctx context.Context, raw *entity.RawArticle, cfg Config, html string) (*Result, error) {
	return p.runFromHTML(ctx, raw, cfg, html, false)
}

func (p *Pipeline) runFromHTML(ctx context.Context, raw *entity.RawArticle, cfg Config, rawHTML string, fromCache bool) (*Result, error) {
	extracted, err := p.extractContent(rawHTML, raw.URL)
	if err != nil {
		logStep(cfg.FeedID, "extractContent", raw.URL, err)
		extracted = rawHTML // fallback to original HTML, step table row 4
	}

	if !p.validateContent(extracted) {
		return nil, entity.NewSkipArticle("validateContent", cfg.FeedID, raw.URL, 0, errNoContent)
	}

	processed, err := p.processor.Process(ctx, extracted, contentprocessor.Options{
		FeedID:             cfg.FeedID,
		ArticleURL:         raw.URL,
		HeaderImageURL:     firstNonEmpty(raw.HeaderImageURL, raw.ThumbnailURL),
		GenerateTitleImage: cfg.GenerateTitleImage,
		AddSourceFooter:    cfg.AddSourceFooter,
		ExcludeSelectors:   cfg.ExcludeSelectors,
		RegexReplacements:  cfg.RegexReplacements,
	})
	if err != nil {
		if entity.IsSkipArticle(err) {
			return nil, err
		}
		logStep(cfg.FeedID, "processContent", raw.URL, err)
		processed = extracted
	}

	if !fromCache {
		p.storeCache(ctx, raw.URL, rawHTML)
	}

	return &Result{Content: processed, FromCache: fromCache}, nil
}

var errNoContent = errors.New("extracted content is empty")

// shouldFetchContent implements step 1: some aggregators supply content
// already rich enough (e.g. full-text feeds) that a fetch would be wasted
// work.
func (p *Pipeline) shouldFetchContent(raw *entity.RawArticle, cfg Config) bool {
	if cfg.ForceRefresh {
		return true
	}
	if cfg.MinContentLengthForFetch <= 0 {
		return true
	}
	return len(raw.Summary) < cfg.MinContentLengthForFetch
}

// resolveContent implements steps 2-3: consult the content cache, and on a
// miss fetch fresh HTML, falling back to the RawArticle summary when the
// fetch fails non-fatally.
func (p *Pipeline) resolveContent(ctx context.Context, raw *entity.RawArticle, cfg Config) (string, bool, error) {
	if !cfg.ForceRefresh && p.cache != nil {
		entry, ok, err := p.cache.Get(ctx, raw.URL)
		if err != nil {
			slog.Warn("content cache lookup failed", slog.String("url", raw.URL), slog.Any("error", err))
		} else if ok && time.Since(entry.InsertedAt) < p.cacheTTL {
			return entry.HTML, true, nil
		}
	}

	html, err := p.fetcher.FetchHTML(ctx, cfg.FeedID, raw.URL, fetcher.FetchOptions{WaitForSelector: cfg.WaitForSelector})
	if err != nil {
		if entity.IsSkipArticle(err) {
			return "", false, err
		}
		logStep(cfg.FeedID, "fetchArticleContent", raw.URL, err)
		if strings.TrimSpace(raw.Summary) != "" {
			return raw.Summary, false, nil
		}
		return "", false, entity.NewSkipArticle("fetchArticleContent", cfg.FeedID, raw.URL, 0, err)
	}
	return html, false, nil
}

func (p *Pipeline) storeCache(ctx context.Context, url, html string) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Put(ctx, &entity.ContentCacheEntry{URL: url, HTML: html, InsertedAt: time.Now().UTC()}); err != nil {
		slog.Warn("content cache write failed", slog.String("url", url), slog.Any("error", err))
	}
}

// extractContent implements step 4.
func (p *Pipeline) extractContent(rawHTML, sourceURL string) (string, error) {
	if p.extractor == nil {
		return rawHTML, nil
	}
	return p.extractor.Extract(rawHTML, sourceURL)
}

// validateContent implements step 5: reject empty or whitespace-only
// extraction results.
func (p *Pipeline) validateContent(content string) bool {
	return strings.TrimSpace(content) != ""
}

func logStep(feedID int64, step, url string, err error) {
	slog.Warn("enrichment step failed, falling back",
		slog.String("step", step),
		slog.Int64("feed_id", feedID),
		slog.String("url", url),
		slog.Any("error", err))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
