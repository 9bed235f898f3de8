package aggregator

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"yana/internal/domain/entity"
	"yana/internal/repository"
	"yana/internal/usecase/enrich"
	"yana/internal/usecase/store"
)

// articleFanOut is the default bounded per-article concurrency within one
// feed's run, keeping upstream sites from being hammered by a single run.
const articleFanOut = 4

// Pipeline is the subset of EnrichmentPipeline the runner drives.
type Pipeline interface {
	Run(ctx context.Context, raw *entity.RawArticle, cfg enrich.Config) (*enrich.Result, error)
	RunWithHTML(ctx context.Context, raw *entity.RawArticle, cfg enrich.Config, html string) (*enrich.Result, error)
}

var _ Pipeline = (*enrich.Pipeline)(nil)

// Transformer applies a Feed's AI hints to already-standardized content.
// Left nil, the runner skips the transform step entirely: AI
// summarize/translate is a pluggable surface, not a required step.
type Transformer interface {
	Transform(ctx context.Context, content string, hints entity.AIHints) (string, error)
}

// Runner drives the fixed template flow for one feed: it resolves the
// daily quota, fetches and parses the source, filters and caps the
// survivor list, then fans the remaining RawArticles out across
// EnrichmentPipeline and ContentStore with a bounded per-article
// concurrency.
type Runner struct {
	quota     QuotaSource
	store     *store.Store
	runs      repository.RunRepository
	feeds     repository.FeedRepository
	mutex     *FeedMutex
	fanOut    int
	now       func() time.Time
	newRunID  func() string
	transform Transformer
}

func NewRunner(quota QuotaSource, st *store.Store, runs repository.RunRepository, feeds repository.FeedRepository, mutex *FeedMutex) *Runner {
	return &Runner{
		quota:    quota,
		store:    st,
		runs:     runs,
		feeds:    feeds,
		mutex:    mutex,
		fanOut:   articleFanOut,
		now:      time.Now,
		newRunID: uuid.NewString,
	}
}

// WithTransformer attaches the AI text-transform surface; it is applied
// after processContent for any feed carrying AIHints. Returns r for
// chaining at construction time.
func (r *Runner) WithTransformer(t Transformer) *Runner {
	r.transform = t
	return r
}

// Options carries the per-run knobs a caller (cmd/worker's scheduler, or an
// on-demand trigger) supplies.
type Options struct {
	ForceRefresh bool
	Deadline     time.Time // zero = no explicit deadline beyond ctx's own
}

// Run executes one aggregation attempt for feed against agg, recording a
// Run entity regardless of outcome: a failing run produces a run record
// with success=false plus a human-readable reason.
func (r *Runner) Run(ctx context.Context, feed *entity.Feed, agg Aggregator, pipeline Pipeline, opts Options) (*entity.Run, error) {
	unlock, ok := r.mutex.TryLock(feed.ID)
	if !ok {
		return nil, errAlreadyRunning(feed.ID)
	}
	defer unlock()

	if !opts.Deadline.IsZero() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, opts.Deadline)
		defer cancel()
	}

	run := &entity.Run{ID: r.newRunID(), FeedID: feed.ID, StartedAt: r.now().UTC()}
	stats, err := r.runOnce(ctx, feed, agg, pipeline, opts)
	run.Stats = stats
	run.FinishedAt = r.now().UTC()
	if err != nil {
		run.Success = false
		run.Reason = err.Error()
	} else {
		run.Success = true
	}

	if r.runs != nil {
		if cerr := r.runs.Create(ctx, run); cerr != nil {
			slog.Warn("failed to persist run record", slog.Int64("feed_id", feed.ID), slog.Any("error", cerr))
		}
	}
	if err == nil && r.feeds != nil {
		if terr := r.feeds.TouchCrawledAt(ctx, feed.ID, run.FinishedAt); terr != nil {
			slog.Warn("failed to update feed last-crawled timestamp", slog.Int64("feed_id", feed.ID), slog.Any("error", terr))
		}
	}
	return run, err
}

func (r *Runner) runOnce(ctx context.Context, feed *entity.Feed, agg Aggregator, pipeline Pipeline, opts Options) (entity.RunStats, error) {
	var stats entity.RunStats

	// Template step 1: validate (may normalize feed.Identifier in place,
	// e.g. YouTube handle -> channel id).
	if err := agg.Validate(ctx, feed); err != nil {
		return stats, err
	}

	limit, err := Distribute(ctx, r.quota, feed, opts.ForceRefresh, r.now())
	if err != nil {
		return stats, err
	}
	if limit == 0 {
		return stats, nil
	}

	// Template step 2: fetchSourceData under the quota distributor.
	data, err := agg.FetchSourceData(ctx, feed, limit)
	if err != nil {
		return stats, err
	}

	// Template step 3: parseToRawArticles.
	raws, err := agg.ParseToRawArticles(ctx, feed, data)
	if err != nil {
		return stats, err
	}
	stats.ItemsFound = len(raws)

	// Template step 4: applyArticleFilters.
	raws = agg.ApplyArticleFilters(feed, raws)

	// Template step 5: applyArticleLimit, capped at the dynamic quota.
	raws = ApplyArticleLimit(raws, limit)

	// The aggregator must not emit duplicate urls in one batch; collapse
	// any accidental duplicates here rather than trusting every kind
	// implementation to dedup itself.
	raws = dedupeByURL(raws)

	// Template steps 6-7: enrich and persist each survivor, bounded
	// per-article fan-out.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.fanOut)
	results := make(chan articleOutcome, len(raws))

	for i := range raws {
		raw := raws[i]
		g.Go(func() error {
			outcome := r.enrichAndStore(gctx, feed, agg, pipeline, &raw, opts.ForceRefresh)
			results <- outcome
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(results)
	}()

	var iconSource string
	for outcome := range results {
		switch {
		case outcome.err != nil:
			if entity.IsSkipArticle(outcome.err) {
				stats.ItemsSkipped++
			} else {
				stats.Errors++
				slog.Warn("enrichment failed for article",
					slog.Int64("feed_id", feed.ID), slog.String("url", outcome.raw.URL), slog.Any("error", outcome.err))
			}
		default:
			switch outcome.outcome {
			case store.OutcomeInserted:
				stats.ItemsInserted++
				if iconSource == "" {
					iconSource = outcome.raw.URL
				}
			case store.OutcomeUpdated:
				stats.ItemsUpdated++
			case store.OutcomeSkippedRead, store.OutcomeSkippedTitleDup:
				stats.ItemsDuplicated++
			}
		}
	}

	if stats.ItemsInserted > 0 {
		r.collectIcon(ctx, feed, agg, iconSource)
	}

	return stats, nil
}

type articleOutcome struct {
	raw     entity.RawArticle
	outcome store.Outcome
	err     error
}

// enrichAndStore runs EnrichmentPipeline over one RawArticle and, on
// success, hands the result to ContentStore for dedup/persistence. Each
// article shares the run's own deadline; cancellation aborts the
// in-flight call and the article is abandoned rather than counted as
// SkipArticle.
func (r *Runner) enrichAndStore(ctx context.Context, feed *entity.Feed, agg Aggregator, pipeline Pipeline, raw *entity.RawArticle, forceRefresh bool) articleOutcome {
	cfg := enrich.Config{
		FeedID:             feed.ID,
		WaitForSelector:    agg.WaitForSelector(),
		ExcludeSelectors:   mergeSelectors(agg.SelectorsToRemove(), feed.Options.ExcludeSelectors),
		RegexReplacements:  feed.Options.RegexReplacements,
		GenerateTitleImage: feed.Options.GenerateTitleImage,
		AddSourceFooter:    feed.Options.AddSourceFooter,
		ForceRefresh:       forceRefresh,
	}

	var result *enrich.Result
	var err error
	if html, handled, ferr := agg.FetchArticleContentInternal(ctx, feed, raw); ferr != nil {
		return articleOutcome{raw: *raw, err: ferr}
	} else if handled {
		result, err = pipeline.RunWithHTML(ctx, raw, cfg, html)
	} else {
		result, err = pipeline.Run(ctx, raw, cfg)
	}
	if err != nil {
		return articleOutcome{raw: *raw, err: err}
	}

	candidate := &entity.Article{
		URL:          raw.URL,
		Name:         raw.Title,
		PublishedAt:  raw.Published,
		Author:       raw.Author,
		ExternalID:   raw.ExternalID,
		ThumbnailURL: raw.ThumbnailURL,
		MediaURL:     raw.MediaURL,
		MediaType:    raw.MediaType,
	}
	if result != nil {
		candidate.Content = result.Content
	} else {
		candidate.Content = raw.Summary
	}

	if r.transform != nil && hasAIHints(feed.AI) {
		if transformed, terr := r.transform.Transform(ctx, candidate.Content, feed.AI); terr != nil {
			slog.Warn("AI text transform failed, keeping untransformed content",
				slog.Int64("feed_id", feed.ID), slog.String("url", raw.URL), slog.Any("error", terr))
		} else {
			candidate.Content = transformed
		}
	}

	outcome, _, err := r.store.Save(ctx, feed, candidate, forceRefresh, r.now())
	if err != nil {
		return articleOutcome{raw: *raw, err: err}
	}
	return articleOutcome{raw: *raw, outcome: outcome}
}

func (r *Runner) collectIcon(ctx context.Context, feed *entity.Feed, agg Aggregator, fallbackURL string) {
	iconSource := fallbackURL
	if override, handled, err := agg.CollectFeedIcon(ctx, feed); err != nil {
		slog.Warn("aggregator icon override failed", slog.Int64("feed_id", feed.ID), slog.Any("error", err))
	} else if handled {
		iconSource = override
	}
	if iconSource == "" {
		iconSource = feed.Identifier
	}
	r.store.CollectIconIfNeeded(ctx, feed, iconSource)
}

func mergeSelectors(base, extra []string) []string {
	if len(extra) == 0 {
		return base
	}
	out := make([]string, 0, len(base)+len(extra))
	out = append(out, base...)
	out = append(out, extra...)
	return out
}

func hasAIHints(hints entity.AIHints) bool {
	return hints.Summarize || hints.TranslateTo != "" || hints.CustomPrompt != ""
}

func dedupeByURL(raws []entity.RawArticle) []entity.RawArticle {
	seen := make(map[string]bool, len(raws))
	out := make([]entity.RawArticle, 0, len(raws))
	for _, raw := range raws {
		if seen[raw.URL] {
			continue
		}
		seen[raw.URL] = true
		out = append(out, raw)
	}
	return out
}

type runningError struct {
	feedID int64
}

func (e *runningError) Error() string {
	return "aggregator: a run is already in progress for this feed"
}

func errAlreadyRunning(feedID int64) error {
	return &runningError{feedID: feedID}
}
