package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	_ "github.com/jackc/pgx/v5/stdlib"

	pgRepo "yana/internal/infra/adapter/persistence/postgres"
	"yana/internal/infra/contentprocessor"
	"yana/internal/infra/db"
	"yana/internal/infra/fetcher"
	"yana/internal/infra/iconcache"
	"yana/internal/infra/iconfetch"
	"yana/internal/infra/imageextract"
	"yana/internal/infra/texttransform"
	"yana/internal/infra/worker"
	"yana/internal/infra/ytapi"

	"yana/internal/domain/entity"
	"yana/internal/repository"
	"yana/internal/usecase/aggregator"
	"yana/internal/usecase/aggregator/kinds"
	"yana/internal/usecase/enrich"
	"yana/internal/usecase/store"
)

func main() {
	logger := initLogger()

	metrics := worker.NewWorkerMetrics()
	metrics.MustRegister()

	cfg, err := worker.LoadConfigFromEnv(logger, metrics)
	if err != nil {
		logger.Error("failed to load worker configuration", slog.Any("error", err))
		os.Exit(1)
	}

	database := db.Open()
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()
	if err := db.MigrateUp(database); err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}

	runner, registry, pipeline := buildPipeline(database, logger)

	health := worker.NewHealthServer(fmt.Sprintf(":%d", healthPort(cfg.HealthPort)), logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := health.Start(ctx); err != nil {
			logger.Error("health server stopped", slog.Any("error", err))
		}
	}()
	startMetricsServer(ctx, logger)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("invalid worker timezone, falling back to UTC", slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}

	sched := cron.New(cron.WithLocation(loc))
	feedRepo := pgRepo.NewFeedRepo(database)

	_, err = sched.AddFunc(cfg.CronSchedule, func() {
		runAllFeeds(ctx, logger, metrics, feedRepo, registry, pipeline, runner, cfg)
	})
	if err != nil {
		logger.Error("failed to schedule crawl job", slog.Any("error", err))
		os.Exit(1)
	}

	sched.Start()
	health.SetReady(true)
	logger.Info("worker started",
		slog.String("cron_schedule", cfg.CronSchedule),
		slog.String("timezone", cfg.Timezone),
		slog.Int("max_concurrent_feeds", cfg.MaxConcurrentFeeds))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down worker...")

	health.SetReady(false)
	sched.Stop()
	cancel()
	logger.Info("worker stopped")
}

func initLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
	}))
	slog.SetDefault(logger)
	return logger
}

func healthPort(configured int) int {
	if configured <= 0 {
		return 9091
	}
	return configured
}

// buildPipeline wires the aggregation toolchain exactly once per process:
// fetcher, image extraction, content processing, enrichment and the
// content store, then registers every closed aggregator kind against that
// shared toolchain.
func buildPipeline(database *sql.DB, logger *slog.Logger) (*aggregator.Runner, *aggregator.Registry, *enrich.Pipeline) {
	articleRepo := pgRepo.NewArticleRepo(database)
	stateRepo := pgRepo.NewUserArticleStateRepo(database)
	feedRepo := pgRepo.NewFeedRepo(database)
	contentCacheRepo := pgRepo.NewContentCacheRepo(database)
	runRepo := pgRepo.NewRunRepo(database)

	fetcherCfg := fetcher.DefaultConfig()
	httpBackend := fetcher.NewHTTPBackend(fetcherCfg)
	var browserBackend fetcher.Backend
	if b, err := fetcher.NewBrowserBackend(fetcherCfg); err != nil {
		logger.Warn("headless browser backend unavailable, JS-rendered sources will fail", slog.Any("error", err))
	} else {
		browserBackend = b
	}
	f := fetcher.New(httpBackend, browserBackend)

	compressor := imageextract.NewCompressor()
	extractor := imageextract.New(imageextract.DefaultStrategies(f), compressor)
	processor := contentprocessor.New(extractor)
	pipeline := enrich.New(f, enrich.NewReadabilityExtractor(), processor, contentCacheRepo)

	iconDir := os.Getenv("ICON_CACHE_DIR")
	if iconDir == "" {
		iconDir = "./cache/icons"
	}
	iconCollector := iconfetch.NewCaching(iconfetch.New(f, extractor), iconcache.New(iconDir))

	st := store.New(articleRepo, stateRepo, feedRepo, iconCollector)

	var channelAPI kinds.ChannelAPI
	if key := os.Getenv("YOUTUBE_API_KEY"); key != "" {
		channelAPI = ytapi.NewClient(key)
	} else {
		logger.Info("YOUTUBE_API_KEY not set, youtube handle/URL resolution disabled (plain channel ids still work)")
	}

	reg := aggregator.NewRegistry()
	kinds.RegisterAll(reg, f, f, f, channelAPI)

	runner := aggregator.NewRunner(articleRepo, st, runRepo, feedRepo, aggregator.NewFeedMutex())
	runner = runner.WithTransformer(buildTransformer(logger))

	return runner, reg, pipeline
}

// buildTransformer selects the AI text-transform provider from the
// environment, falling back to a no-op when no API key is configured so
// feeds without AIHints never pay for an unused dependency.
func buildTransformer(logger *slog.Logger) aggregator.Transformer {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		logger.Info("AI text transform: using Claude provider")
		return texttransform.NewClaude(key)
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		logger.Info("AI text transform: using OpenAI provider")
		return texttransform.NewOpenAI(key)
	}
	logger.Info("AI text transform: no provider API key set, using no-op")
	return texttransform.NewNoOp()
}

// runAllFeeds executes one cron tick: list enabled feeds and run each
// through the template, bounded by MaxConcurrentFeeds. Per-feed failures
// are logged and counted but never abort the batch.
func runAllFeeds(
	ctx context.Context,
	logger *slog.Logger,
	metrics *worker.WorkerMetrics,
	feedRepo repository.FeedRepository,
	registry *aggregator.Registry,
	pipeline *enrich.Pipeline,
	runner *aggregator.Runner,
	cfg *worker.WorkerConfig,
) {
	start := time.Now()
	feeds, err := feedRepo.ListEnabled(ctx)
	if err != nil {
		logger.Error("failed to list enabled feeds", slog.Any("error", err))
		metrics.RecordJobRun("failure")
		return
	}

	limit := cfg.MaxConcurrentFeeds
	if limit < 1 {
		limit = 1
	}
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	var failures int64
	var mu sync.Mutex

	for _, feed := range feeds {
		agg, ok := registry.Build(feed.Kind)
		if !ok {
			logger.Error("no aggregator registered for feed kind", slog.Int64("feed_id", feed.ID), slog.String("kind", string(feed.Kind)))
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(feed *entity.Feed, agg aggregator.Aggregator) {
			defer wg.Done()
			defer func() { <-sem }()

			feedCtx, cancel := context.WithTimeout(ctx, cfg.CrawlTimeout)
			defer cancel()

			run, err := runner.Run(feedCtx, feed, agg, pipeline, aggregator.Options{})
			if err != nil {
				logger.Warn("feed run failed", slog.Int64("feed_id", feed.ID), slog.Any("error", err))
				mu.Lock()
				failures++
				mu.Unlock()
				return
			}
			logger.Info("feed run complete",
				slog.Int64("feed_id", feed.ID),
				slog.Bool("success", run.Success),
				slog.Int("inserted", run.Stats.ItemsInserted),
				slog.Int("updated", run.Stats.ItemsUpdated),
				slog.Int("skipped", run.Stats.ItemsSkipped),
				slog.Int("duplicated", run.Stats.ItemsDuplicated),
				slog.Int("errors", run.Stats.Errors))
		}(feed, agg)
	}

	wg.Wait()

	status := "success"
	if failures > 0 {
		status = "failure"
	}
	metrics.RecordJobRun(status)
	metrics.RecordJobDuration(time.Since(start).Seconds())
	metrics.RecordFeedsProcessed(len(feeds))
	if failures == 0 {
		metrics.RecordLastSuccess()
	}
}
