package aggregator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yana/internal/domain/entity"
	"yana/internal/repository"
	"yana/internal/usecase/enrich"
	"yana/internal/usecase/store"
)

type fakeQuota struct {
	count int
}

func (q *fakeQuota) CountByFeedSince(context.Context, int64, time.Time) (int, error) {
	return q.count, nil
}
func (q *fakeQuota) LastInsertedAt(context.Context, int64, time.Time) (*time.Time, error) {
	return nil, nil
}

type fakeAggregator struct {
	Base
	raws []entity.RawArticle
}

func (a *fakeAggregator) FetchSourceData(context.Context, *entity.Feed, int) (SourceData, error) {
	return a.raws, nil
}

func (a *fakeAggregator) ParseToRawArticles(context.Context, *entity.Feed, SourceData) ([]entity.RawArticle, error) {
	return a.raws, nil
}

type fakePipeline struct {
	mu    sync.Mutex
	seen  []string
}

func (p *fakePipeline) Run(_ context.Context, raw *entity.RawArticle, _ enrich.Config) (*enrich.Result, error) {
	p.mu.Lock()
	p.seen = append(p.seen, raw.URL)
	p.mu.Unlock()
	return &enrich.Result{Content: "<article><section>" + raw.Title + "</section></article>"}, nil
}

func (p *fakePipeline) RunWithHTML(ctx context.Context, raw *entity.RawArticle, cfg enrich.Config, _ string) (*enrich.Result, error) {
	return p.Run(ctx, raw, cfg)
}

type fakeArticleRepo struct {
	mu      sync.Mutex
	byURL   map[string]*entity.Article
	nextID  int64
}

func newFakeArticleRepo() *fakeArticleRepo {
	return &fakeArticleRepo{byURL: make(map[string]*entity.Article)}
}

func (r *fakeArticleRepo) Get(context.Context, int64) (*entity.Article, error) { return nil, nil }
func (r *fakeArticleRepo) GetByCanonicalURL(_ context.Context, feedID int64, canonicalURL string) (*entity.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byURL[canonicalURL]
	if !ok || a.FeedID != feedID {
		return nil, nil
	}
	return a, nil
}
func (r *fakeArticleRepo) ListByFeedIDs(context.Context, []int64, repository.ArticleSearchFilters, int64, int) ([]*entity.Article, error) {
	return nil, nil
}
func (r *fakeArticleRepo) Search(context.Context, string) ([]*entity.Article, error) { return nil, nil }
func (r *fakeArticleRepo) Create(_ context.Context, a *entity.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	a.ID = r.nextID
	r.byURL[a.CanonicalURL] = a
	return nil
}
func (r *fakeArticleRepo) Update(_ context.Context, a *entity.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byURL[a.CanonicalURL] = a
	return nil
}
func (r *fakeArticleRepo) Delete(context.Context, int64) error { return nil }
func (r *fakeArticleRepo) ExistsByCanonicalURL(context.Context, int64, string) (bool, error) {
	return false, nil
}
func (r *fakeArticleRepo) ExistsByCanonicalURLBatch(context.Context, int64, []string) (map[string]bool, error) {
	return nil, nil
}
func (r *fakeArticleRepo) CountByFeedSince(context.Context, int64, time.Time) (int, error) {
	return 0, nil
}
func (r *fakeArticleRepo) LastInsertedAt(context.Context, int64, time.Time) (*time.Time, error) {
	return nil, nil
}
func (r *fakeArticleRepo) NewestPublishedByFeeds(context.Context, []int64) (map[int64]time.Time, error) {
	return nil, nil
}

type fakeStates struct{}

func (fakeStates) Get(context.Context, int64, int64) (*entity.UserArticleState, error) {
	return nil, nil
}
func (fakeStates) Upsert(context.Context, *entity.UserArticleState) error { return nil }
func (fakeStates) CountUnread(context.Context, int64, []int64) (int64, error) {
	return 0, nil
}
func (fakeStates) CountUnreadByFeeds(context.Context, int64, []int64) (map[int64]int64, error) {
	return nil, nil
}
func (fakeStates) ListReadArticleIDs(context.Context, int64, []int64) (map[int64]bool, error) {
	return nil, nil
}
func (fakeStates) ListSavedArticleIDs(context.Context, int64, []int64) (map[int64]bool, error) {
	return nil, nil
}

type fakeFeedRepo struct{}

func (fakeFeedRepo) Get(context.Context, int64) (*entity.Feed, error)        { return nil, nil }
func (fakeFeedRepo) List(context.Context) ([]*entity.Feed, error)            { return nil, nil }
func (fakeFeedRepo) ListEnabled(context.Context) ([]*entity.Feed, error)     { return nil, nil }
func (fakeFeedRepo) ListByUser(context.Context, int64) ([]*entity.Feed, error) { return nil, nil }
func (fakeFeedRepo) Create(context.Context, *entity.Feed) error              { return nil }
func (fakeFeedRepo) Update(context.Context, *entity.Feed) error              { return nil }
func (fakeFeedRepo) Delete(context.Context, int64) error                     { return nil }
func (fakeFeedRepo) TouchCrawledAt(context.Context, int64, time.Time) error  { return nil }
func (fakeFeedRepo) SetLastIconIdentifier(context.Context, int64, string) error {
	return nil
}

type fakeRuns struct {
	mu    sync.Mutex
	saved []*entity.Run
}

func (r *fakeRuns) Create(_ context.Context, run *entity.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, run)
	return nil
}
func (r *fakeRuns) ListRecentByFeed(context.Context, int64, int) ([]*entity.Run, error) {
	return nil, nil
}

func TestRunner_InsertsEachSurvivingArticle(t *testing.T) {
	articles := newFakeArticleRepo()
	st := store.New(articles, fakeStates{}, fakeFeedRepo{}, nil)
	runs := &fakeRuns{}
	runner := NewRunner(&fakeQuota{}, st, runs, fakeFeedRepo{}, NewFeedMutex())

	feed := &entity.Feed{ID: 1, Name: "test", Kind: entity.KindFullWebsite, Identifier: "http://x/feed.xml", Enabled: true, Options: entity.FeedOptions{DailyPostLimit: -1}}
	agg := &fakeAggregator{
		Base: Base{KindValue: entity.KindFullWebsite},
		raws: []entity.RawArticle{
			{Title: "A", URL: "http://x/1", Published: time.Now()},
			{Title: "B", URL: "http://x/2", Published: time.Now()},
		},
	}
	pipeline := &fakePipeline{}

	run, err := runner.Run(context.Background(), feed, agg, pipeline, Options{})
	require.NoError(t, err)
	assert.True(t, run.Success)
	assert.Equal(t, 2, run.Stats.ItemsInserted)
	assert.Len(t, runs.saved, 1)
	assert.ElementsMatch(t, []string{"http://x/1", "http://x/2"}, pipeline.seen)
}

func TestRunner_DeduplicatesURLsWithinOneBatch(t *testing.T) {
	articles := newFakeArticleRepo()
	st := store.New(articles, fakeStates{}, fakeFeedRepo{}, nil)
	runner := NewRunner(&fakeQuota{}, st, &fakeRuns{}, fakeFeedRepo{}, NewFeedMutex())

	feed := &entity.Feed{ID: 1, Name: "test", Kind: entity.KindFullWebsite, Identifier: "http://x/feed.xml", Enabled: true, Options: entity.FeedOptions{DailyPostLimit: -1}}
	agg := &fakeAggregator{
		Base: Base{KindValue: entity.KindFullWebsite},
		raws: []entity.RawArticle{
			{Title: "A", URL: "http://x/1", Published: time.Now()},
			{Title: "A dup", URL: "http://x/1", Published: time.Now()},
		},
	}
	pipeline := &fakePipeline{}

	run, err := runner.Run(context.Background(), feed, agg, pipeline, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, run.Stats.ItemsInserted)
}

func TestRunner_QuotaDisabledSkipsRun(t *testing.T) {
	articles := newFakeArticleRepo()
	st := store.New(articles, fakeStates{}, fakeFeedRepo{}, nil)
	runner := NewRunner(&fakeQuota{}, st, &fakeRuns{}, fakeFeedRepo{}, NewFeedMutex())

	feed := &entity.Feed{ID: 1, Name: "test", Kind: entity.KindFullWebsite, Identifier: "http://x/feed.xml", Enabled: true, Options: entity.FeedOptions{DailyPostLimit: 0}}
	agg := &fakeAggregator{Base: Base{KindValue: entity.KindFullWebsite}, raws: []entity.RawArticle{{Title: "A", URL: "http://x/1"}}}
	pipeline := &fakePipeline{}

	run, err := runner.Run(context.Background(), feed, agg, pipeline, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, run.Stats.ItemsInserted)
	assert.Empty(t, pipeline.seen)
}

func TestRunner_ConcurrentRunsOfSameFeedAreForbidden(t *testing.T) {
	st := store.New(newFakeArticleRepo(), fakeStates{}, fakeFeedRepo{}, nil)
	mutex := NewFeedMutex()
	runner := NewRunner(&fakeQuota{}, st, &fakeRuns{}, fakeFeedRepo{}, mutex)

	feed := &entity.Feed{ID: 1, Name: "test", Kind: entity.KindFullWebsite, Identifier: "http://x/feed.xml", Enabled: true, Options: entity.FeedOptions{DailyPostLimit: -1}}

	unlock, ok := mutex.TryLock(feed.ID)
	require.True(t, ok)
	defer unlock()

	_, err := runner.Run(context.Background(), feed, &fakeAggregator{}, &fakePipeline{}, Options{})
	assert.Error(t, err)
}
