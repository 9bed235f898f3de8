package kinds

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yana/internal/domain/entity"
	"yana/internal/infra/fetcher"
	"yana/internal/usecase/aggregator"
)

type fakeFeedFetcher struct {
	feed *fetcher.ParsedFeed
	err  error
}

func (f *fakeFeedFetcher) FetchFeed(context.Context, int64, string) (*fetcher.ParsedFeed, error) {
	return f.feed, f.err
}

func TestRSSKind_FullWebsite_UsesSummary(t *testing.T) {
	fake := &fakeFeedFetcher{feed: &fetcher.ParsedFeed{Items: []fetcher.ParsedFeedItem{
		{Title: "A", URL: "http://x/1", Summary: "short", Content: "long full content", PublishedAt: time.Now()},
	}}}
	agg := NewFullWebsite(fake)
	feed := &entity.Feed{ID: 1, Kind: entity.KindFullWebsite, Identifier: "http://x/feed.xml"}

	data, err := agg.FetchSourceData(context.Background(), feed, 0)
	require.NoError(t, err)
	items, err := agg.ParseToRawArticles(context.Background(), feed, data)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "short", items[0].Summary)
}

func TestRSSKind_FeedContent_UsesFullContent(t *testing.T) {
	fake := &fakeFeedFetcher{feed: &fetcher.ParsedFeed{Items: []fetcher.ParsedFeedItem{
		{Title: "A", URL: "http://x/1", Summary: "short", Content: "long full content", PublishedAt: time.Now()},
	}}}
	agg := NewFeedContent(fake)
	feed := &entity.Feed{ID: 1, Kind: entity.KindFeedContent, Identifier: "http://x/feed.xml"}

	data, err := agg.FetchSourceData(context.Background(), feed, 0)
	require.NoError(t, err)
	items, err := agg.ParseToRawArticles(context.Background(), feed, data)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "long full content", items[0].Summary)
}

func TestMinContentLengthForFetch(t *testing.T) {
	assert.Equal(t, 0, MinContentLengthForFetch(entity.KindFullWebsite))
	assert.Equal(t, 1500, MinContentLengthForFetch(entity.KindFeedContent))
	assert.Equal(t, 1, MinContentLengthForFetch(entity.KindYouTube))
}

func TestYouTube_ParseSetsHeaderImageURL(t *testing.T) {
	fake := &fakeFeedFetcher{feed: &fetcher.ParsedFeed{Items: []fetcher.ParsedFeedItem{
		{Title: "Video", URL: "https://www.youtube.com/watch?v=abc12345678", Content: "desc", PublishedAt: time.Now()},
	}}}
	agg := NewYouTube(fake, nil)
	feed := &entity.Feed{ID: 1, Kind: entity.KindYouTube, Identifier: "UCxxxxxxxxxxxxxxxxxxxxxx"}

	data, err := agg.FetchSourceData(context.Background(), feed, 0)
	require.NoError(t, err)
	items, err := agg.ParseToRawArticles(context.Background(), feed, data)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, items[0].URL, items[0].HeaderImageURL)
}

func TestRegisterAll_CoversClosedSet(t *testing.T) {
	fake := &fakeFeedFetcher{feed: &fetcher.ParsedFeed{}}
	reg := aggregator.NewRegistry()
	RegisterAll(reg, fake, nil, nil, nil)

	kinds := []entity.AggregatorKind{
		entity.KindFullWebsite, entity.KindFeedContent, entity.KindYouTube,
		entity.KindReddit, entity.KindPodcast, entity.KindMeinMMO, entity.KindHeise,
		entity.KindMerkur, entity.KindTagesschau, entity.KindExplosm,
		entity.KindDarkLegacy, entity.KindOglaf, entity.KindCaschysBlog, entity.KindMacTechNews,
	}
	for _, kind := range kinds {
		_, ok := reg.Build(kind)
		assert.True(t, ok, "kind %s not registered", kind)
	}
}
