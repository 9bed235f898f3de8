package kinds

import (
	"context"

	"yana/internal/domain/entity"
	"yana/internal/usecase/aggregator"
)

// Podcast ingests a standard podcast RSS feed. Episode show notes are the
// article content (podcasts have no separate web page worth scraping);
// the enclosure becomes MediaURL/MediaType so a client can offer playback.
type Podcast struct {
	aggregator.Base
	Fetcher FeedFetcher
}

func NewPodcast(f FeedFetcher) aggregator.Aggregator {
	return &Podcast{Base: aggregator.Base{KindValue: entity.KindPodcast}, Fetcher: f}
}

func (k *Podcast) FetchSourceData(ctx context.Context, feed *entity.Feed, _ int) (aggregator.SourceData, error) {
	return fetchRSS(ctx, k.Fetcher, feed, feed.Identifier)
}

func (k *Podcast) ParseToRawArticles(_ context.Context, feed *entity.Feed, data aggregator.SourceData) ([]entity.RawArticle, error) {
	parsed, err := asParsedFeed(feed.Kind, data)
	if err != nil {
		return nil, err
	}
	return parseRSSItems(parsed, true), nil
}
