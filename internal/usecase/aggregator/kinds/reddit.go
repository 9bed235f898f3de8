package kinds

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"yana/internal/domain/entity"
	"yana/internal/usecase/aggregator"
)

// ByteFetcher is the subset of fetching needed to look up a subreddit's
// community icon via its about.json endpoint.
type ByteFetcher interface {
	FetchBytes(ctx context.Context, feedID int64, url string) ([]byte, string, error)
}

// Reddit ingests a subreddit's public RSS feed (identifier is the bare
// subreddit name, no "r/" prefix).
type Reddit struct {
	aggregator.Base
	Feeds FeedFetcher
	Bytes ByteFetcher
}

func NewReddit(feeds FeedFetcher, bytes ByteFetcher) aggregator.Aggregator {
	return &Reddit{Base: aggregator.Base{KindValue: entity.KindReddit}, Feeds: feeds, Bytes: bytes}
}

func (k *Reddit) FetchSourceData(ctx context.Context, feed *entity.Feed, _ int) (aggregator.SourceData, error) {
	subreddit := strings.TrimPrefix(feed.Identifier, "r/")
	feedURL := fmt.Sprintf("https://www.reddit.com/r/%s/.rss", subreddit)
	return fetchRSS(ctx, k.Feeds, feed, feedURL)
}

func (k *Reddit) ParseToRawArticles(_ context.Context, feed *entity.Feed, data aggregator.SourceData) ([]entity.RawArticle, error) {
	parsed, err := asParsedFeed(feed.Kind, data)
	if err != nil {
		return nil, err
	}
	return parseRSSItems(parsed, false), nil
}

// redditAbout is the subset of /r/{name}/about.json this kind reads.
type redditAbout struct {
	Data struct {
		IconImg       string `json:"icon_img"`
		CommunityIcon string `json:"community_icon"`
	} `json:"data"`
}

// CollectFeedIcon overrides the default favicon-of-the-page lookup with
// the subreddit's own community icon.
func (k *Reddit) CollectFeedIcon(ctx context.Context, feed *entity.Feed) (string, bool, error) {
	subreddit := strings.TrimPrefix(feed.Identifier, "r/")
	body, _, err := k.Bytes.FetchBytes(ctx, feed.ID, fmt.Sprintf("https://www.reddit.com/r/%s/about.json", subreddit))
	if err != nil {
		return "", true, fmt.Errorf("fetch subreddit about.json: %w", err)
	}
	var about redditAbout
	if err := json.Unmarshal(body, &about); err != nil {
		return "", true, fmt.Errorf("parse subreddit about.json: %w", err)
	}
	icon := firstNonEmpty(about.Data.CommunityIcon, about.Data.IconImg)
	if icon == "" {
		return "", true, nil
	}
	return html.UnescapeString(icon), true, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
