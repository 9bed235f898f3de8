package kinds

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"yana/internal/domain/entity"
	"yana/internal/infra/fetcher"
	"yana/internal/infra/ytapi"
	"yana/internal/usecase/aggregator"
)

// HTMLFetcher is the subset of fetching needed to resolve a page by
// scraping its HTML.
type HTMLFetcher interface {
	FetchHTML(ctx context.Context, feedID int64, url string, opts fetcher.FetchOptions) (string, error)
}

// ChannelAPI is the subset of the YouTube Data API that handle resolution
// needs: searching channels by name and the legacy-username lookup.
type ChannelAPI interface {
	SearchChannels(ctx context.Context, query string) ([]ytapi.Channel, error)
	ChannelByUsername(ctx context.Context, username string) (*ytapi.Channel, error)
}

var channelIDPattern = regexp.MustCompile(`^UC[\w-]{22}$`)

// YouTube ingests a channel's uploads as its public videos.xml feed;
// identifier may be a channel id, a bare handle, or a full channel URL.
// Validate resolves whatever form the user supplied down to the canonical
// UC... channel id once, so FetchSourceData never has to re-resolve it.
type YouTube struct {
	aggregator.Base
	Feeds    FeedFetcher
	Channels ChannelAPI
}

func NewYouTube(feeds FeedFetcher, channels ChannelAPI) aggregator.Aggregator {
	return &YouTube{Base: aggregator.Base{KindValue: entity.KindYouTube}, Feeds: feeds, Channels: channels}
}

// Validate resolves the identifier in order: an already-valid UC... id
// passes straight through; a channel URL's /channel/{id} path or
// channel_id query param yields the id directly; a /user/{name} path
// resolves via the legacy forUsername lookup; everything else (a bare
// handle, an "@handle" path, or a /c/{name} path) is resolved by name
// through the Data API, preferring an exact customUrl match, then an
// exact title match, then the first hit, falling back to forUsername
// when the search itself comes back empty.
func (k *YouTube) Validate(ctx context.Context, feed *entity.Feed) error {
	identifier := strings.TrimSpace(feed.Identifier)

	if channelIDPattern.MatchString(identifier) {
		return nil
	}

	channelID, handle, username := parseChannelReference(identifier)
	switch {
	case channelID != "":
		if !channelIDPattern.MatchString(channelID) {
			return &entity.ValidationError{Field: "identifier", Message: fmt.Sprintf("channel id %q is not a valid YouTube channel id", channelID)}
		}
		feed.Identifier = channelID
		return nil
	case username != "":
		return k.resolveByUsername(ctx, feed, username)
	default:
		return k.resolveByHandle(ctx, feed, handle)
	}
}

// parseChannelReference extracts whichever form of channel reference
// identifier carries: a direct channel id (from /channel/{id} or a
// channel_id query param), a legacy username (from /user/{name}), or a
// handle (from a bare "@handle", an "@handle" path, a /c/{name} path, or
// any other bare name). Exactly one of the three return values is
// non-empty.
func parseChannelReference(identifier string) (channelID, handle, username string) {
	if strings.HasPrefix(identifier, "@") {
		return "", strings.TrimPrefix(identifier, "@"), ""
	}

	u, err := url.Parse(identifier)
	if err != nil || u.Host == "" {
		return "", strings.TrimPrefix(identifier, "@"), ""
	}

	if id := u.Query().Get("channel_id"); id != "" {
		return id, "", ""
	}

	path := strings.Trim(u.Path, "/")
	switch {
	case strings.HasPrefix(path, "channel/"):
		return strings.TrimPrefix(path, "channel/"), "", ""
	case strings.HasPrefix(path, "@"):
		return "", strings.TrimPrefix(path, "@"), ""
	case strings.HasPrefix(path, "c/"):
		return "", strings.TrimPrefix(path, "c/"), ""
	case strings.HasPrefix(path, "user/"):
		return "", "", strings.TrimPrefix(path, "user/")
	default:
		return "", path, ""
	}
}

func (k *YouTube) resolveByHandle(ctx context.Context, feed *entity.Feed, handle string) error {
	if k.Channels == nil {
		return &entity.ValidationError{Field: "identifier", Message: fmt.Sprintf("cannot resolve youtube handle %q: no channel API configured", handle)}
	}

	results, err := k.Channels.SearchChannels(ctx, handle)
	if err != nil {
		return fmt.Errorf("resolve youtube handle %q: %w", handle, err)
	}

	if len(results) == 0 {
		return k.resolveByUsername(ctx, feed, handle)
	}

	normalizedHandle := normalizeHandle(handle)
	for _, ch := range results {
		if normalizeHandle(ch.CustomURL) == normalizedHandle {
			feed.Identifier = ch.ID
			return nil
		}
	}
	for _, ch := range results {
		if strings.EqualFold(ch.Title, handle) {
			feed.Identifier = ch.ID
			return nil
		}
	}
	feed.Identifier = results[0].ID
	return nil
}

func (k *YouTube) resolveByUsername(ctx context.Context, feed *entity.Feed, username string) error {
	if k.Channels == nil {
		return &entity.ValidationError{Field: "identifier", Message: fmt.Sprintf("cannot resolve youtube username %q: no channel API configured", username)}
	}

	ch, err := k.Channels.ChannelByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("resolve youtube username %q: %w", username, err)
	}
	if ch == nil {
		return &entity.ValidationError{Field: "identifier", Message: fmt.Sprintf("could not resolve youtube channel for %q", username)}
	}
	feed.Identifier = ch.ID
	return nil
}

func normalizeHandle(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, "@"))
}

func (k *YouTube) FetchSourceData(ctx context.Context, feed *entity.Feed, _ int) (aggregator.SourceData, error) {
	feedURL := "https://www.youtube.com/feeds/videos.xml?channel_id=" + feed.Identifier
	return fetchRSS(ctx, k.Feeds, feed, feedURL)
}

func (k *YouTube) ParseToRawArticles(_ context.Context, feed *entity.Feed, data aggregator.SourceData) ([]entity.RawArticle, error) {
	parsed, err := asParsedFeed(feed.Kind, data)
	if err != nil {
		return nil, err
	}
	items := parseRSSItems(parsed, true)
	for i := range items {
		// HeaderImageURL drives contentprocessor's YouTube embed detection
		// (step 4) ahead of any generic header synthesis.
		items[i].HeaderImageURL = items[i].URL
	}
	return items, nil
}
