package kinds

import (
	"yana/internal/domain/entity"
	"yana/internal/usecase/aggregator"
)

// The three webcomic kinds publish their strip image directly in the feed
// item's own content (no separate article page worth scraping), so they
// reuse RSSKind with UseFullContent like feed_content rather than
// full_website.

func NewExplosm(f FeedFetcher) aggregator.Aggregator {
	return &RSSKind{
		Base:           aggregator.Base{KindValue: entity.KindExplosm},
		Fetcher:        f,
		UseFullContent: true,
	}
}

func NewDarkLegacy(f FeedFetcher) aggregator.Aggregator {
	return &RSSKind{
		Base:           aggregator.Base{KindValue: entity.KindDarkLegacy},
		Fetcher:        f,
		UseFullContent: true,
	}
}

func NewOglaf(f FeedFetcher) aggregator.Aggregator {
	return &RSSKind{
		Base:           aggregator.Base{KindValue: entity.KindOglaf},
		Fetcher:        f,
		UseFullContent: true,
	}
}
