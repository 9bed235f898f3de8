package kinds

import (
	"yana/internal/domain/entity"
	"yana/internal/usecase/aggregator"
)

// The five news/tech-blog kinds below are RSSKind with site-specific
// boilerplate selectors stripped by default. A feed's own
// exclude_selectors option is a per-feed add-on, not a replacement, so
// these defaults still combine with whatever the feed's own options list
// adds — merged by the runner before EnrichmentPipeline runs.

func NewHeise(f FeedFetcher) aggregator.Aggregator {
	return &RSSKind{
		Base: aggregator.Base{KindValue: entity.KindHeise, Selectors: []string{".ad-wrapper", ".gallery-ad"}},
		Fetcher: f,
	}
}

func NewMerkur(f FeedFetcher) aggregator.Aggregator {
	return &RSSKind{
		Base: aggregator.Base{KindValue: entity.KindMerkur, Selectors: []string{".id-StoryElementTeaser", ".id-Banner"}},
		Fetcher: f,
	}
}

func NewTagesschau(f FeedFetcher) aggregator.Aggregator {
	return &RSSKind{
		Base: aggregator.Base{KindValue: entity.KindTagesschau, Selectors: []string{".conntent__social-media", ".meldungsfooter"}},
		Fetcher: f,
	}
}

func NewCaschysBlog(f FeedFetcher) aggregator.Aggregator {
	return &RSSKind{
		Base: aggregator.Base{KindValue: entity.KindCaschysBlog, Selectors: []string{".sharedaddy", ".jp-relatedposts"}},
		Fetcher: f,
	}
}

func NewMacTechNews(f FeedFetcher) aggregator.Aggregator {
	return &RSSKind{
		Base: aggregator.Base{KindValue: entity.KindMacTechNews, Selectors: []string{".ad-container", ".mtn-related"}},
		Fetcher: f,
	}
}
