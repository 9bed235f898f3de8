package kinds

import "yana/internal/domain/entity"

// MinContentLengthForFetch returns the enrich.Config threshold appropriate
// for kind: full_website-shaped kinds always fetch the article page (the
// feed only carries a summary), while feed_content-shaped kinds already
// embed full content and should only fall back to a page fetch when a
// particular item's content is unexpectedly short. youtube/reddit/podcast
// have no separate article page worth scraping at all.
func MinContentLengthForFetch(kind entity.AggregatorKind) int {
	switch kind {
	case entity.KindFeedContent, entity.KindExplosm, entity.KindDarkLegacy, entity.KindOglaf:
		return 1500
	case entity.KindYouTube, entity.KindReddit, entity.KindPodcast:
		return 1
	default:
		return 0
	}
}
