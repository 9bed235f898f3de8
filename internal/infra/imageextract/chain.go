package imageextract

// DefaultStrategies returns the canonical strategy chain in order: direct
// image, YouTube thumbnail, Twitter/X, meta tags, inline SVG, page images.
func DefaultStrategies(fetcher ByteFetcher) []Strategy {
	return []Strategy{
		&DirectImageStrategy{Fetcher: fetcher},
		&YouTubeThumbnailStrategy{Fetcher: fetcher},
		&TwitterStrategy{Fetcher: fetcher},
		&MetaTagsStrategy{Fetcher: fetcher},
		&InlineSVGStrategy{},
		&PageImagesStrategy{Fetcher: fetcher},
	}
}
