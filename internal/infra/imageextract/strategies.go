package imageextract

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ByteFetcher is the minimal surface imageextract needs from Fetcher.
type ByteFetcher interface {
	FetchBytes(ctx context.Context, feedID int64, url string) ([]byte, string, error)
}

var directImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".svg", ".ico"}

// DirectImageStrategy strategy 1: url path ends in a
// known image extension.
type DirectImageStrategy struct {
	Fetcher ByteFetcher
}

func (s *DirectImageStrategy) Name() string { return "direct_image" }

func (s *DirectImageStrategy) CanHandle(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	lower := strings.ToLower(u.Path)
	for _, ext := range directImageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func (s *DirectImageStrategy) Extract(ctx context.Context, feedID int64, rawURL string, _ Options) (*Image, error) {
	data, contentType, err := s.Fetcher.FetchBytes(ctx, feedID, rawURL)
	if err != nil {
		return nil, err
	}
	return &Image{Bytes: data, ContentType: contentType}, nil
}

var youtubeHostPattern = regexp.MustCompile(`(?i)(^|\.)(youtube\.com|youtu\.be)$`)
var youtubeIDPattern = regexp.MustCompile(`(?:v=|youtu\.be/|embed/)([A-Za-z0-9_-]{11})`)

// YouTubeThumbnailStrategy strategy 2: resolve to
// i.ytimg.com's maxresdefault with graceful fallback to hqdefault.
type YouTubeThumbnailStrategy struct {
	Fetcher ByteFetcher
}

func (s *YouTubeThumbnailStrategy) Name() string { return "youtube_thumbnail" }

func (s *YouTubeThumbnailStrategy) CanHandle(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return youtubeHostPattern.MatchString(u.Hostname())
}

func (s *YouTubeThumbnailStrategy) Extract(ctx context.Context, feedID int64, rawURL string, _ Options) (*Image, error) {
	m := youtubeIDPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return nil, fmt.Errorf("could not extract youtube video id from %s", rawURL)
	}
	videoID := m[1]

	maxresURL := fmt.Sprintf("https://i.ytimg.com/vi/%s/maxresdefault.jpg", videoID)
	data, contentType, err := s.Fetcher.FetchBytes(ctx, feedID, maxresURL)
	if err == nil && len(data) > 0 {
		return &Image{Bytes: data, ContentType: contentType}, nil
	}

	hqURL := fmt.Sprintf("https://i.ytimg.com/vi/%s/hqdefault.jpg", videoID)
	data, contentType, err = s.Fetcher.FetchBytes(ctx, feedID, hqURL)
	if err != nil {
		return nil, err
	}
	return &Image{Bytes: data, ContentType: contentType}, nil
}

var twitterHostPattern = regexp.MustCompile(`(?i)(^|\.)(twitter\.com|x\.com)$`)

// TwitterStrategy strategy 3: a site-specific image
// lookup for twitter.com/x.com status pages, implemented by reading the
// page's own og:image meta tag (the same mechanism as MetaTagsStrategy,
// applied without needing the caller to pre-render the DOM).
type TwitterStrategy struct {
	Fetcher ByteFetcher
}

func (s *TwitterStrategy) Name() string { return "twitter" }

func (s *TwitterStrategy) CanHandle(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return twitterHostPattern.MatchString(u.Hostname())
}

func (s *TwitterStrategy) Extract(ctx context.Context, feedID int64, rawURL string, opts Options) (*Image, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(opts.DocumentHTML))
	if err != nil || opts.DocumentHTML == "" {
		return nil, fmt.Errorf("twitter strategy requires a rendered document")
	}
	imgURL := metaImageFrom(doc)
	if imgURL == "" {
		return nil, fmt.Errorf("no og:image/twitter:image found for %s", rawURL)
	}
	data, contentType, err := s.Fetcher.FetchBytes(ctx, feedID, imgURL)
	if err != nil {
		return nil, err
	}
	return &Image{Bytes: data, ContentType: contentType}, nil
}

// MetaTagsStrategy strategy 4: og:image, then
// twitter:image, from an already-rendered DOM.
type MetaTagsStrategy struct {
	Fetcher ByteFetcher
}

func (s *MetaTagsStrategy) Name() string { return "meta_tags" }

func (s *MetaTagsStrategy) CanHandle(string) bool { return true }

func (s *MetaTagsStrategy) Extract(ctx context.Context, feedID int64, rawURL string, opts Options) (*Image, error) {
	if opts.DocumentHTML == "" {
		return nil, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(opts.DocumentHTML))
	if err != nil {
		return nil, err
	}
	imgURL := metaImageFrom(doc)
	if imgURL == "" {
		return nil, nil
	}
	data, contentType, err := s.Fetcher.FetchBytes(ctx, feedID, imgURL)
	if err != nil {
		return nil, err
	}
	return &Image{Bytes: data, ContentType: contentType}, nil
}

func metaImageFrom(doc *goquery.Document) string {
	if v, ok := doc.Find(`meta[property="og:image"]`).First().Attr("content"); ok && v != "" {
		return v
	}
	if v, ok := doc.Find(`meta[name="twitter:image"]`).First().Attr("content"); ok && v != "" {
		return v
	}
	return ""
}

// InlineSVGStrategy strategy 5: serialize the first
// meaningful inline <svg> from the rendered page.
type InlineSVGStrategy struct{}

func (s *InlineSVGStrategy) Name() string { return "inline_svg" }

func (s *InlineSVGStrategy) CanHandle(string) bool { return true }

func (s *InlineSVGStrategy) Extract(_ context.Context, _ int64, _ string, opts Options) (*Image, error) {
	if opts.DocumentHTML == "" {
		return nil, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(opts.DocumentHTML))
	if err != nil {
		return nil, err
	}
	var svgHTML string
	doc.Find("svg").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		html, err := goquery.OuterHtml(sel)
		if err != nil || strings.TrimSpace(html) == "" {
			return true
		}
		svgHTML = html
		return false
	})
	if svgHTML == "" {
		return nil, nil
	}
	return &Image{Bytes: []byte(svgHTML), ContentType: "image/svg+xml"}, nil
}

const minPageImageBytes = 2048

// PageImagesStrategy strategy 6: the first in-page
// <img> whose src resolves and passes a minimum-bytes threshold.
type PageImagesStrategy struct {
	Fetcher ByteFetcher
}

func (s *PageImagesStrategy) Name() string { return "page_images" }

func (s *PageImagesStrategy) CanHandle(string) bool { return true }

func (s *PageImagesStrategy) Extract(ctx context.Context, feedID int64, pageURL string, opts Options) (*Image, error) {
	if opts.DocumentHTML == "" {
		return nil, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(opts.DocumentHTML))
	if err != nil {
		return nil, err
	}
	base, _ := url.Parse(pageURL)

	var result *Image
	doc.Find("img").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		src, ok := sel.Attr("src")
		if !ok || src == "" {
			return true
		}
		resolved := resolveURL(base, src)
		if resolved == "" {
			return true
		}
		data, contentType, err := s.Fetcher.FetchBytes(ctx, feedID, resolved)
		if err != nil || len(data) < minPageImageBytes {
			return true
		}
		result = &Image{Bytes: data, ContentType: contentType}
		return false
	})
	return result, nil
}

func resolveURL(base *url.URL, ref string) string {
	refURL, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base == nil {
		return refURL.String()
	}
	return base.ResolveReference(refURL).String()
}
