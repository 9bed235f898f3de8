package contentprocessor

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// removeEmbedDuplicates handles step 5: once a YouTube or
// Reddit header has been embedded, strip the in-body remnants that would
// otherwise duplicate it (a plain link to the same video, Reddit's
// v.redd.it video link plus "View video" plus its preview image),
// collapsing any ancestor left empty by the removal.
func removeEmbedDuplicates(body *goquery.Selection, kind embedKind, articleURL string) {
	switch kind {
	case embedKindYouTube:
		removeYouTubeDuplicates(body)
	case embedKindReddit:
		removeRedditDuplicates(body, articleURL)
	}
}

func removeYouTubeDuplicates(body *goquery.Selection) {
	body.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if youtubeVideoIDPattern.MatchString(href) {
			collapseEmptyAncestors(sel, body)
		}
	})
	body.Find("iframe[src]").Each(func(_ int, sel *goquery.Selection) {
		src, _ := sel.Attr("src")
		if youtubeVideoIDPattern.MatchString(src) {
			collapseEmptyAncestors(sel, body)
		}
	})
}

func removeRedditDuplicates(body *goquery.Selection, articleURL string) {
	normalizedArticleURL := normalizeURLForComparison(articleURL)
	body.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		text := strings.TrimSpace(sel.Text())
		if strings.Contains(href, "v.redd.it") {
			collapseEmptyAncestors(sel, body)
			return
		}
		if strings.EqualFold(text, "View video") && normalizedArticleURL != "" &&
			normalizeURLForComparison(href) == normalizedArticleURL {
			collapseEmptyAncestors(sel, body)
		}
	})
	body.Find("img[src]").Each(func(_ int, sel *goquery.Selection) {
		src, _ := sel.Attr("src")
		if !isRedditPreviewHost(src) {
			return
		}
		if !looksLikeVideoThumbnail(sel) {
			return
		}
		collapseEmptyAncestors(sel, body)
	})
}

func isRedditPreviewHost(src string) bool {
	return strings.Contains(src, "preview.redd.it") ||
		strings.Contains(src, "external-preview.redd.it") ||
		strings.Contains(src, "i.redd.it")
}

// looksLikeVideoThumbnail reports whether sel (a Reddit preview image) is
// the poster frame for the embedded video rather than an unrelated content
// image, based on its own alt text or its parent's.
func looksLikeVideoThumbnail(sel *goquery.Selection) bool {
	if containsVideoHint(sel.AttrOr("alt", "")) {
		return true
	}
	parent := sel.Parent()
	if parent.Length() == 0 {
		return false
	}
	if containsVideoHint(parent.AttrOr("alt", "")) {
		return true
	}
	return containsVideoHint(strings.TrimSpace(parent.Text()))
}

func containsVideoHint(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(lower, "video") || strings.Contains(lower, "thumbnail")
}

// normalizeURLForComparison lowercases the host and strips trailing slash,
// query and fragment so post-URL comparisons ignore cosmetic differences.
func normalizeURLForComparison(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return strings.ToLower(strings.TrimSuffix(raw, "/"))
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	return strings.ToLower(strings.TrimSuffix(u.String(), "/"))
}
