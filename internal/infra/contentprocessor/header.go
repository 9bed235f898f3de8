package contentprocessor

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"yana/internal/infra/imageextract"
)

// synthesizeHeader handles step 3: choose a header image
// source, resolve it to a data URI, and remove the element it came from.
func (p *Processor) synthesizeHeader(ctx context.Context, _ *goquery.Document, body *goquery.Selection, opts Options) (string, error) {
	sourceURL, sourceEl := chooseHeaderSource(body, opts.ArticleURL)

	var dataURI string
	if strings.HasPrefix(sourceURL, "data:") {
		dataURI = sourceURL
	} else {
		img, err := p.images.Extract(ctx, opts.FeedID, sourceURL, imageextract.Options{IsHeader: true})
		if err != nil {
			return "", err
		}
		if img == nil {
			return "", nil
		}
		dataURI = fmt.Sprintf("data:%s;base64,%s", img.ContentType, base64.StdEncoding.EncodeToString(img.Bytes))
	}

	if sourceEl != nil {
		collapseEmptyAncestors(sourceEl, body)
	}

	return fmt.Sprintf(`<header><p><img src="%s" alt="Article image" style="max-width:100%%; height:auto"></p></header>`, dataURI), nil
}

// chooseHeaderSource implements the fallback chain: explicit hint, first
// in-content image, first valid outbound link, the article URL itself.
func chooseHeaderSource(body *goquery.Selection, articleURL string) (string, *goquery.Selection) {
	if el := findFirstImage(body); el != nil {
		if src, ok := el.Attr("src"); ok && src != "" {
			return src, el
		}
	}
	if el := findFirstOutboundLink(body, articleURL); el != nil {
		if href, ok := el.Attr("href"); ok && href != "" {
			return href, el
		}
	}
	return articleURL, nil
}

func findFirstImage(body *goquery.Selection) *goquery.Selection {
	img := body.Find("img").First()
	if img.Length() == 0 {
		return nil
	}
	return img
}

func findFirstOutboundLink(body *goquery.Selection, articleURL string) *goquery.Selection {
	var found *goquery.Selection
	body.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if strings.HasPrefix(href, "http") && href != articleURL {
			found = sel
			return false
		}
		return true
	})
	return found
}

// collapseEmptyAncestors removes el and then collapses any ancestor chain
// that becomes empty, stopping at body (step 3 and step 5).
func collapseEmptyAncestors(el *goquery.Selection, body *goquery.Selection) {
	parent := el.Parent()
	el.Remove()
	for parent.Length() > 0 && !parent.Is("body") {
		if strings.TrimSpace(parent.Text()) != "" || parent.Find("img, svg, iframe").Length() > 0 {
			break
		}
		grandparent := parent.Parent()
		parent.Remove()
		parent = grandparent
	}
}

var youtubeVideoIDPattern = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/)([A-Za-z0-9_-]{11})`)
var vxRedditPattern = regexp.MustCompile(`(?i)vxreddit\.com`)
var redditEmbedPattern = regexp.MustCompile(`(?i)reddit\.com/embed`)

type embedKind string

const (
	embedKindNone    embedKind = ""
	embedKindYouTube embedKind = "youtube"
	embedKindReddit  embedKind = "reddit"
)

// tryEmbedHeader handles step 4's special embedders.
// Returns the header block HTML and which kind matched (used by step 5's
// dedup pass), or ("", embedKindNone) when neither matches.
func (p *Processor) tryEmbedHeader(_ context.Context, _ *goquery.Document, _ *goquery.Selection, opts Options) (string, embedKind) {
	headerURL := opts.HeaderImageURL
	if headerURL == "" {
		headerURL = opts.ArticleURL
	}

	if m := youtubeVideoIDPattern.FindStringSubmatch(headerURL); m != nil {
		videoID := m[1]
		html := fmt.Sprintf(`<header><div style="position:relative; padding-bottom:56.25%%; height:0;"><iframe src="https://www.youtube.com/embed/%s" style="position:absolute; top:0; left:0; width:100%%; height:100%%;" frameborder="0" allowfullscreen></iframe></div></header>`, videoID)
		return html, embedKindYouTube
	}

	if vxRedditPattern.MatchString(headerURL) || redditEmbedPattern.MatchString(headerURL) {
		html := fmt.Sprintf(`<header><iframe src="%s" style="width:100%%; border:none;" height="500" scrolling="no"></iframe></header>`, redditEmbedSrc(headerURL))
		return html, embedKindReddit
	}

	return "", embedKindNone
}

// redditEmbedSrc normalizes a vxreddit/reddit post url into its embeddable
// form. vxreddit links are already embed-safe; bare reddit.com/embed links
// pass through unchanged.
func redditEmbedSrc(headerURL string) string {
	if redditEmbedPattern.MatchString(headerURL) {
		return headerURL
	}
	return headerURL
}
