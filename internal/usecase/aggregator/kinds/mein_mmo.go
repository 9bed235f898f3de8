package kinds

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"yana/internal/domain/entity"
	"yana/internal/infra/fetcher"
	"yana/internal/usecase/aggregator"
)

const maxMultipageTraversal = 10

// MeinMMO ingests its RSS feed like any other news site, but overrides
// article-content fetching to traverse the site's "page 2/3/..." links and
// concatenate their bodies (the traverse_multipage option, tracked via
// RawArticle.IsMultiPage).
type MeinMMO struct {
	aggregator.Base
	Feeds FeedFetcher
	Pages HTMLFetcher
}

func NewMeinMMO(feeds FeedFetcher, pages HTMLFetcher) aggregator.Aggregator {
	return &MeinMMO{Base: aggregator.Base{KindValue: entity.KindMeinMMO}, Feeds: feeds, Pages: pages}
}

func (k *MeinMMO) FetchSourceData(ctx context.Context, feed *entity.Feed, _ int) (aggregator.SourceData, error) {
	return fetchRSS(ctx, k.Feeds, feed, feed.Identifier)
}

func (k *MeinMMO) ParseToRawArticles(_ context.Context, feed *entity.Feed, data aggregator.SourceData) ([]entity.RawArticle, error) {
	parsed, err := asParsedFeed(feed.Kind, data)
	if err != nil {
		return nil, err
	}
	items := parseRSSItems(parsed, false)
	if feed.Options.TraverseMultipage {
		for i := range items {
			items[i].IsMultiPage = true
		}
	}
	return items, nil
}

// FetchArticleContentInternal implements the multi-page traversal override:
// fetch the article page, then follow its "next page" link (if any) up to
// maxMultipageTraversal times, concatenating each page's <article> body.
func (k *MeinMMO) FetchArticleContentInternal(ctx context.Context, feed *entity.Feed, raw *entity.RawArticle) (string, bool, error) {
	if !raw.IsMultiPage {
		return "", false, nil
	}

	var combined strings.Builder
	pageURL := raw.URL
	for page := 0; page < maxMultipageTraversal && pageURL != ""; page++ {
		html, err := k.Pages.FetchHTML(ctx, feed.ID, pageURL, fetcher.FetchOptions{})
		if err != nil {
			if page == 0 {
				return "", true, err
			}
			break
		}
		body, next := extractBodyAndNextPage(html, pageURL)
		combined.WriteString(body)
		pageURL = next
	}
	return "<article>" + combined.String() + "</article>", true, nil
}

// extractBodyAndNextPage pulls the <article> (or <body>) innerHTML and the
// href of a rel="next" / class="next-page" link, resolved against pageURL.
func extractBodyAndNextPage(rawHTML, pageURL string) (body string, nextURL string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", ""
	}
	article := doc.Find("article").First()
	if article.Length() == 0 {
		article = doc.Find("body").First()
	}
	body, _ = article.Html()

	next := doc.Find(`a[rel="next"], a.next-page`).First()
	href, ok := next.Attr("href")
	if !ok || href == "" {
		return body, ""
	}
	return body, resolveNextURL(pageURL, href)
}

func resolveNextURL(pageURL, href string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
