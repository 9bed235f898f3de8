// Package contentprocessor implements the HTML standardization pipeline
// that turns raw article HTML into the canonical <article>-rooted form
// every stored Article carries.
package contentprocessor

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"yana/internal/domain/entity"
	"yana/internal/infra/imageextract"
)

// sanitizePolicy strips script/style/event-handler content from scraped
// third-party HTML before it reaches storage or a GReader client. Built on
// bluemonday's UGC policy plus the inline style attribute this package's
// own header/footer markup relies on.
var sanitizePolicy = newSanitizePolicy()

func newSanitizePolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("style").OnElements("footer", "a", "img", "div", "figure")
	p.AllowAttrs("target", "rel").OnElements("a")
	return p
}

// ImageResolver is the subset of imageextract the processor needs to turn
// a chosen header source into encoded bytes.
type ImageResolver interface {
	Extract(ctx context.Context, feedID int64, url string, opts imageextract.Options) (*imageextract.Image, error)
}

// Options carries the per-article, per-feed knobs the pipeline needs.
type Options struct {
	FeedID             int64
	ArticleURL         string
	HeaderImageURL     string // explicit hint from the aggregator (step 3)
	GenerateTitleImage bool
	AddSourceFooter    bool
	ExcludeSelectors   []string // base ∪ feed-option, already merged by the caller
	RegexReplacements  []entity.RegexReplacement
}

// Processor runs the 10-step standardization pipeline.
type Processor struct {
	images ImageResolver
}

func New(images ImageResolver) *Processor {
	return &Processor{images: images}
}

// Process implements the contract: processContent(html, article, opts) ->
// standardized-html. Any non-SkipArticle error during a step results in
// the documented fallback wrap (step 10); SkipArticle errors propagate
// untouched.
func (p *Processor) Process(ctx context.Context, html string, opts Options) (string, error) {
	result, err := p.process(ctx, html, opts)
	if err != nil {
		if entity.IsSkipArticle(err) {
			return "", err
		}
		return sanitizePolicy.Sanitize(p.fallbackWrap(html, opts)), nil
	}
	return sanitizePolicy.Sanitize(result), nil
}

func (p *Processor) process(ctx context.Context, html string, opts Options) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse document: %w", err)
	}

	// Step 1: locate the article body.
	body := findArticleBody(doc)

	// Step 2: detect pre-existing header/footer.
	existingHeader := body.Find("header").First()
	existingFooter := body.Find("footer").First()
	hasHeader := existingHeader.Length() > 0
	hasFooter := existingFooter.Length() > 0

	var headerHTML string
	if hasHeader {
		headerHTML, _ = goquery.OuterHtml(existingHeader)
		existingHeader.Remove()
	}

	// Step 4 runs before step 3's generic synthesis: special embedders take
	// priority when they match (YouTube/Reddit).
	embedHeaderHTML, embedKind := p.tryEmbedHeader(ctx, doc, body, opts)
	if embedHeaderHTML != "" {
		headerHTML = embedHeaderHTML
		hasHeader = true
	} else if opts.GenerateTitleImage && !hasHeader {
		// Step 3: synthesize a header image.
		synthesized, err := p.synthesizeHeader(ctx, doc, body, opts)
		if err != nil {
			return "", err
		}
		if synthesized != "" {
			headerHTML = synthesized
			hasHeader = true
		}
	}

	// Step 5: dedup removal tied to whichever embed kind was inserted.
	if embedKind != "" {
		removeEmbedDuplicates(body, embedKind, opts.ArticleURL)
	}

	// Step 6: extract comment sections.
	commentSections := extractCommentSections(body)

	// Step 7: rebuild <article>. body's own tag (whether it was an existing
	// <article> or the <body> fallback) is discarded here, not reused as the
	// wrapper, so the remaining content is nested as a <section> instead of
	// producing a second <article> root.
	innerHTML, err := body.Html()
	if err != nil {
		return "", fmt.Errorf("serialize body: %w", err)
	}
	bodyHTML := "<section>" + innerHTML + "</section>"

	var footerHTML string
	if hasFooter {
		footerHTML, _ = goquery.OuterHtml(existingFooter)
	} else if opts.AddSourceFooter {
		footerHTML = fmt.Sprintf(`<footer style="margin-bottom:16px"><a href="%s" style="float:right">Source</a></footer>`, opts.ArticleURL)
	}

	var sb strings.Builder
	sb.WriteString("<article>")
	sb.WriteString(headerHTML)
	sb.WriteString(bodyHTML)
	for _, section := range commentSections {
		sb.WriteString(section)
	}
	sb.WriteString(footerHTML)
	sb.WriteString("</article>")
	rebuilt := sb.String()

	// Step 8: selector removal.
	rebuilt, err = removeSelectors(rebuilt, opts.ExcludeSelectors)
	if err != nil {
		return "", fmt.Errorf("remove selectors: %w", err)
	}

	// Step 9: regex replacements.
	rebuilt = applyRegexReplacements(rebuilt, opts.RegexReplacements)

	return rebuilt, nil
}

// fallbackWrap handles step 10: on any non-SkipArticle failure, wrap the
// untouched input instead of losing the article.
func (p *Processor) fallbackWrap(html string, opts Options) string {
	var sb strings.Builder
	sb.WriteString("<article>")
	sb.WriteString(html)
	if opts.AddSourceFooter {
		sb.WriteString(fmt.Sprintf(`<footer style="margin-bottom:16px"><a href="%s" style="float:right">Source</a></footer>`, opts.ArticleURL))
	}
	sb.WriteString("</article>")
	return sb.String()
}

// findArticleBody prefers an existing <article> wrapper, otherwise the
// <body> contents (step 1).
func findArticleBody(doc *goquery.Document) *goquery.Selection {
	if article := doc.Find("article").First(); article.Length() > 0 {
		return article
	}
	return doc.Find("body").First()
}
