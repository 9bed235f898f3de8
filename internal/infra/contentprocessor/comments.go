package contentprocessor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// extractCommentSections handles step 6: pull out any
// <section> whose own text or first heading mentions "comment" so it can be
// re-appended after the body rather than left interleaved with it.
func extractCommentSections(body *goquery.Selection) []string {
	var sections []string
	body.Find("section").Each(func(_ int, sel *goquery.Selection) {
		if !looksLikeCommentSection(sel) {
			return
		}
		html, err := goquery.OuterHtml(sel)
		if err != nil {
			return
		}
		sections = append(sections, html)
		sel.Remove()
	})
	return sections
}

func looksLikeCommentSection(sel *goquery.Selection) bool {
	heading := sel.Find("h1, h2, h3, h4").First().Text()
	if strings.Contains(strings.ToLower(heading), "comment") {
		return true
	}
	if id, ok := sel.Attr("id"); ok && strings.Contains(strings.ToLower(id), "comment") {
		return true
	}
	if class, ok := sel.Attr("class"); ok && strings.Contains(strings.ToLower(class), "comment") {
		return true
	}
	return false
}
