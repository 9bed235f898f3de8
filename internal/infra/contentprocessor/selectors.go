package contentprocessor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// removeSelectors handles step 8: strip every element
// matched by the base ∪ feed-option CSS selector set. An invalid selector
// is skipped rather than aborting the whole step.
func removeSelectors(html string, selectors []string) (string, error) {
	if len(selectors) == 0 {
		return html, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse for selector removal: %w", err)
	}

	for _, selector := range selectors {
		selector = strings.TrimSpace(selector)
		if selector == "" {
			continue
		}
		applySelectorRemoval(doc, selector)
	}

	out, err := doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("serialize after selector removal: %w", err)
	}
	return out, nil
}

// applySelectorRemoval runs doc.Find(selector).Remove, recovering from the
// panic cascadia raises on a malformed selector so one bad feed-option
// selector doesn't take the whole step down.
func applySelectorRemoval(doc *goquery.Document, selector string) {
	defer func() {
		_ = recover()
	}()
	doc.Find(selector).Remove()
}
