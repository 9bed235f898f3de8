package enrich

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"
)

// ReadabilityExtractor implements ContentExtractor using Mozilla
// Readability. Fetching and extraction are kept as separate pipeline
// steps so an aggregator can supply already-fetched HTML directly.
type ReadabilityExtractor struct{}

func NewReadabilityExtractor() *ReadabilityExtractor {
	return &ReadabilityExtractor{}
}

func (e *ReadabilityExtractor) Extract(rawHTML, sourceURL string) (string, error) {
	parsedURL, err := url.Parse(sourceURL)
	if err != nil {
		parsedURL = nil
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		return "", fmt.Errorf("readability extraction failed: %w", err)
	}

	if article.Content == "" {
		return "", fmt.Errorf("readability: no readable content found")
	}
	return article.Content, nil
}
