package aggregator

import (
	"strings"

	"yana/internal/domain/entity"
)

// ApplyArticleFilters implements template step 4: drop RawArticles whose
// title contains any ignore_title_contains substring, or whose
// title+summary contains any ignore_content_contains substring
// (case-insensitive, invariant 1).
func ApplyArticleFilters(feed *entity.Feed, items []entity.RawArticle) []entity.RawArticle {
	ignoreTitle := feed.Options.IgnoreTitleContains
	ignoreContent := feed.Options.IgnoreContentContains
	if len(ignoreTitle) == 0 && len(ignoreContent) == 0 {
		return items
	}

	filtered := make([]entity.RawArticle, 0, len(items))
	for _, item := range items {
		if containsAnyFold(item.Title, ignoreTitle) {
			continue
		}
		if containsAnyFold(item.Title+item.Summary, ignoreContent) {
			continue
		}
		filtered = append(filtered, item)
	}
	return filtered
}

func containsAnyFold(haystack string, needles []string) bool {
	if haystack == "" || len(needles) == 0 {
		return false
	}
	lower := strings.ToLower(haystack)
	for _, n := range needles {
		if n == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

// ApplyArticleLimit implements template step 5: cap the survivor list at
// the dynamic daily limit computed by the quota distributor. limit is
// always a concrete, non-negative cap by the time it reaches here (the
// quota distributor has already resolved -1/0/positive semantics).
func ApplyArticleLimit(items []entity.RawArticle, limit int) []entity.RawArticle {
	if limit == 0 {
		return nil
	}
	if limit >= len(items) {
		return items
	}
	return items[:limit]
}
