package fetcher

import (
	"context"
	"errors"
	"net"
	"regexp"
	"strconv"

	"yana/internal/domain/entity"
)

// statusPattern scans an arbitrary error message (including headless-browser
// navigation errors) for an embedded HTTP status code, following the
// precedence rule: a 4xx anywhere in the message takes priority.
var statusPattern = regexp.MustCompile(`\b(40\d|41\d|50\d)\b`)

// classifyTransportError converts a raw transport failure into the
// EnrichmentError taxonomy, following the precedence order:
// 4xx -> SkipArticle, 5xx/network-unreachable -> Transient, timeout ->
// Transient, everything else -> Transient as a safe default.
func classifyTransportError(step string, feedID int64, url string, statusCode int, err error) *entity.EnrichmentError {
	if statusCode == 0 {
		if m := statusPattern.FindStringSubmatch(err.Error()); m != nil {
			if code, convErr := strconv.Atoi(m[1]); convErr == nil {
				statusCode = code
			}
		}
	}

	if statusCode >= 400 && statusCode < 500 {
		return entity.NewSkipArticle(step, feedID, url, statusCode, err)
	}
	if statusCode >= 500 && statusCode < 600 {
		return entity.NewTransient(step, feedID, url, err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return entity.NewTransient(step, feedID, url, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return entity.NewTransient(step, feedID, url, err)
	}

	return entity.NewTransient(step, feedID, url, err)
}
