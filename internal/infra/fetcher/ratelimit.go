package fetcher

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// hostRateLimiter is a per-host token bucket, one golang.org/x/time/rate
// limiter per hostname, so a slow or chatty feed never starves requests to
// other hosts.
type hostRateLimiter struct {
	requestsPerSecond float64
	burst             int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newHostRateLimiter(requestsPerSecond float64, burst int) *hostRateLimiter {
	return &hostRateLimiter{
		requestsPerSecond: requestsPerSecond,
		burst:             burst,
		limiters:          make(map[string]*rate.Limiter),
	}
}

// Allow blocks until urlStr's host has a free token or ctx is canceled.
func (h *hostRateLimiter) Allow(ctx context.Context, urlStr string) error {
	host := urlStr
	if u, err := url.Parse(urlStr); err == nil && u.Host != "" {
		host = u.Host
	}

	h.mu.Lock()
	limiter, ok := h.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(h.requestsPerSecond), h.burst)
		h.limiters[host] = limiter
	}
	h.mu.Unlock()

	return limiter.Wait(ctx)
}
