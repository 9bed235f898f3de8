package fetcher

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"yana/internal/domain/entity"
	"yana/internal/resilience/circuitbreaker"
)

// HTTPBackend fetches documents with a plain *http.Client. Used for RSS/
// Atom, direct image bytes, and any API call that needs no JS rendering.
type HTTPBackend struct {
	client *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	rateLimiter *hostRateLimiter
	config Config
}

func NewHTTPBackend(config Config) *HTTPBackend {
	b := &HTTPBackend{
		circuitBreaker: circuitbreaker.New(circuitbreaker.WebScraperConfig),
		rateLimiter: newHostRateLimiter(config.PerHostRequestsPerSecond, config.PerHostBurst),
		config: config,
	}
	b.client = &http.Client{
		Timeout: config.Timeout,
		Transport: &http.Transport{
			MaxIdleConns: 100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout: 90 * time.Second,
			TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= b.config.MaxRedirects {
				return fmt.Errorf("too many redirects: %d", len(via))
			}
			return validateURL(req.URL.String(), b.config.DenyPrivateIPs)
		},
	}
	return b
}

// FetchHTML retrieves the raw response body for urlStr, classifying any
// transport failure into the entity error hierarchy.
func (b *HTTPBackend) FetchHTML(ctx context.Context, feedID int64, urlStr string, opts FetchOptions) (string, error) {
	if err := validateURL(urlStr, b.config.DenyPrivateIPs); err != nil {
		return "", entity.NewSkipArticle("fetchHTML", feedID, urlStr, 0, err)
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = b.config.Timeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := b.rateLimiter.Allow(reqCtx, urlStr); err != nil {
		return "", entity.NewTransient("fetchHTML", feedID, urlStr, fmt.Errorf("rate limit wait: %w", err))
	}

	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	result, err := b.circuitBreaker.Execute(func() (interface{}, error) {
		return b.doFetch(reqCtx, method, urlStr, opts)
	})
	if err != nil {
		statusCode := 0
		if httpErr, ok := err.(*httpStatusError); ok {
			statusCode = httpErr.StatusCode
		}
		return "", classifyTransportError("fetchHTML", feedID, urlStr, statusCode, err)
	}
	return result.(string), nil
}

type httpStatusError struct {
	StatusCode int
	Status string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
}

func (b *HTTPBackend) doFetch(ctx context.Context, method, urlStr string, opts FetchOptions) (string, error) {
	req, err := http.NewRequestWithContext(ctx, method, urlStr, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "YanaBot/1.0")
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &httpStatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	limited := io.LimitReader(resp.Body, b.config.MaxBodySize+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}
	if int64(len(body)) > b.config.MaxBodySize {
		return "", fmt.Errorf("response size %d exceeds limit %d", len(body), b.config.MaxBodySize)
	}
	return string(body), nil
}

// FetchBytes retrieves raw bytes (images, icons) with the same validation
// and circuit breaker as FetchHTML.
func (b *HTTPBackend) FetchBytes(ctx context.Context, feedID int64, urlStr string) ([]byte, string, error) {
	if err := validateURL(urlStr, b.config.DenyPrivateIPs); err != nil {
		return nil, "", entity.NewSkipArticle("fetchBytes", feedID, urlStr, 0, err)
	}
	reqCtx, cancel := context.WithTimeout(ctx, b.config.Timeout)
	defer cancel()

	if err := b.rateLimiter.Allow(reqCtx, urlStr); err != nil {
		return nil, "", entity.NewTransient("fetchBytes", feedID, urlStr, fmt.Errorf("rate limit wait: %w", err))
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "YanaBot/1.0")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, "", classifyTransportError("fetchBytes", feedID, urlStr, 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, "", classifyTransportError("fetchBytes", feedID, urlStr, resp.StatusCode,
			&httpStatusError{StatusCode: resp.StatusCode, Status: resp.Status})
	}

	limited := io.LimitReader(resp.Body, b.config.MaxBodySize+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, "", fmt.Errorf("read response body: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}
