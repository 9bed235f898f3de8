package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/stealth"

	"yana/internal/domain/entity"
)

// BrowserBackend fetches HTML through a headless browser when a site needs
// JS rendering or a site-specific waitForSelector. The browser process is
// a singleton; pages are acquired from a bounded pool and always released.
type BrowserBackend struct {
	browser *rod.Browser
	pages   chan struct{} // semaphore bounding concurrent pages
	config  Config
}

func NewBrowserBackend(config Config) (*BrowserBackend, error) {
	browser := rod.New()
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect headless browser: %w", err)
	}
	poolSize := config.BrowserPoolSize
	if poolSize <= 0 {
		poolSize = 4
	}
	return &BrowserBackend{
		browser: browser,
		pages:   make(chan struct{}, poolSize),
		config:  config,
	}, nil
}

// Close releases the singleton browser process.
func (b *BrowserBackend) Close() error {
	return b.browser.Close()
}

// FetchHTML navigates to urlStr in a stealth-mode page, optionally waiting
// for opts.WaitForSelector, and returns the rendered document HTML. The
// page is closed on every exit path regardless of success.
func (b *BrowserBackend) FetchHTML(ctx context.Context, feedID int64, urlStr string, opts FetchOptions) (string, error) {
	if err := validateURL(urlStr, b.config.DenyPrivateIPs); err != nil {
		return "", entity.NewSkipArticle("fetchHTML", feedID, urlStr, 0, err)
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = b.config.Timeout
	}

	select {
	case b.pages <- struct{}{}:
	case <-ctx.Done():
		return "", entity.NewTransient("fetchHTML", feedID, urlStr, ctx.Err())
	}
	defer func() { <-b.pages }()

	page, err := stealth.Page(b.browser)
	if err != nil {
		return "", classifyTransportError("fetchHTML", feedID, urlStr, 0, fmt.Errorf("open stealth page: %w", err))
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			slog.Warn("failed to close browser page", slog.String("url", urlStr), slog.Any("error", closeErr))
		}
	}()

	pageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	page = page.Context(pageCtx)

	if err := page.Navigate(urlStr); err != nil {
		return "", classifyTransportError("fetchHTML", feedID, urlStr, 0, err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", classifyTransportError("fetchHTML", feedID, urlStr, 0, err)
	}

	if opts.WaitForSelector != "" {
		selTimeout := opts.SelectorTimeout
		if selTimeout == 0 {
			selTimeout = 10 * time.Second
		}
		selCtx, selCancel := context.WithTimeout(ctx, selTimeout)
		el, err := page.Context(selCtx).Element(opts.WaitForSelector)
		selCancel()
		if err != nil {
			slog.Warn("waitForSelector not found, proceeding with current DOM",
				slog.String("url", urlStr), slog.String("selector", opts.WaitForSelector))
		} else {
			_ = el.WaitVisible()
		}
	}

	html, err := page.HTML()
	if err != nil {
		return "", classifyTransportError("fetchHTML", feedID, urlStr, 0, err)
	}
	return html, nil
}
