package fetcher

import "time"

// Config holds process-wide fetcher settings.
type Config struct {
	Timeout time.Duration // default per-request timeout
	MaxRedirects int // default: follow <=10
	MaxBodySize int64 // default 10MB
	DenyPrivateIPs bool
	BrowserPoolSize int // max concurrent headless-browser pages
	PerHostRequestsPerSecond float64 // outbound politeness limit, per host
	PerHostBurst int
}

func DefaultConfig() Config {
	return Config{
		Timeout: 30 * time.Second,
		MaxRedirects: 10,
		MaxBodySize: 10 * 1024 * 1024,
		DenyPrivateIPs: true,
		BrowserPoolSize: 4,
		PerHostRequestsPerSecond: 2,
		PerHostBurst: 3,
	}
}

// FetchOptions customizes a single fetchHTML call.
type FetchOptions struct {
	Method string
	Headers map[string]string
	Timeout time.Duration // 0 = use Config.Timeout
	WaitForSelector string // browser backend only
	SelectorTimeout time.Duration
}
