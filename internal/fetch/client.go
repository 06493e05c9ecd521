package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/136.0.0.0 Safari/537.36"

// Options configure a Client.
type Options struct {
	// RequestDelay is how long scrapers should pause between requests to
	// the same site. The client only carries the value; throttling is the
	// scraper's responsibility.
	RequestDelay time.Duration
	// RequestTimeout bounds every outbound request. This is the one hard
	// cancellation boundary during shutdown.
	RequestTimeout time.Duration
	// CacheTTL is the time-to-live for cached responses; zero disables
	// caching entirely.
	CacheTTL time.Duration
	// CacheCapacity is the max resident cache entries.
	CacheCapacity int
	// CachePath, when set, is loaded at startup and written by Save.
	CachePath string
	UserAgent string
}

// Client wraps an http.Client with the TTL response cache. One Client is
// shared by reference across all scraper goroutines; it is safe for
// concurrent use.
type Client struct {
	httpClient *http.Client
	cache      *cache
	userAgent  string
	delay      time.Duration
	logger     *zap.Logger
}

// NewClient builds a Client from the given options, preloading the cache
// from disk if a path is configured.
func NewClient(opts Options, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	capacity := opts.CacheCapacity
	if capacity <= 0 {
		capacity = 64
	}
	return &Client{
		httpClient: &http.Client{Timeout: opts.RequestTimeout},
		cache:      newCache(opts.CacheTTL, capacity, opts.CachePath, logger),
		userAgent:  ua,
		delay:      opts.RequestDelay,
		logger:     logger,
	}
}

// RequestDelay returns the configured inter-request pause.
func (c *Client) RequestDelay() time.Duration {
	return c.delay
}

// GetAsString performs a GET through the cache and returns the body as
// text. A hit within TTL returns the stored bytes without any network
// call; a miss or expired entry fetches, stores and returns. Network
// failures propagate; there is no retry.
func (c *Client) GetAsString(ctx context.Context, url string) (string, error) {
	key := fingerprint(http.MethodGet, url)
	if body, ok := c.cache.get(key); ok {
		cacheHits.Inc()
		c.logger.Debug("cache hit", zap.String("url", url))
		return string(body), nil
	}
	cacheMisses.Inc()

	body, err := c.fetch(ctx, url)
	if err != nil {
		return "", err
	}
	c.cache.put(key, body)
	return string(body), nil
}

// Save flushes the cache to its configured path, if any.
func (c *Client) Save() error {
	return c.cache.save()
}

// CacheLen reports the resident cache entry count.
func (c *Client) CacheLen() int {
	return c.cache.len()
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	requestsTotal.Inc()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		requestErrors.Inc()
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		requestErrors.Inc()
		return nil, fmt.Errorf("get %s: unexpected status %s", url, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		requestErrors.Inc()
		return nil, fmt.Errorf("read body of %s: %w", url, err)
	}
	return body, nil
}

// fingerprint derives the cache key for a request.
func fingerprint(method, url string) string {
	return method + " " + url
}
