package pipeline

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nmorozova/affin/internal/cache"
	"github.com/nmorozova/affin/internal/model"
	"github.com/nmorozova/affin/internal/util"
	"github.com/nmorozova/affin/internal/worker"
)

// fetchSleepFunc is replaceable in tests to avoid real backoff waits.
var fetchSleepFunc = time.Sleep

const fetchMaxAttempts = 3

// Fetcher downloads dataset files over HTTP
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64

	// Optional politeness and caching layers, wired by the pipeline.
	robots  *util.RobotsChecker
	limiter *worker.Limiter
	store   cache.Cache
}

// NewFetcher creates a new Fetcher with the given configuration
func NewFetcher(timeout time.Duration, userAgent string, maxBytes int64, insecure bool, httpProxy, httpsProxy, noProxy string) *Fetcher {
	transport := &http.Transport{
		Proxy: util.NewProxyFunc(httpProxy, httpsProxy, noProxy),
	}
	if insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: userAgent,
		maxBytes:  maxBytes,
	}
}

// EnableRobots makes the fetcher honor robots.txt before downloading.
func (f *Fetcher) EnableRobots(checker *util.RobotsChecker) {
	f.robots = checker
}

// EnableRateLimit applies a per-host rate limit before downloading.
func (f *Fetcher) EnableRateLimit(limiter *worker.Limiter) {
	f.limiter = limiter
}

// EnableCache serves repeat downloads of the same URL from the cache.
func (f *Fetcher) EnableCache(store cache.Cache) {
	f.store = store
}

// FetchResult contains the downloaded bytes and metadata
type FetchResult struct {
	Data     []byte
	Meta     model.FetchMeta
	FinalURL string
}

// Fetch retrieves the dataset from the given URL
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	if f.store != nil {
		if data, found := f.store.Get(cache.Key(rawURL)); found {
			return &FetchResult{
				Data:     data,
				Meta:     model.FetchMeta{FromCache: true},
				FinalURL: rawURL,
			}, nil
		}
	}

	var crawlDelay time.Duration
	if f.robots != nil {
		allowed, delay, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("robots check: %w", err)
		}
		if !allowed {
			return nil, fmt.Errorf("robots.txt disallows fetching %s", rawURL)
		}
		crawlDelay = delay
	}

	if f.limiter != nil {
		if err := f.limiter.WaitWithDelay(ctx, rawURL, crawlDelay); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/csv,application/csv,text/html;q=0.9,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	meta := model.FetchMeta{
		StatusCode:   resp.StatusCode,
		ContentType:  resp.Header.Get("Content-Type"),
		LastModified: resp.Header.Get("Last-Modified"),
		ETag:         resp.Header.Get("ETag"),
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	limitedReader := io.LimitReader(resp.Body, f.maxBytes)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if f.store != nil {
		_ = f.store.Set(cache.Key(rawURL), body, 0)
	}

	return &FetchResult{
		Data:     body,
		Meta:     meta,
		FinalURL: resp.Request.URL.String(),
	}, nil
}

// FetchWithRetry fetches the URL, retrying transient failures up to
// fetchMaxAttempts with a linear backoff.
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error) {
	var lastErr error

	for attempt := 1; attempt <= fetchMaxAttempts; attempt++ {
		result, err := f.Fetch(ctx, rawURL)
		if err == nil {
			return result, nil
		}

		lastErr = err
		if !isRetryableFetchError(err) {
			return nil, err
		}
		if attempt < fetchMaxAttempts {
			fetchSleepFunc(time.Duration(attempt) * 500 * time.Millisecond)
		}
	}

	return nil, lastErr
}

// isRetryableFetchError reports whether the fetch failure is worth
// retrying: transport-level errors and 429/5xx statuses.
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()
	if strings.HasPrefix(msg, "fetch:") {
		return true
	}
	if strings.HasPrefix(msg, "unexpected status:") {
		for _, code := range []string{"429", "500", "502", "503", "504"} {
			if strings.Contains(msg, "status: "+code) {
				return true
			}
		}
	}
	return false
}
