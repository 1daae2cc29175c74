package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ppiankov/wcagscan/internal/cache"
	"github.com/ppiankov/wcagscan/internal/model"
	"github.com/ppiankov/wcagscan/internal/util"
	"github.com/ppiankov/wcagscan/internal/worker"
)

// ErrRobotsDisallowed is returned when robots.txt forbids fetching the page
var ErrRobotsDisallowed = errors.New("fetch disallowed by robots.txt")

// fetchSleepFunc waits out a retry backoff unless ctx ends first; swapped out in tests
var fetchSleepFunc = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Fetcher fetches HTML content from URLs
type Fetcher struct {
	httpClient  *http.Client
	userAgent   string
	maxBytes    int64
	maxAttempts int
	robots      *util.RobotsChecker
	pages       *cache.PageCache
	limiter     *worker.Limiter
	logger      *slog.Logger
	inflight    singleflight.Group // concurrent audits of one URL share a fetch
}

// FetcherOption customises a Fetcher
type FetcherOption func(*Fetcher)

// WithRobots gates every fetch on robots.txt
func WithRobots(r *util.RobotsChecker) FetcherOption {
	return func(f *Fetcher) { f.robots = r }
}

// WithPageCache serves repeated fetches from c
func WithPageCache(c *cache.PageCache) FetcherOption {
	return func(f *Fetcher) { f.pages = c }
}

// WithLimiter paces requests per host
func WithLimiter(l *worker.Limiter) FetcherOption {
	return func(f *Fetcher) { f.limiter = l }
}

// WithMaxAttempts bounds retries of transient failures
func WithMaxAttempts(n int) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxAttempts = n
		}
	}
}

// WithLogger sets the fetch logger
func WithLogger(l *slog.Logger) FetcherOption {
	return func(f *Fetcher) { f.logger = l }
}

// NewFetcher creates a new Fetcher with the given configuration
func NewFetcher(timeout time.Duration, userAgent string, maxBytes int64, transport util.TransportOptions, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: util.NewTransport(transport),
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("stopped after 5 redirects")
				}
				return nil
			},
		},
		userAgent:   userAgent,
		maxBytes:    maxBytes,
		maxAttempts: 3,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// HTTPClient exposes the fetcher's client so robots lookups share its transport
func (f *Fetcher) HTTPClient() *http.Client {
	return f.httpClient
}

// FetchResult contains the fetched HTML and metadata
type FetchResult struct {
	HTML     string
	Meta     model.FetchMeta
	FinalURL string
}

// FetchWithRetry gates on robots.txt, consults the page cache and then fetches,
// retrying transient failures with exponential backoff
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error) {
	if entry, ok := f.pages.Get(rawURL); ok {
		f.logger.Debug("page cache hit", "url", rawURL)
		return fromEntry(entry), nil
	}

	v, err, shared := f.inflight.Do(rawURL, func() (any, error) {
		return f.fetchUncached(ctx, rawURL)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		f.logger.Debug("joined in-flight fetch", "url", rawURL)
	}
	res := *v.(*FetchResult)
	return &res, nil
}

func (f *Fetcher) fetchUncached(ctx context.Context, rawURL string) (*FetchResult, error) {
	if f.robots != nil {
		decision, err := f.robots.Check(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("robots: %w", err)
		}
		if !decision.Allowed {
			return nil, fmt.Errorf("%w: %s", ErrRobotsDisallowed, rawURL)
		}
		if f.limiter != nil && decision.CrawlDelay > 0 {
			changed, err := f.limiter.ApplyCrawlDelay(rawURL, decision.CrawlDelay)
			if err != nil {
				return nil, err
			}
			if changed {
				f.logger.Debug("host paced by robots crawl-delay", "url", rawURL, "delay", decision.CrawlDelay)
			}
		}
	}

	var lastErr error
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx, rawURL); err != nil {
				return nil, err
			}
		}

		result, err := f.Fetch(ctx, rawURL)
		if err == nil {
			result.Meta.Attempts = attempt
			if cerr := f.pages.Put(toEntry(rawURL, result)); cerr != nil {
				f.logger.Warn("page cache write failed", "url", rawURL, "error", cerr)
			}
			return result, nil
		}
		lastErr = err

		if !isRetryableFetchError(err) || attempt == f.maxAttempts || ctx.Err() != nil {
			break
		}
		backoff := time.Duration(1<<(attempt-1)) * time.Second
		f.logger.Debug("retrying fetch", "url", rawURL, "attempt", attempt, "backoff", backoff, "error", err)
		if err := fetchSleepFunc(ctx, backoff); err != nil {
			return nil, fmt.Errorf("retry backoff: %w", err)
		}
	}
	return nil, lastErr
}

// Fetch performs one GET of rawURL
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &FetchResult{
		HTML: string(body),
		Meta: model.FetchMeta{
			StatusCode:    resp.StatusCode,
			ContentType:   resp.Header.Get("Content-Type"),
			ContentLength: len(body),
		},
		FinalURL: resp.Request.URL.String(),
	}, nil
}

// isRetryableFetchError reports transient failures: 5xx, 429 and transport errors
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, "unexpected status: "); ok {
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			return false
		}
		code, _ := strconv.Atoi(fields[0])
		return code == http.StatusTooManyRequests || code >= 500
	}
	return strings.HasPrefix(msg, "fetch: ")
}

func toEntry(rawURL string, r *FetchResult) *cache.PageEntry {
	return &cache.PageEntry{
		URL:         rawURL,
		FinalURL:    r.FinalURL,
		StatusCode:  r.Meta.StatusCode,
		ContentType: r.Meta.ContentType,
		Body:        []byte(r.HTML),
		FetchedAt:   time.Now().UTC(),
	}
}

func fromEntry(e *cache.PageEntry) *FetchResult {
	return &FetchResult{
		HTML: string(e.Body),
		Meta: model.FetchMeta{
			StatusCode:    e.StatusCode,
			ContentType:   e.ContentType,
			ContentLength: len(e.Body),
			FromCache:     true,
		},
		FinalURL: e.FinalURL,
	}
}
