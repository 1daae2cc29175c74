package worker

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter paces outbound requests per host. Every host starts on the
// configured budget; a robots.txt Crawl-delay can only slow a host down.
type Limiter struct {
	mu    sync.Mutex
	hosts map[string]*hostPace
	limit rate.Limit
	burst int
}

type hostPace struct {
	bucket     *rate.Limiter
	crawlDelay time.Duration
}

// NewLimiter creates a limiter allowing requestsPerSecond with the given burst
// per host; a non-positive rate means unpaced
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &Limiter{hosts: make(map[string]*hostPace), limit: limit, burst: burst}
}

// Wait blocks until rawURL's host may be requested again
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	host, err := hostOf(rawURL)
	if err != nil {
		return err
	}
	l.mu.Lock()
	bucket := l.pace(host).bucket
	l.mu.Unlock()
	return bucket.Wait(ctx)
}

// ApplyCrawlDelay slows rawURL's host to one request per delay when that is
// stricter than its current pace. It reports whether the pace changed.
func (l *Limiter) ApplyCrawlDelay(rawURL string, delay time.Duration) (bool, error) {
	if delay <= 0 {
		return false, nil
	}
	host, err := hostOf(rawURL)
	if err != nil {
		return false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	p := l.pace(host)
	if delay <= p.crawlDelay {
		return false, nil
	}
	p.crawlDelay = delay
	every := rate.Every(delay)
	if p.bucket.Limit() == rate.Inf {
		p.bucket = rate.NewLimiter(every, 1)
		return true, nil
	}
	if every < p.bucket.Limit() {
		// Token state carries over; no fresh burst
		p.bucket.SetLimit(every)
		p.bucket.SetBurst(1)
		return true, nil
	}
	return false, nil
}

// pace returns host's state, creating it on first use; l.mu must be held
func (l *Limiter) pace(host string) *hostPace {
	p, ok := l.hosts[host]
	if !ok {
		p = &hostPace{bucket: rate.NewLimiter(l.limit, l.burst)}
		l.hosts[host] = p
	}
	return p
}

// hostOf returns the lowercased host[:port] of a URL
func hostOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", fmt.Errorf("limiter: no host in %q", rawURL)
	}
	return strings.ToLower(u.Host), nil
}
