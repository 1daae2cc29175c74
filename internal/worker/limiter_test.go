package worker

import (
	"context"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.burst != 5 || limiter.limit != rate.Limit(10) {
		t.Errorf("unexpected budget: %v/%d", limiter.limit, limiter.burst)
	}

	l2 := NewLimiter(0, -1)
	if l2.burst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.burst)
	}
	if l2.limit != rate.Inf {
		t.Errorf("expected unpaced limiter for zero rate, got %v", l2.limit)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "http://example.com/foo"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if err := limiter.Wait(ctx, "http://google.com"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if err := limiter.Wait(ctx, "/relative/path"); err == nil {
		t.Error("expected error for URL without host")
	}
}

func TestLimiter_HostsAreCaseInsensitive(t *testing.T) {
	limiter := NewLimiter(1, 1)
	ctx := context.Background()
	if err := limiter.Wait(ctx, "http://Example.COM/a"); err != nil {
		t.Fatal(err)
	}
	if err := limiter.Wait(ctx, "http://example.com/b"); err != nil {
		t.Fatal(err)
	}
	if len(limiter.hosts) != 1 {
		t.Errorf("expected 1 host, got %d", len(limiter.hosts))
	}
}

func TestLimiter_WaitRespectsContext(t *testing.T) {
	limiter := NewLimiter(0.01, 1)
	if err := limiter.Wait(context.Background(), "http://example.com"); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := limiter.Wait(ctx, "http://example.com"); err == nil {
		t.Error("expected context error with the bucket empty")
	}
}

func TestLimiter_ApplyCrawlDelay(t *testing.T) {
	limiter := NewLimiter(10, 5)
	const page = "http://slow.example/page"

	changed, err := limiter.ApplyCrawlDelay(page, 2*time.Second)
	if err != nil || !changed {
		t.Fatalf("ApplyCrawlDelay = %v, %v", changed, err)
	}
	p := limiter.hosts["slow.example"]
	if p.bucket.Limit() != rate.Every(2*time.Second) || p.bucket.Burst() != 1 {
		t.Errorf("pace = %v/%d", p.bucket.Limit(), p.bucket.Burst())
	}

	// A shorter delay never speeds the host back up
	if changed, _ := limiter.ApplyCrawlDelay(page, time.Second); changed {
		t.Error("shorter crawl delay should not change the pace")
	}
	if p.bucket.Limit() != rate.Every(2*time.Second) {
		t.Errorf("pace relaxed to %v", p.bucket.Limit())
	}

	// Other hosts keep the default budget
	if err := limiter.Wait(context.Background(), "http://fast.example"); err != nil {
		t.Fatal(err)
	}
	if got := limiter.hosts["fast.example"].bucket.Limit(); got != rate.Limit(10) {
		t.Errorf("fast host pace = %v", got)
	}
}

func TestLimiter_CrawlDelayLooserThanBudget(t *testing.T) {
	limiter := NewLimiter(0.1, 1) // one request every 10s
	changed, err := limiter.ApplyCrawlDelay("http://example.com", time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Error("a crawl delay looser than the configured budget should not change the pace")
	}
	if changed, _ := limiter.ApplyCrawlDelay("http://example.com", 0); changed {
		t.Error("zero delay is a no-op")
	}
}

func TestLimiter_CrawlDelayPacesRequests(t *testing.T) {
	limiter := NewLimiter(100, 5)
	ctx := context.Background()
	if _, err := limiter.ApplyCrawlDelay("http://example.com", 150*time.Millisecond); err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	for i := 0; i < 2; i++ {
		if err := limiter.Wait(ctx, "http://example.com/x"); err != nil {
			t.Fatal(err)
		}
	}
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("second request should wait for the crawl delay, took %v", elapsed)
	}
}

func TestHostOf(t *testing.T) {
	host, err := hostOf("http://Example.com:8080/foo")
	if err != nil {
		t.Fatalf("hostOf failed: %v", err)
	}
	if host != "example.com:8080" {
		t.Errorf("expected example.com:8080, got %s", host)
	}

	if _, err := hostOf("::invalid"); err == nil {
		t.Errorf("expected error for invalid URL")
	}
}

func TestLimiter_CrawlDelayOnUnpacedLimiter(t *testing.T) {
	limiter := NewLimiter(0, 1)
	changed, err := limiter.ApplyCrawlDelay("http://example.com", time.Second)
	if err != nil || !changed {
		t.Fatalf("ApplyCrawlDelay = %v, %v", changed, err)
	}
	if got := limiter.hosts["example.com"].bucket.Limit(); got != rate.Every(time.Second) {
		t.Errorf("pace = %v", got)
	}
}
