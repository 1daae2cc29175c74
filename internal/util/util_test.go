package util

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

func TestRobotsChecker_Check(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			atomic.AddInt32(&hits, 1)
			fmt.Fprint(w, "User-agent: wcagscan\nDisallow: /private\nCrawl-delay: 2\n\nUser-agent: *\nDisallow: /\n")
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	rc := NewRobotsChecker("wcagscan/0.1 (+https://example.com)", server.Client(), time.Minute)

	d, err := rc.Check(context.Background(), server.URL+"/public/page")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !d.Allowed || !d.Checked {
		t.Errorf("expected allowed and checked, got %+v", d)
	}
	if d.CrawlDelay != 2*time.Second {
		t.Errorf("expected crawl delay 2s, got %v", d.CrawlDelay)
	}

	d, err = rc.Check(context.Background(), server.URL+"/private/x")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if d.Allowed {
		t.Error("expected /private to be disallowed")
	}

	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("expected robots.txt fetched once, got %d", n)
	}
}

func TestRobotsChecker_MissingRobotsAllows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	rc := NewRobotsChecker("wcagscan", server.Client(), time.Minute)
	d, err := rc.Check(context.Background(), server.URL+"/anything")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !d.Allowed {
		t.Error("expected missing robots.txt to allow access")
	}
}

func TestRobotsChecker_UnreachableAllows(t *testing.T) {
	rc := NewRobotsChecker("wcagscan", &http.Client{Timeout: 200 * time.Millisecond}, time.Minute)
	d, err := rc.Check(context.Background(), "http://127.0.0.1:1/page")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !d.Allowed || d.Checked {
		t.Errorf("expected default-allow without check, got %+v", d)
	}

	if _, err := rc.Check(context.Background(), "ftp://example.com/"); err == nil {
		t.Error("expected error for non-http scheme")
	}
}

func TestNormalizeUserAgent(t *testing.T) {
	if got := NormalizeUserAgent("wcagscan/0.1 (+https://x)"); got != "wcagscan" {
		t.Errorf("got %q", got)
	}
	if got := NormalizeUserAgent(""); got != "" {
		t.Errorf("got %q", got)
	}
}

func TestNewProxyFunc_NoProxyBypass(t *testing.T) {
	fn := NewProxyFunc("http://proxy:3128", "http://sproxy:3128", "localhost,.internal")

	cases := []struct {
		target string
		want   string
	}{
		{"http://example.com/", "http://proxy:3128"},
		{"https://example.com/", "http://sproxy:3128"},
		{"http://localhost:8080/", ""},
		{"https://api.internal/", ""},
	}
	for _, c := range cases {
		u, _ := url.Parse(c.target)
		got, err := fn(&http.Request{URL: u})
		if err != nil {
			t.Fatalf("proxy func error: %v", err)
		}
		gotStr := ""
		if got != nil {
			gotStr = got.String()
		}
		if gotStr != c.want {
			t.Errorf("%s: expected proxy %q, got %q", c.target, c.want, gotStr)
		}
	}
}

func TestNewTransport_Defaults(t *testing.T) {
	tr := NewTransport(TransportOptions{InsecureTLS: true})
	if tr.TLSHandshakeTimeout != 5*time.Second {
		t.Errorf("expected default connect timeout, got %v", tr.TLSHandshakeTimeout)
	}
	if tr.TLSClientConfig == nil || !tr.TLSClientConfig.InsecureSkipVerify {
		t.Error("expected insecure TLS config")
	}
}
