package worker

import (
	"bufio"
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/wcagscan/internal/model"
)

// AuditFunc audits one URL
type AuditFunc func(ctx context.Context, url string) (*model.Report, error)

// AuditJob represents one URL audit
type AuditJob struct {
	URL   string
	Audit AuditFunc
}

// Execute runs the audit
func (j *AuditJob) Execute(ctx context.Context) Result {
	start := time.Now()
	report, err := j.Audit(ctx, j.URL)
	return &AuditResult{URL: j.URL, Report: report, Error: err, Elapsed: time.Since(start)}
}

// AuditResult represents the result of an audit job
type AuditResult struct {
	URL     string
	Report  *model.Report
	Error   error
	Elapsed time.Duration
}

// GetError returns the error from the audit result
func (r *AuditResult) GetError() error {
	return r.Error
}

// BatchRunner audits URLs one after another. Audits share one browser and
// hit sites under a per-host limiter, so the batch itself stays sequential.
type BatchRunner struct {
	audit    AuditFunc
	progress func(done, total int, r *AuditResult)
}

// NewBatchRunner creates a batch runner
func NewBatchRunner(audit AuditFunc) *BatchRunner {
	return &BatchRunner{audit: audit}
}

// OnProgress registers a callback invoked after each URL
func (b *BatchRunner) OnProgress(fn func(done, total int, r *AuditResult)) *BatchRunner {
	b.progress = fn
	return b
}

// ProcessURLs audits urls in order. URLs not reached before ctx ends are
// reported with the context error.
func (b *BatchRunner) ProcessURLs(ctx context.Context, urls []string) []*AuditResult {
	results := make([]*AuditResult, 0, len(urls))
	for i, u := range urls {
		var res *AuditResult
		if err := ctx.Err(); err != nil {
			res = &AuditResult{URL: u, Error: err}
		} else {
			res = (&AuditJob{URL: u, Audit: b.audit}).Execute(ctx).(*AuditResult)
		}
		results = append(results, res)
		if b.progress != nil {
			b.progress(i+1, len(urls), res)
		}
	}
	return results
}

// ProcessFile reads URLs from a file and audits them
func (b *BatchRunner) ProcessFile(ctx context.Context, filePath string) ([]*AuditResult, error) {
	urls, err := ReadURLsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read URLs: %w", err)
	}
	return b.ProcessURLs(ctx, urls), nil
}

// ReadURLsFromFile reads http(s) URLs from a file, one per line.
// Blank lines and # comments are skipped; duplicates keep their first position.
func ReadURLsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		u, err := url.Parse(line)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("line %d: not an http(s) URL: %q", lineNo, line)
		}

		if !seen[line] {
			seen[line] = true
			urls = append(urls, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return urls, nil
}

// Summarize counts successes and failures
func Summarize(results []*AuditResult) (ok, failed int) {
	for _, r := range results {
		if r.Error != nil {
			failed++
		} else {
			ok++
		}
	}
	return ok, failed
}
