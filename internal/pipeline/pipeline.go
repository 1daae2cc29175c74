// Package pipeline turns a URL into a scored audit report: fetch, parse,
// evaluate, aggregate.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/wcagscan/internal/audit"
	"github.com/ppiankov/wcagscan/internal/browser"
	"github.com/ppiankov/wcagscan/internal/cache"
	"github.com/ppiankov/wcagscan/internal/check"
	"github.com/ppiankov/wcagscan/internal/criteria"
	"github.com/ppiankov/wcagscan/internal/llm"
	"github.com/ppiankov/wcagscan/internal/model"
	"github.com/ppiankov/wcagscan/internal/page"
	"github.com/ppiankov/wcagscan/internal/score"
	"github.com/ppiankov/wcagscan/internal/util"
	"github.com/ppiankov/wcagscan/internal/worker"
)

// Request is one audit request as accepted by the CLI and the REST server
type Request struct {
	URL   string     `json:"url" validate:"required,http_url"`
	Codes []string   `json:"codes,omitempty"`
	Mode  model.Mode `json:"mode,omitempty"`
	UseAI bool       `json:"use_ai,omitempty"`
}

// PageFetcher retrieves the HTML for an audit
type PageFetcher interface {
	FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error)
}

// Auditor runs complete audits
type Auditor struct {
	fetcher PageFetcher
	engine  *audit.Engine
	scorer  *score.Scorer
	logger  *slog.Logger
	closers []func() error
}

// NewAuditor assembles an auditor from its parts
func NewAuditor(fetcher PageFetcher, engine *audit.Engine, scorer *score.Scorer, logger *slog.Logger) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auditor{fetcher: fetcher, engine: engine, scorer: scorer, logger: logger}
}

// New builds the full production stack from configuration: fetcher with
// robots gate, page cache and limiter; headless renderer; advisory service.
func New(cfg model.Config, logger *slog.Logger) (*Auditor, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := []FetcherOption{
		WithMaxAttempts(cfg.HTTP.MaxAttempts),
		WithLimiter(worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)),
		WithLogger(logger),
	}
	if cfg.Cache.Enabled {
		store := cache.NewLayeredCache(cfg.Cache.MemoryTTL, util.ExpandHome(cfg.Cache.Dir), cfg.Cache.DiskTTL)
		opts = append(opts, WithPageCache(cache.NewPageCache(store, cfg.Cache.DiskTTL)))
	}
	fetcher := NewFetcher(cfg.HTTP.Timeout, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyBytes, util.TransportOptions{
		ConnectTimeout: cfg.HTTP.ConnectTimeout,
		InsecureTLS:    cfg.HTTP.InsecureTLS,
		HTTPProxy:      cfg.HTTP.HTTPProxy,
		HTTPSProxy:     cfg.HTTP.HTTPSProxy,
		NoProxy:        cfg.HTTP.NoProxy,
	}, opts...)
	if cfg.HTTP.RespectRobots {
		WithRobots(util.NewRobotsChecker(cfg.HTTP.UserAgent, fetcher.HTTPClient(), time.Hour))(fetcher)
	}

	engineOpts := audit.Options{
		PreloadTimeout: cfg.Render.PreloadTimeout,
		LazyTimeout:    cfg.Render.LazyTimeout,
		ExcerptBytes:   cfg.LLM.ExcerptBytes,
		Workers:        cfg.Concurrency.Workers,
		Logger:         logger,
	}

	a := &Auditor{fetcher: fetcher, scorer: score.NewScorer(score.ConfigFromModel(cfg.Scoring)), logger: logger}

	if cfg.Render.Enabled {
		mgr := browser.NewManager(cfg.Render.RemoteURL, cfg.Render.BrowserBin, logger)
		engineOpts.Renderer = browser.NewRenderer(mgr, cfg.Render, logger)
		a.closers = append(a.closers, mgr.Close)
	}

	advisor, err := llm.NewAdvisor(llm.ConfigFromModel(cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("advisory service: %w", err)
	}
	if advisor.IsEnabled() {
		engineOpts.Advisor = advisor
		logger.Debug("advisory service enabled", "provider", advisor.ProviderName(), "model", cfg.LLM.Model)
	}

	a.engine = audit.NewEngine(criteria.DefaultRegistry(), engineOpts)
	return a, nil
}

// Engine exposes the evaluation engine, mainly for its capability matrix
func (a *Auditor) Engine() *audit.Engine {
	return a.engine
}

// Audit fetches the page and produces a complete report
func (a *Auditor) Audit(ctx context.Context, req Request) (*model.Report, error) {
	mode, err := model.ParseMode(string(req.Mode))
	if err != nil {
		return nil, err
	}
	started := time.Now()
	log := a.logger.With("url", req.URL, "mode", mode)

	fetched, err := a.fetcher.FetchWithRetry(ctx, req.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	log.Debug("fetched page", "status", fetched.Meta.StatusCode, "bytes", fetched.Meta.ContentLength, "cached", fetched.Meta.FromCache)

	doc, err := page.Parse(fetched.HTML, fetched.FinalURL)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	ar := audit.Request{URL: fetched.FinalURL, Codes: req.Codes, Mode: mode, UseAI: req.UseAI}
	res, err := a.engine.Evaluate(ctx, doc, ar)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}

	sc := a.scorer.Calculate(res.Outcomes)
	sum := audit.Summarize(res.Outcomes, a.engine.Matrix(), ar)

	var richest page.Context = doc
	if res.Rendered != nil {
		richest = res.Rendered
	}

	report := &model.Report{
		ID:              uuid.NewString(),
		URL:             req.URL,
		FinalURL:        fetched.FinalURL,
		Mode:            mode,
		UseAI:           req.UseAI,
		StartedAt:       started.UTC(),
		StatusCode:      fetched.Meta.StatusCode,
		ElapsedMS:       time.Since(started).Milliseconds(),
		PageTitle:       page.DisplayTitle(richest),
		Lang:            richest.Lang(),
		FetchMeta:       fetched.Meta,
		Score:           sc.Value,
		WCAG:            sum.WCAG,
		Results:         res.Outcomes,
		ScoreBreakdown:  sc.Breakdown,
		Formula:         sc.Data,
		RawCodes:        sum.RawCodes,
		RenderedCodes:   sum.RenderedCodes,
		AICodes:         sum.AICodes,
		ModeEffective:   sum.ModeEffective,
		Skipped:         res.Skipped,
		RenderError:     res.RenderError,
		VerdictCounts:   sum.VerdictCounts,
		Recommendations: sum.Recommendations,
	}
	audit.ObserveReport(report)
	log.Info("audit complete", "id", report.ID, "criteria", len(res.Outcomes), "mode_effective", report.ModeEffective, "elapsed_ms", report.ElapsedMS)
	return report, nil
}

// Close releases the headless browser, if one was started
func (a *Auditor) Close() error {
	var err error
	for _, c := range a.closers {
		err = errors.Join(err, c())
	}
	return err
}

var _ check.Advisor = (*llm.Advisor)(nil)
