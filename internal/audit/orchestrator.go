// Package audit runs criterion checks against a page, deciding per criterion
// which evaluation passes to run and which outcome survives.
package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ppiankov/wcagscan/internal/check"
	"github.com/ppiankov/wcagscan/internal/model"
	"github.com/ppiankov/wcagscan/internal/page"
	"github.com/ppiankov/wcagscan/internal/worker"
)

// Options configures an Engine
type Options struct {
	Matrix         *Matrix       // Defaults to DefaultMatrix()
	Normalizer     *Normalizer   // Defaults to the built-in zero-sample table
	Renderer       Renderer      // nil disables rendered passes
	Advisor        check.Advisor // nil disables AI suggestions
	PreloadTimeout time.Duration // Timeout for the pre-warmed render
	LazyTimeout    time.Duration // Timeout for a render first requested mid-run
	ExcerptBytes   int           // Cap on the HTML excerpt handed to AI passes
	Workers        int           // >1 evaluates criteria concurrently
	Logger         *slog.Logger
}

// Request selects what one run evaluates
type Request struct {
	URL   string
	Codes []string // Empty means every registered criterion
	Mode  model.Mode
	UseAI bool // AI opt-in for auto mode
}

// Result is the engine's output for one page
type Result struct {
	Outcomes    []model.Outcome // One per selected code, in registration order
	Skipped     []string        // Requested codes with no registered check
	Rendered    page.Context    // Rendered snapshot when one was acquired
	RenderError string          // Render failure message, if a render was attempted and failed
}

// Engine orchestrates passes over a check registry
type Engine struct {
	registry *check.Registry
	opts     Options
	logger   *slog.Logger
}

// NewEngine creates an engine; zero-valued options get defaults
func NewEngine(registry *check.Registry, opts Options) *Engine {
	if opts.Matrix == nil {
		opts.Matrix = DefaultMatrix()
	}
	if opts.Normalizer == nil {
		opts.Normalizer = NewNormalizer(nil)
	}
	if opts.PreloadTimeout <= 0 {
		opts.PreloadTimeout = 60 * time.Second
	}
	if opts.LazyTimeout <= 0 {
		opts.LazyTimeout = 15 * time.Second
	}
	if opts.ExcerptBytes <= 0 {
		opts.ExcerptBytes = 20000
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Engine{registry: registry, opts: opts, logger: opts.Logger}
}

// Matrix returns the capability table the engine decides with
func (e *Engine) Matrix() *Matrix {
	return e.opts.Matrix
}

// Registry returns the checks the engine runs
func (e *Engine) Registry() *check.Registry {
	return e.registry
}

// run carries per-audit shared state
type run struct {
	req      Request
	static   page.Context
	session  *renderSession
	excerpts *excerptCache
}

// Evaluate produces exactly one normalized outcome per selected registered code
func (e *Engine) Evaluate(ctx context.Context, static page.Context, req Request) (*Result, error) {
	if static == nil {
		return nil, errors.New("audit: static context is required")
	}
	if req.Mode == "" {
		req.Mode = model.ModeAuto
	}
	if _, err := model.ParseMode(string(req.Mode)); err != nil {
		return nil, fmt.Errorf("audit: %w", err)
	}
	if req.URL == "" {
		req.URL = static.URL()
	}

	codes, unknown := e.registry.Select(req.Codes)
	if len(unknown) > 0 {
		e.logger.Warn("audit: skipping criteria without a registered check", "codes", unknown)
	}

	r := &run{
		req:      req,
		static:   static,
		session:  newRenderSession(e.opts.Renderer, req.URL),
		excerpts: &excerptCache{maxBytes: e.opts.ExcerptBytes},
	}

	// Pre-warm the shared rendered snapshot when most criteria will want it
	if e.shouldPrewarm(req) {
		if _, err := r.session.get(ctx, e.opts.PreloadTimeout); err != nil {
			e.logger.Warn("audit: rendered snapshot unavailable, continuing with static passes",
				"url", req.URL, "error", err)
		}
	}

	outcomes, err := e.evaluateAll(ctx, r, codes)
	if err != nil {
		return nil, err
	}

	res := &Result{Outcomes: outcomes, Skipped: unknown}
	if doc, ok := r.session.peek(); ok {
		res.Rendered = doc
	}
	if err := r.session.failure(); err != nil {
		res.RenderError = err.Error()
	}
	return res, nil
}

func (e *Engine) shouldPrewarm(req Request) bool {
	switch req.Mode {
	case model.ModeRendered, model.ModeAI:
		return true
	case model.ModeAuto:
		return req.UseAI
	default:
		return false
	}
}

func (e *Engine) evaluateAll(ctx context.Context, r *run, codes []string) ([]model.Outcome, error) {
	outcomes := make([]model.Outcome, len(codes))

	if e.opts.Workers <= 1 || len(codes) <= 1 {
		for i, code := range codes {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			outcomes[i] = e.evaluateOne(ctx, r, code)
		}
		return outcomes, nil
	}

	jobs := make([]worker.Job, len(codes))
	for i, code := range codes {
		jobs[i] = &criterionJob{engine: e, run: r, index: i, code: code}
	}
	filled := make([]bool, len(codes))
	for _, res := range worker.Run(ctx, e.opts.Workers, jobs) {
		cr := res.(*criterionResult)
		outcomes[cr.index] = cr.outcome
		filled[cr.index] = true
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for i, ok := range filled {
		if !ok {
			outcomes[i] = e.evaluateOne(ctx, r, codes[i])
		}
	}
	return outcomes, nil
}

// criterionJob adapts one criterion evaluation to the worker pool
type criterionJob struct {
	engine *Engine
	run    *run
	index  int
	code   string
}

type criterionResult struct {
	index   int
	outcome model.Outcome
}

func (r *criterionResult) GetError() error { return nil }

func (j *criterionJob) Execute(ctx context.Context) worker.Result {
	return &criterionResult{index: j.index, outcome: j.engine.evaluateOne(ctx, j.run, j.code)}
}

// evaluateOne runs static, then rendered, then AI passes for one criterion.
// Later successful passes supersede earlier outcomes; failed passes only annotate.
func (e *Engine) evaluateOne(ctx context.Context, r *run, code string) model.Outcome {
	c, _ := e.registry.Get(code)
	caps := e.opts.Matrix.Lookup(code)
	log := e.logger.With("code", code)

	// 1. Static pass, with one legacy retry on a contract mismatch
	out, perr := e.staticPass(ctx, c, r.static)
	passTotal.WithLabelValues(string(model.SourceRaw), resultLabel(errOrNil(perr))).Inc()
	if perr != nil {
		log.Warn("audit: static pass failed", "kind", perr.Kind.String(), "error", perr.Err)
		return e.opts.Normalizer.Normalize(contractFailure(code, perr))
	}
	out = out.WithPass(attempt(model.SourceRaw, nil))

	// 2. Rendered pass
	if wantsRendered(r.req.Mode, caps) {
		out = e.renderedPass(ctx, r, c, out, log)
	}

	// 3. AI pass
	if wantsAI(r.req, caps) {
		out = e.aiPass(ctx, r, c, out, log)
	}

	// 4. NA normalization on the survivor
	return e.opts.Normalizer.Normalize(out)
}

func (e *Engine) staticPass(ctx context.Context, c check.Checker, static page.Context) (model.Outcome, *PassError) {
	code := c.Code()
	out, err := invoke(ctx, c, check.Input{Mode: model.ModeRaw, Static: static})
	if errors.Is(err, check.ErrModeUnsupported) {
		if lc, ok := c.(check.LegacyChecker); ok {
			out, err = invokeLegacy(code, lc, static)
		}
	}
	if err == nil {
		out, err = stamp(out, code, model.SourceRaw)
	}
	if err != nil {
		return model.Outcome{}, newPassError(model.SourceRaw, code, err)
	}
	return out, nil
}

func (e *Engine) renderedPass(ctx context.Context, r *run, c check.Checker, prior model.Outcome, log *slog.Logger) model.Outcome {
	code := c.Code()
	rendered, err := r.session.get(ctx, e.opts.LazyTimeout)
	if err == nil {
		var next model.Outcome
		next, err = invoke(ctx, c, check.Input{Mode: model.ModeRendered, Static: r.static, Rendered: rendered})
		if err == nil {
			next, err = stamp(next, code, model.SourceRendered)
		}
		if err == nil {
			passTotal.WithLabelValues(string(model.SourceRendered), "ok").Inc()
			return prior.Supersede(next).WithPass(attempt(model.SourceRendered, nil))
		}
	}

	pe := newPassError(model.SourceRendered, code, err)
	passTotal.WithLabelValues(string(model.SourceRendered), pe.Kind.String()).Inc()
	log.Debug("audit: rendered pass failed, keeping prior outcome", "kind", pe.Kind.String(), "error", pe.Err)
	return prior.WithDetail(model.KeyRenderedRunError, pe.Err.Error()).WithPass(attempt(model.SourceRendered, pe))
}

func (e *Engine) aiPass(ctx context.Context, r *run, c check.Checker, prior model.Outcome, log *slog.Logger) model.Outcome {
	code := c.Code()
	in := check.Input{Mode: model.ModeAI, Static: r.static, Advisor: e.opts.Advisor}
	if rendered, ok := r.session.peek(); ok {
		in.Rendered = rendered
	}
	in.Excerpt = r.excerpts.get(in.Richest())

	next, err := invoke(ctx, c, in)
	if err == nil {
		next, err = stamp(next, code, model.SourceAI)
	}
	if err == nil {
		passTotal.WithLabelValues(string(model.SourceAI), "ok").Inc()
		return prior.Supersede(next).WithPass(attempt(model.SourceAI, nil))
	}

	pe := newPassError(model.SourceAI, code, err)
	passTotal.WithLabelValues(string(model.SourceAI), pe.Kind.String()).Inc()
	log.Debug("audit: AI pass failed, keeping prior outcome", "kind", pe.Kind.String(), "error", pe.Err)
	return prior.WithDetail(model.KeyAIError, pe.Err.Error()).WithPass(attempt(model.SourceAI, pe))
}

// wantsRendered: always for rendered and ai modes, per capability in auto, never in raw
func wantsRendered(mode model.Mode, caps Capability) bool {
	switch mode {
	case model.ModeRendered, model.ModeAI:
		return true
	case model.ModeAuto:
		return caps.WantsRendered()
	default:
		return false
	}
}

// wantsAI: always in ai mode, otherwise only on opt-in for AI-helpful criteria
func wantsAI(req Request, caps Capability) bool {
	if req.Mode == model.ModeAI {
		return true
	}
	return req.UseAI && caps.AIHelpful
}

func invoke(ctx context.Context, c check.Checker, in check.Input) (out model.Outcome, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("check %s panicked: %v", c.Code(), rec)
		}
	}()
	return c.Evaluate(ctx, in)
}

func invokeLegacy(code string, lc check.LegacyChecker, static page.Context) (out model.Outcome, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("check %s panicked: %v", code, rec)
		}
	}()
	return lc.EvaluateLegacy(static)
}

// stamp validates a check's outcome and fills engine-owned fields
func stamp(o model.Outcome, code string, src model.Source) (model.Outcome, error) {
	switch o.Verdict {
	case model.VerdictPass, model.VerdictFail, model.VerdictPartial, model.VerdictNA:
	default:
		return o, fmt.Errorf("%w: check %s returned verdict %q", errMalformedOutcome, code, o.Verdict)
	}
	if o.Score < 0 || o.Score > 2 {
		return o, fmt.Errorf("%w: check %s returned sub-score %d", errMalformedOutcome, code, o.Score)
	}
	meta := model.LookupCriterion(code)
	c := o.Clone()
	c.Code = code
	c.Source = src
	c.Passes = nil
	if c.Level == "" {
		c.Level = meta.Level
	}
	if c.Principle == "" {
		c.Principle = meta.Principle
	}
	if c.Title == "" {
		c.Title = meta.Title
	}
	return c, nil
}

var errMalformedOutcome = errors.New("malformed outcome")

// contractFailure is the outcome for a criterion whose static pass could not run at all
func contractFailure(code string, pe *PassError) model.Outcome {
	meta := model.LookupCriterion(code)
	o := model.Outcome{
		Code:      code,
		Title:     meta.Title,
		Level:     meta.Level,
		Principle: meta.Principle,
		Source:    model.SourceRaw,
		Details:   model.Details{model.KeyContractError: pe.Err.Error()},
	}
	return o.MarkNA("check could not be evaluated").WithPass(attempt(model.SourceRaw, pe))
}

func errOrNil(pe *PassError) error {
	if pe == nil {
		return nil
	}
	return pe
}
