// Package check defines the contract between the audit engine and the
// per-criterion heuristics.
package check

import (
	"context"
	"errors"
	"fmt"

	"github.com/ppiankov/wcagscan/internal/model"
	"github.com/ppiankov/wcagscan/internal/page"
)

// ErrModeUnsupported is returned by a checker that cannot evaluate the requested mode
var ErrModeUnsupported = errors.New("check: evaluation mode not supported")

// Advisor is the advisory text service available to checks in AI mode
type Advisor interface {
	AskJSON(ctx context.Context, prompt, context string) (map[string]any, error)
}

// Input is everything a check may read for one evaluation.
// Mode is never model.ModeAuto.
type Input struct {
	Mode     model.Mode
	Static   page.Context
	Rendered page.Context // nil unless a rendered snapshot was acquired
	Excerpt  string       // Size-capped sanitized HTML, AI mode only
	Advisor  Advisor      // nil when no advisory service is configured
}

// Richest returns the rendered snapshot when present, else the static one
func (in Input) Richest() page.Context {
	if in.Rendered != nil {
		return in.Rendered
	}
	return in.Static
}

// Checker evaluates one success criterion. Implementations must return an
// outcome for ordinary input; errors are reserved for pass failures.
type Checker interface {
	Code() string
	Evaluate(ctx context.Context, in Input) (model.Outcome, error)
}

// LegacyChecker is implemented by checks that only understand static markup.
// The engine falls back to it when Evaluate reports ErrModeUnsupported.
type LegacyChecker interface {
	EvaluateLegacy(static page.Context) (model.Outcome, error)
}

// Registry holds checkers in registration order
type Registry struct {
	order    []string
	checkers map[string]Checker
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{checkers: make(map[string]Checker)}
}

// Register adds c; registering the same code twice is an error
func (r *Registry) Register(c Checker) error {
	code := c.Code()
	if code == "" {
		return fmt.Errorf("check: empty criterion code")
	}
	if _, exists := r.checkers[code]; exists {
		return fmt.Errorf("check: criterion %s already registered", code)
	}
	r.order = append(r.order, code)
	r.checkers[code] = c
	return nil
}

// MustRegister is Register for static wiring
func (r *Registry) MustRegister(cs ...Checker) *Registry {
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			panic(err)
		}
	}
	return r
}

// Get returns the checker for code
func (r *Registry) Get(code string) (Checker, bool) {
	c, ok := r.checkers[code]
	return c, ok
}

// Codes returns registered codes in registration order
func (r *Registry) Codes() []string {
	return append([]string(nil), r.order...)
}

// Len returns the number of registered checkers
func (r *Registry) Len() int {
	return len(r.order)
}

// Select resolves a request to registered codes in registration order.
// An empty request selects everything. Unknown codes are returned separately.
func (r *Registry) Select(requested []string) (selected, unknown []string) {
	if len(requested) == 0 {
		return r.Codes(), nil
	}
	want := make(map[string]bool, len(requested))
	seenUnknown := make(map[string]bool)
	for _, code := range requested {
		if _, ok := r.checkers[code]; ok {
			want[code] = true
		} else if !seenUnknown[code] {
			seenUnknown[code] = true
			unknown = append(unknown, code)
		}
	}
	for _, code := range r.order {
		if want[code] {
			selected = append(selected, code)
		}
	}
	return selected, unknown
}
