package audit

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/ppiankov/wcagscan/internal/check"
	"github.com/ppiankov/wcagscan/internal/llm"
	"github.com/ppiankov/wcagscan/internal/model"
)

// ErrRendererUnavailable is returned when no renderer is configured
var ErrRendererUnavailable = errors.New("renderer unavailable")

// PassErrorKind classifies a recoverable pass failure
type PassErrorKind int

const (
	KindUnknown PassErrorKind = iota
	KindTimeout
	KindUnavailable
	KindMalformed
)

func (k PassErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindUnavailable:
		return "unavailable"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// PassError is a failure of one evaluation pass for one criterion.
// The engine records it on the surviving outcome and moves on.
type PassError struct {
	Source model.Source
	Code   string
	Kind   PassErrorKind
	Err    error
}

func (e *PassError) Error() string {
	return fmt.Sprintf("%s pass for %s: %s: %v", e.Source, e.Code, e.Kind, e.Err)
}

func (e *PassError) Unwrap() error {
	return e.Err
}

// newPassError wraps err, classifying it unless it already is a PassError
func newPassError(src model.Source, code string, err error) *PassError {
	var pe *PassError
	if errors.As(err, &pe) {
		return pe
	}
	return &PassError{Source: src, Code: code, Kind: classify(err), Err: err}
}

func classify(err error) PassErrorKind {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return KindTimeout
	case errors.Is(err, ErrRendererUnavailable),
		errors.Is(err, llm.ErrDisabled),
		errors.Is(err, check.ErrModeUnsupported):
		return KindUnavailable
	case errors.Is(err, llm.ErrMalformed), errors.Is(err, errMalformedOutcome):
		return KindMalformed
	default:
		return KindUnknown
	}
}

// attempt converts a pass result into a trace record
func attempt(src model.Source, err *PassError) model.PassAttempt {
	if err == nil {
		return model.PassAttempt{Source: src, OK: true}
	}
	return model.PassAttempt{Source: src, Kind: err.Kind.String(), Error: err.Err.Error()}
}
