package audit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ppiankov/wcagscan/internal/page"
)

// Renderer produces a rendered snapshot of a URL within timeout
type Renderer interface {
	Render(ctx context.Context, url string, timeout time.Duration) (page.Context, error)
}

// renderSession acquires the rendered snapshot at most once per audit run
type renderSession struct {
	renderer Renderer
	url      string

	once sync.Once
	done atomic.Bool
	doc  page.Context
	err  error
}

func newRenderSession(r Renderer, url string) *renderSession {
	return &renderSession{renderer: r, url: url}
}

// get renders on first use with the caller's timeout; later calls return the memoised result
func (s *renderSession) get(ctx context.Context, timeout time.Duration) (page.Context, error) {
	s.once.Do(func() {
		defer s.done.Store(true)
		if s.renderer == nil {
			s.err = ErrRendererUnavailable
			return
		}
		start := time.Now()
		doc, err := s.renderer.Render(ctx, s.url, timeout)
		if err == nil && doc == nil {
			err = errors.New("renderer returned no snapshot")
		}
		renderDuration.WithLabelValues(resultLabel(err)).Observe(time.Since(start).Seconds())
		s.doc, s.err = doc, err
	})
	return s.doc, s.err
}

// peek returns the snapshot if a render already completed successfully
func (s *renderSession) peek() (page.Context, bool) {
	if !s.done.Load() || s.err != nil {
		return nil, false
	}
	return s.doc, true
}

// failure returns the render error once an attempt was made
func (s *renderSession) failure() error {
	if !s.done.Load() {
		return nil
	}
	return s.err
}

// excerptCache computes the sanitized AI excerpt once per snapshot kind
type excerptCache struct {
	maxBytes int

	staticOnce   sync.Once
	static       string
	renderedOnce sync.Once
	rendered     string
}

func (c *excerptCache) get(ctx page.Context) string {
	if ctx == nil {
		return ""
	}
	if ctx.Kind() == page.KindRendered {
		c.renderedOnce.Do(func() { c.rendered = page.Excerpt(ctx.HTML(), c.maxBytes) })
		return c.rendered
	}
	c.staticOnce.Do(func() { c.static = page.Excerpt(ctx.HTML(), c.maxBytes) })
	return c.static
}
