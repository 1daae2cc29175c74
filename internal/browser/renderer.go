package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/ppiankov/wcagscan/internal/audit"
	"github.com/ppiankov/wcagscan/internal/model"
	"github.com/ppiankov/wcagscan/internal/page"
)

const (
	desktopWidth  = 1280
	desktopHeight = 800
	mobileHeight  = 640
)

// Renderer implements audit.Renderer with a shared Manager
type Renderer struct {
	mgr    *Manager
	cfg    model.RenderConfig
	logger *slog.Logger
}

// NewRenderer creates a renderer; a disabled config yields ErrRendererUnavailable on every call
func NewRenderer(mgr *Manager, cfg model.RenderConfig, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MobileWidth <= 0 {
		cfg.MobileWidth = 320
	}
	return &Renderer{mgr: mgr, cfg: cfg, logger: logger}
}

// Render loads url in a fresh tab, captures the DOM and runs the probes
func (r *Renderer) Render(ctx context.Context, url string, timeout time.Duration) (page.Context, error) {
	if r == nil || !r.cfg.Enabled || r.mgr == nil {
		return nil, audit.ErrRendererUnavailable
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	b, err := r.mgr.Browser(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", audit.ErrRendererUnavailable, err)
	}

	tab, err := r.openTab(b)
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}
	defer func() { _ = tab.Close() }()
	p := tab.Context(ctx)

	if err := setViewport(p, desktopWidth, desktopHeight, false); err != nil {
		return nil, err
	}
	if err := p.Navigate(url); err != nil {
		return nil, fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		r.logger.Warn("browser: wait load failed", "url", url, "error", err)
	}

	finalURL := url
	if info, err := p.Info(); err == nil && info.URL != "" {
		finalURL = info.URL
	}

	res, err := p.Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return nil, fmt.Errorf("browser: get DOM: %w", err)
	}
	html := res.Value.Str()

	probe, err := evalProbe(p, probeScript)
	if err != nil {
		return nil, err
	}

	// Second look at the reflow width
	if err := setViewport(p, r.cfg.MobileWidth, mobileHeight, true); err != nil {
		r.logger.Debug("browser: mobile viewport failed", "error", err)
	} else if mobile, err := evalProbe(p, mobileScript); err != nil {
		r.logger.Debug("browser: mobile probe failed", "error", err)
	} else {
		probe.ContrastMobile = mobile.ContrastMobile
		probe.OverflowX = mobile.OverflowX
		probe.ViewportWidth = mobile.ViewportWidth
	}

	doc, err := page.NewRendered(html, finalURL, probe)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("browser: rendered", "url", finalURL, "bytes", len(html),
		"contrast_samples", len(probe.Contrast), "targets", len(probe.Targets), "focus", len(probe.Focus))
	return doc, nil
}

func (r *Renderer) openTab(b *rod.Browser) (*rod.Page, error) {
	if r.cfg.Stealth {
		return stealth.Page(b)
	}
	return b.Page(proto.TargetCreateTarget{URL: ""})
}

func setViewport(p *rod.Page, width, height int, mobile bool) error {
	err := p.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: 1,
		Mobile:            mobile,
	})
	if err != nil {
		return fmt.Errorf("browser: set viewport %dx%d: %w", width, height, err)
	}
	return nil
}

func evalProbe(p *rod.Page, script string) (*page.Probe, error) {
	res, err := p.Eval(script)
	if err != nil {
		return nil, fmt.Errorf("browser: probe: %w", err)
	}
	return decodeProbe(res.Value.Str())
}

// decodeProbe parses the JSON a probe script returns
func decodeProbe(raw string) (*page.Probe, error) {
	var probe page.Probe
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return nil, fmt.Errorf("browser: decode probe: %w", err)
	}
	return &probe, nil
}

var _ audit.Renderer = (*Renderer)(nil)
