package render

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sjsage522/promolink/internal/extractor"
	"sjsage522/promolink/logger"
	"sjsage522/promolink/pkg/errors"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
)

// DefaultTimeout bounds one render when none is configured
const DefaultTimeout = 25 * time.Second

// Renderer loads pages in a shared headless Chromium and runs an extractor
// over the rendered DOM. The browser is started on first use.
type Renderer struct {
	controlURL string
	timeout    time.Duration
	extractor  extractor.Extractor
	log        *logger.Logger

	// ctx scopes the shared browser, not any single request
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	browser  *rod.Browser
	launched *launcher.Launcher
}

// New creates a renderer. controlURL points at a running browser's DevTools
// endpoint; when empty a local Chromium is launched.
func New(controlURL string, timeout time.Duration, ex extractor.Extractor) *Renderer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if ex == nil {
		ex = extractor.NewMercadoLivreExtractor()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Renderer{
		ctx:        ctx,
		cancel:     cancel,
		controlURL: controlURL,
		timeout:    timeout,
		extractor:  ex,
		log:        logger.ForComponent("render"),
	}
}

// Render navigates to url and extracts the rendered page. The page is closed
// on every return path and the whole call is bounded by the renderer timeout.
func (r *Renderer) Render(ctx context.Context, url string) (extractor.ProductRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	browser, err := r.connect(ctx)
	if err != nil {
		return extractor.ProductRecord{}, errors.NewRender(url, "browser unavailable", err)
	}

	page, err := stealth.Page(browser)
	if err != nil {
		return extractor.ProductRecord{}, errors.NewRender(url, "failed to open page", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			r.log.Debug().Err(err).Msg("failed to close page")
		}
	}()

	page = page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return extractor.ProductRecord{}, errors.NewRender(url, "navigation failed", err)
	}
	if err := page.WaitLoad(); err != nil {
		return extractor.ProductRecord{}, errors.NewRender(url, "page did not load", err)
	}
	if err := page.WaitStable(300 * time.Millisecond); err != nil {
		r.log.Warn().Err(err).Str("url", url).Msg("page stability timeout, continuing")
	}

	html, err := page.HTML()
	if err != nil {
		return extractor.ProductRecord{}, errors.NewRender(url, "failed to read page HTML", err)
	}

	rec := r.extractor.Extract(html)
	r.log.Debug().
		Str("url", url).
		Int("size", len(html)).
		Bool("has_price", rec.Price != nil).
		Dur("duration", time.Since(start)).
		Msg("page rendered")
	return rec, nil
}

// connect returns the shared browser, starting it if needed. The caller
// stops waiting when ctx ends; a start already underway still completes
// for later renders.
func (r *Renderer) connect(ctx context.Context) (*rod.Browser, error) {
	type result struct {
		browser *rod.Browser
		err     error
	}
	done := make(chan result, 1)
	go func() {
		b, err := r.start()
		done <- result{b, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		return res.browser, res.err
	}
}

func (r *Renderer) start() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return r.browser, nil
	}
	if err := r.ctx.Err(); err != nil {
		return nil, fmt.Errorf("renderer closed: %w", err)
	}

	var l *launcher.Launcher
	controlURL := r.controlURL
	if controlURL == "" {
		l = launcher.New().
			Context(r.ctx).
			Headless(true).
			Set("disable-gpu").
			Set("disable-dev-shm-usage").
			Set("no-sandbox").
			Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			l.Kill()
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		controlURL = u
	}

	browser := rod.New().Context(r.ctx).ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		if l != nil {
			l.Kill()
		}
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	r.browser = browser
	r.launched = l
	r.log.Info().Bool("remote", r.controlURL != "").Msg("browser ready")
	return browser, nil
}

// Close shuts the shared browser down. It is safe to call when the browser was never started.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	defer r.cancel()

	if r.browser == nil {
		return nil
	}
	err := r.browser.Close()
	if r.launched != nil {
		r.launched.Kill()
		r.launched = nil
	}
	r.browser = nil
	return err
}
