package pipeline

import (
	"context"
	"strings"
	"time"

	"sjsage522/promolink/internal/extractor"
	"sjsage522/promolink/internal/resolver"
	"sjsage522/promolink/internal/store"
	"sjsage522/promolink/logger"
	"sjsage522/promolink/pkg/errors"
)

// PageResolver fetches the page behind a link
type PageResolver interface {
	Resolve(ctx context.Context, rawURL string) (*resolver.ResolvedPage, error)
	FollowCanonical(ctx context.Context, page *resolver.ResolvedPage) *resolver.ResolvedPage
}

// Renderer loads a page in a real browser and extracts what it can
type Renderer interface {
	Render(ctx context.Context, url string) (extractor.ProductRecord, error)
}

// ItemLookup queries a store API by item id
type ItemLookup interface {
	// ItemID finds the item id in the page URL or HTML, or returns ""
	ItemID(finalURL, html string) string

	// LookupByID fetches the item record
	LookupByID(ctx context.Context, id string) (extractor.ProductRecord, error)
}

// Recorder receives pipeline measurements
type Recorder interface {
	ObserveParse(store, hint string, elapsed time.Duration)
	ObserveFailure(kind string)
	ObserveFallback(name string)
}

// Pipeline turns a share link into an Envelope
type Pipeline struct {
	resolver PageResolver
	registry *extractor.Registry
	renderer Renderer
	items    ItemLookup
	recorder Recorder
	log      *logger.Logger
}

// Option configures optional collaborators
type Option func(*Pipeline)

// WithRenderer enables the headless browser fallback for Mercado Livre pages
func WithRenderer(r Renderer) Option {
	return func(p *Pipeline) {
		p.renderer = r
	}
}

// WithItemLookup enables the Mercado Livre item API fallback
func WithItemLookup(l ItemLookup) Option {
	return func(p *Pipeline) {
		p.items = l
	}
}

// WithRecorder attaches a metrics recorder
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) {
		p.recorder = r
	}
}

// New creates a pipeline
func New(res PageResolver, registry *extractor.Registry, opts ...Option) *Pipeline {
	p := &Pipeline{
		resolver: res,
		registry: registry,
		log:      logger.ForPipeline(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse resolves shareURL and extracts its product data. The only error
// returned is a missing-input error; every scraping failure is reported
// through an error envelope instead.
func (p *Pipeline) Parse(ctx context.Context, shareURL string) (Envelope, error) {
	if strings.TrimSpace(shareURL) == "" {
		return Envelope{}, errors.NewMissingInput("url parameter is required")
	}

	log := p.log.WithContext(ctx)
	start := time.Now()

	page, err := p.resolver.Resolve(ctx, shareURL)
	if err != nil {
		log.Warn().
			Err(err).
			Str("share_url", shareURL).
			Msg("failed to resolve link")
		p.observeFailure(err)
		return ErrorEnvelope(shareURL, err), nil
	}

	followed := p.resolver.FollowCanonical(ctx, page)
	if followed != page {
		p.observeFallback("canonical")
	}
	page = followed

	storeLabel := store.Classify(page.FinalURL)
	strategy := p.registry.For(storeLabel)
	rec := strategy.Extract(page.HTML)

	if storeLabel == store.MercadoLivre {
		rec = p.lookupItem(ctx, page, rec)
		rec = p.render(ctx, page, rec)
	}

	env := Assemble(storeLabel, shareURL, page.FinalURL, rec)
	elapsed := time.Since(start)

	if p.recorder != nil {
		p.recorder.ObserveParse(store.MetricLabel(env.Store), env.ParseHint, elapsed)
	}
	log.Info().
		Str("store", env.Store).
		Str("hint", env.ParseHint).
		Str("final_url", env.FinalURL).
		Bool("has_price", env.Price != nil).
		Dur("duration", elapsed).
		Msg("link parsed")

	return env, nil
}

// lookupItem fills a missing price from the item API
func (p *Pipeline) lookupItem(ctx context.Context, page *resolver.ResolvedPage, rec extractor.ProductRecord) extractor.ProductRecord {
	if p.items == nil || rec.Price != nil {
		return rec
	}
	id := p.items.ItemID(page.FinalURL, page.HTML)
	if id == "" {
		return rec
	}

	item, err := p.items.LookupByID(ctx, id)
	if err != nil {
		p.log.WithContext(ctx).Warn().
			Err(err).
			Str("item_id", id).
			Msg("item lookup failed")
		return rec
	}
	p.observeFallback("api")

	if rec.Title == "" {
		rec.Title = item.Title
	}
	if rec.Price == nil {
		rec.Price = item.Price
	}
	if rec.OldPrice == nil {
		rec.OldPrice = item.OldPrice
	}
	if rec.Installment == "" {
		rec.Installment = item.Installment
	}
	if rec.Image == "" {
		rec.Image = item.Image
	}
	rec.ParseHint += "+api"
	return rec
}

// render runs the browser fallback when no price information was found at all.
// Only non-empty rendered fields replace what extraction produced.
func (p *Pipeline) render(ctx context.Context, page *resolver.ResolvedPage, rec extractor.ProductRecord) extractor.ProductRecord {
	if p.renderer == nil || !rec.IsPriceless() {
		return rec
	}

	rendered, err := p.renderer.Render(ctx, page.FinalURL)
	if err != nil {
		p.log.WithContext(ctx).Warn().
			Err(err).
			Str("url", page.FinalURL).
			Msg("render fallback failed")
		return rec
	}
	p.observeFallback("render")

	if rendered.Title != "" {
		rec.Title = rendered.Title
	}
	if rendered.Price != nil && *rendered.Price > 0 {
		rec.Price = rendered.Price
	}
	if rendered.OldPrice != nil && *rendered.OldPrice > 0 {
		rec.OldPrice = rendered.OldPrice
	}
	if rendered.Installment != "" {
		rec.Installment = rendered.Installment
	}
	if rendered.Image != "" {
		rec.Image = rendered.Image
	}
	rec.ParseHint += "+render"
	return rec
}

func (p *Pipeline) observeFailure(err error) {
	if p.recorder == nil {
		return
	}
	kind := "unknown"
	for _, t := range []errors.ErrorType{errors.ErrorTypeFetch, errors.ErrorTypeBlocked, errors.ErrorTypeParsing} {
		if errors.IsType(err, t) {
			kind = string(t)
			break
		}
	}
	p.recorder.ObserveFailure(kind)
}

func (p *Pipeline) observeFallback(name string) {
	if p.recorder != nil {
		p.recorder.ObserveFallback(name)
	}
}
