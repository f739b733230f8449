package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"sjsage522/promolink/internal/pipeline"
	"sjsage522/promolink/logger"
	"sjsage522/promolink/services/cache"
)

// successCacheControl is sent with every envelope that parsed successfully
const successCacheControl = "public, max-age=30, s-maxage=120"

// Parser turns a share link into an envelope
type Parser interface {
	Parse(ctx context.Context, shareURL string) (pipeline.Envelope, error)
}

// Queue accepts envelopes for asynchronous publishing
type Queue interface {
	Enqueue(env pipeline.Envelope) bool
}

// CacheObserver receives cache hit/miss measurements
type CacheObserver interface {
	ObserveCache(hit bool)
}

// Handlers serves the parse API
type Handlers struct {
	parser   Parser
	cache    cache.CacheService
	cacheTTL time.Duration
	queue    Queue
	observer CacheObserver
	log      *logger.Logger
	cacheLog *logger.Logger
}

// Option configures optional handler collaborators
type Option func(*Handlers)

// WithCache enables envelope caching
func WithCache(c cache.CacheService, ttl time.Duration) Option {
	return func(h *Handlers) {
		h.cache = c
		h.cacheTTL = ttl
	}
}

// WithQueue enables publishing of successful envelopes
func WithQueue(q Queue) Option {
	return func(h *Handlers) {
		h.queue = q
	}
}

// WithCacheObserver attaches cache metrics
func WithCacheObserver(o CacheObserver) Option {
	return func(h *Handlers) {
		h.observer = o
	}
}

// NewHandlers creates the API handlers
func NewHandlers(parser Parser, opts ...Option) *Handlers {
	h := &Handlers{
		parser:   parser,
		log:      logger.ForComponent("api"),
		cacheLog: logger.ForCache(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Parse handles GET /api/parse?url=
func (h *Handlers) Parse(w http.ResponseWriter, r *http.Request) {
	shareURL := r.URL.Query().Get("url")
	if strings.TrimSpace(shareURL) == "" {
		h.respondError(w, http.StatusBadRequest, "url parameter is required")
		return
	}

	if env, ok := h.cached(r.Context(), shareURL); ok {
		w.Header().Set("Cache-Control", successCacheControl)
		w.Header().Set("X-Cache", "HIT")
		h.respondJSON(w, http.StatusOK, env)
		return
	}

	env, err := h.parser.Parse(r.Context(), shareURL)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !env.Failed() {
		w.Header().Set("Cache-Control", successCacheControl)
		h.store(r.Context(), shareURL, env)
		if h.queue != nil {
			h.queue.Enqueue(env)
		}
	}
	h.respondJSON(w, http.StatusOK, env)
}

// Health handles GET /healthz
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) cached(ctx context.Context, shareURL string) (pipeline.Envelope, bool) {
	if h.cache == nil {
		return pipeline.Envelope{}, false
	}

	data, err := h.cache.Get(cache.Key(shareURL))
	hit := err == nil
	if h.observer != nil {
		h.observer.ObserveCache(hit)
	}
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			h.cacheLog.WithContext(ctx).Warn().Err(err).Msg("cache lookup failed")
		}
		return pipeline.Envelope{}, false
	}

	var env pipeline.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		h.cacheLog.WithContext(ctx).Warn().Err(err).Msg("discarding unreadable cache entry")
		return pipeline.Envelope{}, false
	}
	return env, true
}

func (h *Handlers) store(ctx context.Context, shareURL string, env pipeline.Envelope) {
	if h.cache == nil {
		return
	}
	data, err := json.Marshal(env)
	if err != nil {
		return
	}
	if err := h.cache.Set(cache.Key(shareURL), data, h.cacheTTL); err != nil {
		h.cacheLog.WithContext(ctx).Warn().Err(err).Msg("cache store failed")
	}
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("failed to encode response")
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
