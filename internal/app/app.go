package app

import (
	"context"
	stderrors "errors"
	"net/http"
	"sync"
	"time"

	"sjsage522/promolink/config"
	"sjsage522/promolink/internal/extractor"
	"sjsage522/promolink/internal/mlapi"
	"sjsage522/promolink/internal/pipeline"
	"sjsage522/promolink/internal/render"
	"sjsage522/promolink/internal/resolver"
	"sjsage522/promolink/logger"
	"sjsage522/promolink/pkg/errors"
	"sjsage522/promolink/services/api"
	"sjsage522/promolink/services/cache"
	"sjsage522/promolink/services/metrics"
	"sjsage522/promolink/services/publisher"
	"sjsage522/promolink/services/worker"
)

const (
	trimInterval    = time.Minute
	shutdownTimeout = 30 * time.Second
)

// App holds the wired services of one process
type App struct {
	Config   *config.Config
	Pipeline *pipeline.Pipeline
	Metrics  *metrics.Metrics

	renderer  *render.Renderer
	cache     cache.CacheService
	publisher publisher.Publisher
	worker    *worker.Worker
	log       *logger.Logger
}

// New wires every service described by cfg. External services are only
// contacted lazily, so New does not fail when they are down.
func New(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.NewConfiguration("invalid configuration", err)
	}

	a := &App{
		Config:  cfg,
		Metrics: metrics.New(),
		log:     logger.ForComponent("app"),
	}

	opts := []pipeline.Option{pipeline.WithRecorder(a.Metrics)}

	if cfg.MLAPIEnabled {
		opts = append(opts, pipeline.WithItemLookup(mlapi.New(cfg.MLAPIURL, cfg.MLAPIToken, cfg.FetchTimeout)))
	}
	if cfg.RenderEnabled {
		a.renderer = render.New(cfg.RenderBrowserURL, cfg.RenderTimeout, extractor.NewMercadoLivreExtractor())
		opts = append(opts, pipeline.WithRenderer(a.renderer))
	}

	registry := extractor.NewRegistry()
	a.Pipeline = pipeline.New(resolver.New(cfg.FetchTimeout, cfg.MaxRedirects), registry, opts...)

	if cfg.CacheTTL > 0 {
		if cfg.MemcacheAddr != "" {
			a.cache = cache.NewMemcacheService(cfg.MemcacheAddr, time.Second)
			logger.Info("Using Memcache at %s", cfg.MemcacheAddr)
		} else {
			a.cache = cache.NewMemoryCache()
			if cfg.IsProduction() {
				a.log.Warn().Msg("production without memcache: parse cache is per process")
			}
		}
	}

	if cfg.RedisAddr != "" {
		a.publisher = publisher.NewRedisPublisher(
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamCount,
			cfg.RedisStreamMaxLength,
		)
		a.worker = worker.NewWorker(a.publisher, cfg.PublishQueueSize, trimInterval, a.Metrics)
		logger.Info("Publishing to Redis at %s (DB: %d, Stream: %s)", cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
	}

	a.log.Info().
		Str("environment", cfg.Environment).
		Bool("production", cfg.IsProduction()).
		Strs("stores", registry.Stores()).
		Bool("render", a.renderer != nil).
		Bool("ml_api", cfg.MLAPIEnabled).
		Bool("memcache", cfg.MemcacheAddr != "").
		Bool("publish", a.worker != nil).
		Msg("services initialized")

	return a, nil
}

// Router returns the HTTP handler serving the API
func (a *App) Router() http.Handler {
	opts := []api.Option{api.WithCacheObserver(a.Metrics)}
	if a.cache != nil {
		opts = append(opts, api.WithCache(a.cache, a.Config.CacheTTL))
	}
	if a.worker != nil {
		opts = append(opts, api.WithQueue(a.worker))
	}
	return api.NewRouter(api.NewHandlers(a.Pipeline, opts...), a.Config.AllowedOrigins, a.Metrics.Handler())
}

// Serve runs the HTTP server and the publish worker until ctx is cancelled,
// then shuts both down
func (a *App) Serve(ctx context.Context) error {
	server := &http.Server{
		Addr:         a.Config.HTTPAddr,
		Handler:      a.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	workerCtx, stopWorker := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	if a.worker != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.worker.Run(workerCtx)
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		serveErr <- server.ListenAndServe()
	}()

	var err error
	select {
	case <-ctx.Done():
		a.log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		err = server.Shutdown(shutdownCtx)
		cancel()
	case err = <-serveErr:
	}
	if stderrors.Is(err, http.ErrServerClosed) {
		err = nil
	}

	stopWorker()
	wg.Wait()
	return err
}

// Close releases the browser and broker connections
func (a *App) Close() {
	if a.renderer != nil {
		if err := a.renderer.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close browser")
		}
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close publisher")
		}
	}
}
