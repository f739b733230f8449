package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "promolink"

// Metrics holds the collectors exported on /metrics
type Metrics struct {
	registry *prometheus.Registry

	ParsesTotal      *prometheus.CounterVec
	ParseDuration    *prometheus.HistogramVec
	FailuresTotal    *prometheus.CounterVec
	FallbacksTotal   *prometheus.CounterVec
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter
	PublishedTotal   *prometheus.CounterVec
	QueueDepth       prometheus.Gauge
}

// New creates the collectors on a private registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ParsesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parses_total",
			Help:      "Links parsed, by store and parse hint",
		}, []string{"store", "hint"}),
		ParseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parse_duration_seconds",
			Help:      "Time spent resolving and extracting a link",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30},
		}, []string{"store"}),
		FailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Links that produced an error envelope, by failure kind",
		}, []string{"kind"}),
		FallbacksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Fallback steps taken (canonical, api, render)",
		}, []string{"name"}),
		CacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Envelopes served from the response cache",
		}),
		CacheMissesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Requests not found in the response cache",
		}),
		PublishedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "published_total",
			Help:      "Envelopes handed to the publisher, by result",
		}, []string{"result"}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "publish_queue_depth",
			Help:      "Envelopes waiting to be published",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ParsesTotal,
		m.ParseDuration,
		m.FailuresTotal,
		m.FallbacksTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.PublishedTotal,
		m.QueueDepth,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveParse records one parsed link
func (m *Metrics) ObserveParse(store, hint string, elapsed time.Duration) {
	m.ParsesTotal.WithLabelValues(store, hint).Inc()
	m.ParseDuration.WithLabelValues(store).Observe(elapsed.Seconds())
}

// ObserveFailure records a link that could not be resolved
func (m *Metrics) ObserveFailure(kind string) {
	m.FailuresTotal.WithLabelValues(kind).Inc()
}

// ObserveFallback records a fallback step
func (m *Metrics) ObserveFallback(name string) {
	m.FallbacksTotal.WithLabelValues(name).Inc()
}

// ObserveCache records a response cache lookup
func (m *Metrics) ObserveCache(hit bool) {
	if hit {
		m.CacheHitsTotal.Inc()
		return
	}
	m.CacheMissesTotal.Inc()
}

// ObservePublish records the outcome of one publish attempt
func (m *Metrics) ObservePublish(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.PublishedTotal.WithLabelValues(result).Inc()
}

// SetQueueDepth reports the number of queued envelopes
func (m *Metrics) SetQueueDepth(n int) {
	m.QueueDepth.Set(float64(n))
}
