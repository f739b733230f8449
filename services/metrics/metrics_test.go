package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservers(t *testing.T) {
	m := New()

	m.ObserveParse("Amazon", "amazon_html_v3", 1200*time.Millisecond)
	m.ObserveParse("Amazon", "amazon_html_v3", 300*time.Millisecond)
	m.ObserveFailure("blocked")
	m.ObserveFallback("render")
	m.ObserveCache(true)
	m.ObserveCache(false)
	m.ObserveCache(false)
	m.ObservePublish(nil)
	m.ObservePublish(errors.New("redis down"))
	m.SetQueueDepth(7)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ParsesTotal.WithLabelValues("Amazon", "amazon_html_v3")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FailuresTotal.WithLabelValues("blocked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbacksTotal.WithLabelValues("render")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHitsTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheMissesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PublishedTotal.WithLabelValues("error")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.QueueDepth))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveFailure("fetch")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), `promolink_failures_total{kind="fetch"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.ObserveFallback("api")
	assert.Equal(t, 0.0, testutil.ToFloat64(b.FallbacksTotal.WithLabelValues("api")))
}
