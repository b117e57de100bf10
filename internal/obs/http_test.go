package obs_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/noah-isme/landed-quote/internal/obs"
)

func TestHTTPMetricsLabelRoutePattern(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewHTTPMetrics("landed", registry)

	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.Get("/api/v1/products/{productID}/quote", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products/42/quote", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)

	require.Equal(t, float64(1), testutil.ToFloat64(metrics.Requests.WithLabelValues(http.MethodGet, "/api/v1/products/{productID}/quote", "418")))
	require.Equal(t, 1, testutil.CollectAndCount(metrics.Duration))
	require.Equal(t, float64(0), testutil.ToFloat64(metrics.InFlight))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.Requests.WithLabelValues(http.MethodGet, "unmatched", "404")))
}

func TestHTTPMetricsNilPassesThrough(t *testing.T) {
	var metrics *obs.HTTPMetrics
	called := false
	h := metrics.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, called)
}

func TestQuoteMetricsReuseRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := obs.NewQuoteMetrics("landed", registry)
	second := obs.NewQuoteMetrics("landed", registry)

	first.Computations.WithLabelValues("ok").Inc()
	second.Computations.WithLabelValues("ok").Inc()
	second.CacheResult("tiers", "hit")

	require.Equal(t, float64(2), testutil.ToFloat64(first.Computations.WithLabelValues("ok")))
	require.Equal(t, float64(1), testutil.ToFloat64(first.ReferenceCache.WithLabelValues("tiers", "hit")))

	var none *obs.QuoteMetrics
	require.NotPanics(t, func() { none.CacheResult("tiers", "miss") })
}

func TestNameSpanUsesRoutePattern(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(t.Context()) })

	r := chi.NewRouter()
	r.Use(obs.NameSpan)
	r.Post("/api/v1/quotes", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes", nil)
	ctx, span := tp.Tracer("test").Start(req.Context(), "http.server")
	r.ServeHTTP(httptest.NewRecorder(), req.WithContext(ctx))
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	require.Equal(t, "POST /api/v1/quotes", spans[0].Name)
}
