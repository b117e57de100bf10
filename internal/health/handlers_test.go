package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/landed-quote/internal/health"
)

func probe(name string, err error) health.Probe {
	return health.Probe{Name: name, Check: func(context.Context) error { return err }}
}

func ready(t *testing.T, h health.Handler) (int, health.Report) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	var report health.Report
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &report))
	return rr.Code, report
}

func TestLive(t *testing.T) {
	rr := httptest.NewRecorder()
	health.Handler{}.Live(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ok", rr.Body.String())
}

func TestReady(t *testing.T) {
	cases := []struct {
		name   string
		probes []health.Probe
		code   int
		status string
		checks map[string]string
	}{
		{
			name:   "all healthy",
			probes: []health.Probe{probe("postgres", nil), probe("redis", nil)},
			code:   http.StatusOK,
			status: "ok",
			checks: map[string]string{"postgres": "ok", "redis": "ok"},
		},
		{
			name:   "redis down",
			probes: []health.Probe{probe("postgres", nil), probe("redis", errors.New("connection refused"))},
			code:   http.StatusServiceUnavailable,
			status: "degraded",
			checks: map[string]string{"postgres": "ok", "redis": "connection refused"},
		},
		{
			name:   "no probes",
			code:   http.StatusServiceUnavailable,
			status: "unconfigured",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, report := ready(t, health.Handler{Probes: tc.probes})
			require.Equal(t, tc.code, code)
			require.Equal(t, tc.status, report.Status)
			require.Equal(t, tc.checks, report.Checks)
		})
	}
}

func TestReadyTimesOutSlowProbe(t *testing.T) {
	slow := health.Probe{Name: "postgres", Check: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	code, report := ready(t, health.Handler{Probes: []health.Probe{slow}, Timeout: 10 * time.Millisecond})
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, context.DeadlineExceeded.Error(), report.Checks["postgres"])
}

func TestReadyWhileDraining(t *testing.T) {
	health.SetReady(false)
	t.Cleanup(func() { health.SetReady(true) })

	code, report := ready(t, health.Handler{Probes: []health.Probe{probe("postgres", nil)}})
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, "draining", report.Status)

	health.SetReady(true)
	code, _ = ready(t, health.Handler{Probes: []health.Probe{probe("postgres", nil)}})
	require.Equal(t, http.StatusOK, code)
}

func TestRedisProbe(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	p := health.Redis(client)
	require.Equal(t, "redis", p.Name)
	require.NoError(t, p.Check(context.Background()))

	mr.Close()
	require.Error(t, p.Check(context.Background()))
}
