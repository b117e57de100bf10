// Package health serves liveness and readiness probes.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const defaultProbeTimeout = 500 * time.Millisecond

var draining atomic.Bool

// SetReady toggles readiness. The API clears it as soon as shutdown begins.
func SetReady(ready bool) {
	draining.Store(!ready)
}

// Probe checks one dependency of the quote path.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// Postgres probes the reference-data pool.
func Postgres(pool *pgxpool.Pool) Probe {
	return Probe{Name: "postgres", Check: func(ctx context.Context) error { return pool.Ping(ctx) }}
}

// Redis probes the client backing the reference cache and the rate limiter.
func Redis(client *redis.Client) Probe {
	return Probe{Name: "redis", Check: func(ctx context.Context) error { return client.Ping(ctx).Err() }}
}

// Report is the readiness payload.
type Report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler exposes the probe endpoints.
type Handler struct {
	Probes  []Probe
	Timeout time.Duration
}

// Live reports that the process is up. It never touches dependencies.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready runs every probe concurrently under a shared timeout.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if draining.Load() {
		writeReport(w, http.StatusServiceUnavailable, Report{Status: "draining"})
		return
	}
	if len(h.Probes) == 0 {
		writeReport(w, http.StatusServiceUnavailable, Report{Status: "unconfigured"})
		return
	}

	timeout := h.Timeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	results := make([]string, len(h.Probes))
	var wg sync.WaitGroup
	for i, p := range h.Probes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = "ok"
			if err := p.Check(ctx); err != nil {
				results[i] = err.Error()
			}
		}()
	}
	wg.Wait()

	report := Report{Status: "ok", Checks: make(map[string]string, len(h.Probes))}
	status := http.StatusOK
	for i, p := range h.Probes {
		report.Checks[p.Name] = results[i]
		if results[i] != "ok" {
			report.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
	}
	writeReport(w, status, report)
}

func writeReport(w http.ResponseWriter, status int, report Report) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(report)
}
