package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestHandlerMiddlewareEnforcesLimit(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	store, err := NewRedisStore(client, "ratelimit")
	require.NoError(t, err)
	lim, err := New(store, "1-M")
	require.NoError(t, err)

	counted := Handler{Limiter: lim, Key: func(*http.Request) string { return "static" }}.Middleware(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rr1 := httptest.NewRecorder()
	counted.ServeHTTP(rr1, req.Clone(req.Context()))
	require.Equal(t, http.StatusOK, rr1.Code)
	require.Equal(t, "1", rr1.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "0", rr1.Header().Get("X-RateLimit-Remaining"))

	rr2 := httptest.NewRecorder()
	counted.ServeHTTP(rr2, req.Clone(req.Context()))
	require.Equal(t, http.StatusTooManyRequests, rr2.Code)
	require.NotEmpty(t, rr2.Header().Get("Retry-After"))
	require.Contains(t, rr2.Body.String(), "RATE_LIMITED")
}

func TestHandlerMiddlewareKeysByClientIP(t *testing.T) {
	lim, err := New(memory.NewStore(), "1-H")
	require.NoError(t, err)
	counted := Handler{Limiter: lim}.Middleware(okHandler())

	first := httptest.NewRequest(http.MethodGet, "/test", nil)
	first.RemoteAddr = "10.0.0.1:5000"
	second := httptest.NewRequest(http.MethodGet, "/test", nil)
	second.RemoteAddr = "10.0.0.2:5000"

	for _, req := range []*http.Request{first, second} {
		rr := httptest.NewRecorder()
		counted.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)
	}

	again := httptest.NewRequest(http.MethodGet, "/test", nil)
	again.RemoteAddr = "10.0.0.1:6000"
	rr := httptest.NewRecorder()
	counted.ServeHTTP(rr, again)
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
}

type failingStore struct{ limiter.Store }

func (failingStore) Get(context.Context, string, limiter.Rate) (limiter.Context, error) {
	return limiter.Context{}, errors.New("store down")
}

func TestHandlerMiddlewareOnError(t *testing.T) {
	lim := limiter.New(failingStore{}, limiter.Rate{Period: time.Second, Limit: 1})

	called := false
	counted := Handler{
		Limiter: lim,
		OnError: func(error) { called = true },
	}.Middleware(okHandler())

	rr := httptest.NewRecorder()
	counted.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.True(t, called)
}

func TestNewRejectsMalformedRate(t *testing.T) {
	_, err := New(memory.NewStore(), "lots")
	require.Error(t, err)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:1234"
	require.Equal(t, "192.0.2.10", ClientIP(req))
	req.RemoteAddr = "192.0.2.11"
	require.Equal(t, "192.0.2.11", ClientIP(req))
}
