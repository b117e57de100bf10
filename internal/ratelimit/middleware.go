// Package ratelimit throttles the quote endpoints per client with ulule/limiter.
package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/noah-isme/landed-quote/internal/common"
)

// NewRedisStore returns a limiter store sharing the application's Redis client.
func NewRedisStore(client *redis.Client, prefix string) (limiter.Store, error) {
	return limiterredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: prefix})
}

// New builds a limiter from a formatted rate such as "120-M" or "10-S".
func New(store limiter.Store, rate string) (*limiter.Limiter, error) {
	parsed, err := limiter.NewRateFromFormatted(strings.TrimSpace(rate))
	if err != nil {
		return nil, err
	}
	return limiter.New(store, parsed), nil
}

// Handler enforces rate limits before delegating to the next handler.
type Handler struct {
	Limiter *limiter.Limiter
	// Key derives the bucket for a request. Defaults to ClientIP.
	Key     func(*http.Request) string
	OnError func(error)
	now     func() time.Time
}

// Middleware implements the http.Handler middleware interface. Store failures let the
// request through.
func (h Handler) Middleware(next http.Handler) http.Handler {
	keyFn := h.Key
	if keyFn == nil {
		keyFn = ClientIP
	}
	now := h.now
	if now == nil {
		now = time.Now
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Limiter == nil {
			next.ServeHTTP(w, r)
			return
		}
		lctx, err := h.Limiter.Get(r.Context(), keyFn(r))
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		headers := w.Header()
		headers.Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
		headers.Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

		if lctx.Reached {
			retryAfter := lctx.Reset - now().Unix()
			if retryAfter < 0 {
				retryAfter = 0
			}
			headers.Set("Retry-After", strconv.FormatInt(retryAfter, 10))
			common.JSONError(w, http.StatusTooManyRequests, common.CodeRateLimited, "rate limit exceeded", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ClientIP keys requests by remote host. chi's RealIP middleware has already applied
// forwarding headers by the time this runs.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
