package obs

import (
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// NewLogger builds the process logger writing to stdout. format is "json" (default) or
// "console"; an unknown level falls back to info.
func NewLogger(format, level string) zerolog.Logger {
	return newLogger(os.Stdout, format, level)
}

func newLogger(w io.Writer, format, level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "console", "text":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// WithComponent tags logger with the emitting component.
func WithComponent(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}

// RequestLogger emits one http_request event per request.
type RequestLogger struct {
	Logger zerolog.Logger
	// Quiet lists routes logged at debug instead of info, e.g. probes and /metrics.
	Quiet []string
}

// Middleware implements chi middleware. 5xx responses log at error, 4xx at warn.
func (l RequestLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := newRecorder(w)
		start := time.Now()
		next.ServeHTTP(rec, r)

		route := Route(r)
		var evt *zerolog.Event
		switch {
		case rec.status >= http.StatusInternalServerError:
			evt = l.Logger.Error()
		case rec.status >= http.StatusBadRequest:
			evt = l.Logger.Warn()
		case l.quiet(route):
			evt = l.Logger.Debug()
		default:
			evt = l.Logger.Info()
		}
		evt = evt.
			Str("method", r.Method).
			Str("route", route).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Float64("duration_ms", DurationMillis(time.Since(start))).
			Int64("bytes", rec.bytes)
		if id := middleware.GetReqID(r.Context()); id != "" {
			evt = evt.Str("request_id", id)
		}
		if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
			evt = evt.Str("trace_id", sc.TraceID().String())
		}
		if qs := r.URL.RawQuery; qs != "" {
			evt = evt.Str("query", qs)
		}
		evt.Msg("http_request")
	})
}

func (l RequestLogger) quiet(route string) bool {
	for _, q := range l.Quiet {
		if q == route {
			return true
		}
	}
	return false
}
