package obs

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestRequestLoggerLevels(t *testing.T) {
	cases := []struct {
		name   string
		status int
		path   string
		level  string
	}{
		{name: "ok", status: http.StatusOK, path: "/api/v1/quotes", level: "info"},
		{name: "client error", status: http.StatusUnprocessableEntity, path: "/api/v1/quotes", level: "warn"},
		{name: "upstream failure", status: http.StatusBadGateway, path: "/api/v1/quotes", level: "error"},
		{name: "quiet probe", status: http.StatusOK, path: "/health/live", level: "debug"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			r := chi.NewRouter()
			r.Use(RequestLogger{Logger: zerolog.New(&buf), Quiet: []string{"/health/live"}}.Middleware)
			handler := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(tc.status) }
			r.Post("/api/v1/quotes", handler)
			r.Get("/health/live", handler)

			method := http.MethodPost
			if tc.path == "/health/live" {
				method = http.MethodGet
			}
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(method, tc.path+"?q=1", nil))

			entry := decodeEntry(t, &buf)
			require.Equal(t, tc.level, entry["level"])
			require.Equal(t, tc.path, entry["route"])
			require.Equal(t, float64(tc.status), entry["status"])
			require.Equal(t, "q=1", entry["query"])
			require.Equal(t, "http_request", entry["message"])
		})
	}
}

func TestNewLoggerLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "json", "warn")
	logger.Info().Msg("dropped")
	require.Zero(t, buf.Len())
	logger.Warn().Str("component", "quote").Msg("kept")
	entry := decodeEntry(t, &buf)
	require.Equal(t, "kept", entry["message"])

	buf.Reset()
	fallback := newLogger(&buf, "json", "bogus")
	fallback.Info().Msg("fallback")
	require.NotZero(t, buf.Len())

	buf.Reset()
	human := newLogger(&buf, "console", "info")
	human.Info().Msg("human")
	require.Contains(t, buf.String(), "human")
	require.NotContains(t, buf.String(), `"message"`)
}
