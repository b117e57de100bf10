package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string
	DBMaxConns         int

	MigrateOnStart bool

	ReferenceCacheTTL    time.Duration
	ReferenceCachePrefix string

	QuoteRateLimit          string
	QuoteMaxBodyBytes       int64
	QuoteDefaultDestination string

	HSTSMaxAge int

	WorkerConcurrency int
	WorkerQueue       string

	LogFormat        string
	LogLevel         string
	MetricsNamespace string
	MetricsEnabled   bool
	TracingEnabled   bool
	TracingExporter  string
	OTLPEndpoint     string
	TracingSampling  float64
}

// Load reads configuration from the environment, after loading an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}
	e := reader{k: k}

	cfg := &Config{
		AppEnv:             e.str("APP_ENV", "development"),
		Port:               e.str("PORT", "8080"),
		DatabaseURL:        e.str("DATABASE_URL", ""),
		RedisURL:           e.str("REDIS_URL", ""),
		CORSAllowedOrigins: e.list("CORS_ALLOWED_ORIGINS"),
		DBMaxConns:         e.intVal("DB_MAX_CONNS", 0),

		MigrateOnStart: e.boolVal("MIGRATE_ON_START", true),

		ReferenceCacheTTL:    e.duration("REFERENCE_CACHE_TTL", 5*time.Minute),
		ReferenceCachePrefix: e.str("REFERENCE_CACHE_PREFIX", "ref:v1:"),

		QuoteRateLimit:          e.str("QUOTE_RATE_LIMIT", "120-M"),
		QuoteMaxBodyBytes:       int64(e.intVal("QUOTE_MAX_BODY_BYTES", 16<<10)),
		QuoteDefaultDestination: strings.ToUpper(e.str("QUOTE_DEFAULT_DESTINATION", "US")),

		HSTSMaxAge: e.intVal("SECURITY_HSTS_MAX_AGE", 0),

		WorkerConcurrency: max(e.intVal("WORKER_CONCURRENCY", 4), 1),
		WorkerQueue:       e.str("WORKER_QUEUE", "reference"),

		LogFormat:        e.str("OBS_LOG_FORMAT", "json"),
		LogLevel:         e.str("OBS_LOG_LEVEL", "info"),
		MetricsNamespace: e.str("OBS_METRICS_NAMESPACE", "landed"),
		MetricsEnabled:   e.boolVal("OBS_ENABLE_PROMETHEUS", true),
		TracingEnabled:   e.boolVal("OBS_ENABLE_TRACING", true),
		TracingExporter:  e.str("OBS_TRACING_EXPORTER", "otlp"),
		OTLPEndpoint:     e.str("OBS_OTLP_ENDPOINT", ""),
		TracingSampling:  e.floatVal("OBS_TRACING_SAMPLING_RATIO", 1.0),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.DatabaseURL == "":
		return errors.New("DATABASE_URL is required")
	case c.RedisURL == "":
		return errors.New("REDIS_URL is required")
	case c.ReferenceCacheTTL <= 0:
		return errors.New("REFERENCE_CACHE_TTL must be positive")
	case len(c.QuoteDefaultDestination) != 2:
		return fmt.Errorf("QUOTE_DEFAULT_DESTINATION must be an ISO 3166 alpha-2 code, got %q", c.QuoteDefaultDestination)
	case c.QuoteMaxBodyBytes <= 0:
		return errors.New("QUOTE_MAX_BODY_BYTES must be positive")
	case c.HSTSMaxAge < 0:
		return errors.New("SECURITY_HSTS_MAX_AGE must not be negative")
	}
	return nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// reader wraps koanf lookups with trimming and typed fallbacks. Unparsable values fall back
// silently so a typo in an optional key never blocks startup.
type reader struct {
	k *koanf.Koanf
}

func (r reader) str(key, fallback string) string {
	if v := strings.TrimSpace(r.k.String(key)); v != "" {
		return v
	}
	return fallback
}

func (r reader) list(key string) []string {
	var out []string
	for _, part := range strings.Split(r.k.String(key), ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (r reader) intVal(key string, fallback int) int {
	v, err := strconv.Atoi(r.str(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func (r reader) floatVal(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(r.str(key, ""), 64)
	if err != nil {
		return fallback
	}
	return v
}

func (r reader) duration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(r.str(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func (r reader) boolVal(key string, fallback bool) bool {
	switch strings.ToLower(r.str(key, "")) {
	case "1", "t", "true", "yes", "on":
		return true
	case "0", "f", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// LoadForTests runs Load with env applied on top of the process environment and restores
// the previous values afterwards. An empty value unsets the key.
func LoadForTests(env map[string]string) (*Config, error) {
	previous := make(map[string]*string, len(env))
	for key, value := range env {
		if old, ok := os.LookupEnv(key); ok {
			previous[key] = &old
		} else {
			previous[key] = nil
		}
		if err := setenv(key, &value); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()

	var restoreErrs []error
	for key, old := range previous {
		if rerr := setenv(key, old); rerr != nil {
			restoreErrs = append(restoreErrs, fmt.Errorf("restore %s: %w", key, rerr))
		}
	}
	if err != nil {
		return nil, err
	}
	return cfg, errors.Join(restoreErrs...)
}

func setenv(key string, value *string) error {
	if value == nil || *value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, *value)
}
