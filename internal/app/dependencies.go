// Package app holds the process bootstrap shared by the API, the worker and the seeder.
package app

import (
	"context"
	"fmt"

	validator "github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	limiter "github.com/ulule/limiter/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/landed-quote/internal/cache"
	"github.com/noah-isme/landed-quote/internal/config"
	"github.com/noah-isme/landed-quote/internal/obs"
	"github.com/noah-isme/landed-quote/internal/ratelimit"
)

// Dependencies enumerates the clients shared across modules.
type Dependencies struct {
	DB           *pgxpool.Pool
	Redis        *redis.Client
	Cache        *cache.Cache
	Validator    *validator.Validate
	LimiterStore limiter.Store
}

// Close releases every client that was opened.
func (d *Dependencies) Close(logger zerolog.Logger) {
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}
	if d.DB != nil {
		d.DB.Close()
	}
}

// NewPool connects to Postgres with SQL tracing enabled.
func NewPool(ctx context.Context, cfg *config.Config, applicationName string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = applicationName
	if cfg.DBMaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.DBMaxConns)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// NewRedis connects to Redis with tracing and, when enabled, client metrics.
func NewRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if cfg.MetricsEnabled {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// TaskRedisOpt derives the asynq connection from REDIS_URL.
func TaskRedisOpt(cfg *config.Config) (asynq.RedisConnOpt, error) {
	opt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis uri for tasks: %w", err)
	}
	return opt, nil
}

// Build opens every shared client for the API process.
func Build(ctx context.Context, cfg *config.Config, logger zerolog.Logger, applicationName string) (*Dependencies, error) {
	deps := &Dependencies{Validator: validator.New(validator.WithRequiredStructEnabled())}

	pool, err := NewPool(ctx, cfg, applicationName)
	if err != nil {
		return nil, err
	}
	deps.DB = pool

	client, err := NewRedis(ctx, cfg, logger)
	if err != nil {
		deps.Close(logger)
		return nil, err
	}
	deps.Redis = client
	deps.Cache = cache.New(client, cfg.ReferenceCacheTTL, cfg.ReferenceCachePrefix)

	store, err := ratelimit.NewRedisStore(client, "ratelimit:quote")
	if err != nil {
		deps.Close(logger)
		return nil, fmt.Errorf("init limiter store: %w", err)
	}
	deps.LimiterStore = store
	return deps, nil
}

// InitTracing installs the tracer provider when tracing is enabled. The returned function
// flushes spans and is always safe to call.
func InitTracing(ctx context.Context, cfg *config.Config, serviceName string, logger zerolog.Logger) func() {
	if !cfg.TracingEnabled {
		return func() {}
	}
	shutdown, err := obs.InitTracer(ctx, obs.TracingConfig{
		ServiceName:   serviceName,
		Endpoint:      cfg.OTLPEndpoint,
		Exporter:      cfg.TracingExporter,
		SamplingRatio: cfg.TracingSampling,
		Environment:   cfg.AppEnv,
	})
	if err != nil {
		logger.Error().Err(err).Msg("initialise tracing")
		return func() {}
	}
	return func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("shutdown tracer")
		}
	}
}

// Tracer returns the global OpenTelemetry tracer for name.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
