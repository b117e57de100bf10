package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/landed-quote/internal/app"
	"github.com/noah-isme/landed-quote/internal/config"
	"github.com/noah-isme/landed-quote/internal/health"
	"github.com/noah-isme/landed-quote/internal/migrations"
	"github.com/noah-isme/landed-quote/internal/obs"
	"github.com/noah-isme/landed-quote/internal/quote"
	"github.com/noah-isme/landed-quote/internal/ratelimit"
	"github.com/noah-isme/landed-quote/internal/repo"
	"github.com/noah-isme/landed-quote/internal/security"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := app.InitTracing(ctx, cfg, "landed-quote-api", logger)
	defer shutdownTracing()

	if cfg.MigrateOnStart {
		if err := migrations.Up(cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("apply migrations")
		}
	}

	bootCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	deps, err := app.Build(bootCtx, cfg, logger, "landed-quote-api")
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise dependencies")
	}
	defer deps.Close(logger)

	var quoteMetrics *obs.QuoteMetrics
	var httpMetrics *obs.HTTPMetrics
	if cfg.MetricsEnabled {
		quoteMetrics = obs.NewQuoteMetrics(cfg.MetricsNamespace, nil)
		httpMetrics = obs.NewHTTPMetrics(cfg.MetricsNamespace, nil)
	}

	quoteService, err := quote.NewService(quote.ServiceConfig{
		Catalog:   repo.Catalog{DB: deps.DB},
		Suppliers: repo.Catalog{DB: deps.DB},
		Tiers:     repo.Tiers{DB: deps.DB},
		Rules:     repo.Rules{DB: deps.DB},
		Tariffs:   repo.Tariffs{DB: deps.DB},
		Freight:   repo.FreightRates{DB: deps.DB},
		Cache:     deps.Cache,
		Metrics:   quoteMetrics,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise quote service")
	}
	quoteHandler := quote.NewHandler(quote.HandlerConfig{
		Service:            quoteService,
		Validator:          deps.Validator,
		DefaultDestination: cfg.QuoteDefaultDestination,
		MaxBodyBytes:       cfg.QuoteMaxBodyBytes,
	})

	quoteLimiter, err := ratelimit.New(deps.LimiterStore, cfg.QuoteRateLimit)
	if err != nil {
		logger.Fatal().Err(err).Str("rate", cfg.QuoteRateLimit).Msg("parse quote rate limit")
	}
	limitQuotes := ratelimit.Handler{
		Limiter: quoteLimiter,
		OnError: func(err error) { logger.Warn().Err(err).Msg("rate limiter unavailable") },
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.NameSpan)
	r.Use(httpMetrics.Middleware)
	r.Use(obs.RequestLogger{Logger: logger, Quiet: []string{"/health/live", "/health/ready", "/metrics"}}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:         300,
	}))

	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	healthHandler := health.Handler{Probes: []health.Probe{health.Postgres(deps.DB), health.Redis(deps.Redis)}}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(security.Headers{HSTSMaxAge: cfg.HSTSMaxAge, NoStore: true}.Middleware)
		v.Use(limitQuotes.Middleware)
		quoteHandler.Routes(v)
	})

	var handler http.Handler = r
	if cfg.TracingEnabled {
		handler = otelhttp.NewHandler(r, "http.server")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("server shutdown")
		}
	}()

	health.SetReady(true)
	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
	logger.Info().Msg("server stopped")
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}
