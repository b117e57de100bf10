package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/noah-isme/landed-quote/internal/app"
	"github.com/noah-isme/landed-quote/internal/cache"
	"github.com/noah-isme/landed-quote/internal/config"
	"github.com/noah-isme/landed-quote/internal/obs"
	"github.com/noah-isme/landed-quote/internal/refresh"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.WithComponent(obs.NewLogger(cfg.LogFormat, cfg.LogLevel), "worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := app.InitTracing(ctx, cfg, "landed-quote-worker", logger)
	defer shutdownTracing()

	bootCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	redisClient, err := app.NewRedis(bootCtx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("connect redis")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	taskOpt, err := app.TaskRedisOpt(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("task redis options")
	}

	srv := asynq.NewServer(taskOpt, asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
		Queues:      map[string]int{cfg.WorkerQueue: 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
			logger.Error().Err(err).Str("task", task.Type()).Msg("task failed")
		}),
		ShutdownTimeout: 10 * time.Second,
	})

	mux := asynq.NewServeMux()
	refresh.Register(mux, refresh.Handler{
		Cache:  cache.New(redisClient, cfg.ReferenceCacheTTL, cfg.ReferenceCachePrefix),
		Logger: logger,
	})

	if err := srv.Start(mux); err != nil {
		logger.Fatal().Err(err).Msg("start worker")
	}
	logger.Info().Str("queue", cfg.WorkerQueue).Int("concurrency", cfg.WorkerConcurrency).Msg("worker started")

	<-ctx.Done()
	srv.Shutdown()
	logger.Info().Msg("worker shutdown complete")
}
