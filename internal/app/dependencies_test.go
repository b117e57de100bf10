package app

import (
	"context"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/landed-quote/internal/config"
)

func TestTaskRedisOpt(t *testing.T) {
	opt, err := TaskRedisOpt(&config.Config{RedisURL: "redis://localhost:6379/2"})
	require.NoError(t, err)
	client, ok := opt.(asynq.RedisClientOpt)
	require.True(t, ok)
	require.Equal(t, "localhost:6379", client.Addr)
	require.Equal(t, 2, client.DB)

	_, err = TaskRedisOpt(&config.Config{RedisURL: "http://nope"})
	require.Error(t, err)
}

func TestInitTracingDisabledIsNoop(t *testing.T) {
	shutdown := InitTracing(context.Background(), &config.Config{TracingEnabled: false}, "landed-quote-test", zerolog.Nop())
	require.NotNil(t, shutdown)
	shutdown()
}

func TestCloseToleratesMissingClients(t *testing.T) {
	(&Dependencies{}).Close(zerolog.Nop())
}
