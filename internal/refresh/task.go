// Package refresh defines the background task that drops cached reference data after the
// reference store changes.
package refresh

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/landed-quote/internal/cache"
)

// TypeInvalidate is the asynq task type for reference cache invalidation.
const TypeInvalidate = "reference:invalidate"

// InvalidatePayload lists the cache prefixes to drop.
type InvalidatePayload struct {
	Prefixes []string `json:"prefixes"`
	Reason   string   `json:"reason,omitempty"`
}

// NewInvalidateTask builds an invalidation task. No prefixes means every reference prefix.
func NewInvalidateTask(prefixes []string, reason string) (*asynq.Task, error) {
	if len(prefixes) == 0 {
		prefixes = cache.AllPrefixes
	}
	for _, p := range prefixes {
		if !slices.Contains(cache.AllPrefixes, p) {
			return nil, fmt.Errorf("refresh: unknown cache prefix %q", p)
		}
	}
	payload, err := json.Marshal(InvalidatePayload{Prefixes: prefixes, Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeInvalidate, payload, asynq.MaxRetry(5), asynq.Timeout(time.Minute)), nil
}

// TaskEnqueuer is satisfied by *asynq.Client.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueue schedules an invalidation on queue.
func Enqueue(ctx context.Context, client TaskEnqueuer, queue string, prefixes []string, reason string) (*asynq.TaskInfo, error) {
	task, err := NewInvalidateTask(prefixes, reason)
	if err != nil {
		return nil, err
	}
	var opts []asynq.Option
	if queue != "" {
		opts = append(opts, asynq.Queue(queue))
	}
	return client.EnqueueContext(ctx, task, opts...)
}

// Invalidator deletes cache entries by prefix. *cache.Cache implements it.
type Invalidator interface {
	DeleteByPrefix(ctx context.Context, prefix string) (int64, error)
}

// Handler processes invalidation tasks.
type Handler struct {
	Cache  Invalidator
	Logger zerolog.Logger
}

// ProcessTask implements asynq.Handler. Malformed payloads are not retried.
func (h Handler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload InvalidatePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode %s payload: %v: %w", TypeInvalidate, err, asynq.SkipRetry)
	}
	prefixes := payload.Prefixes
	if len(prefixes) == 0 {
		prefixes = cache.AllPrefixes
	}
	var total int64
	for _, prefix := range prefixes {
		n, err := h.Cache.DeleteByPrefix(ctx, prefix)
		if err != nil {
			return fmt.Errorf("invalidate %s: %w", prefix, err)
		}
		total += n
	}
	h.Logger.Info().
		Strs("prefixes", prefixes).
		Str("reason", payload.Reason).
		Int64("deleted", total).
		Msg("reference_cache_invalidated")
	return nil
}

// Register mounts the task handlers on mux.
func Register(mux *asynq.ServeMux, h Handler) {
	mux.Handle(TypeInvalidate, h)
}
