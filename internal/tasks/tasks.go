package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"swapp/api/internal/logging"
	"swapp/api/internal/push"
	"swapp/api/internal/recommender"
	"swapp/api/internal/utils"
)

// Task types.
const (
	TypePushDelivery     = "push:deliver"
	TypeRecommenderEvent = "recommender:event"
	TypeRecommenderTrain = "recommender:train"
)

// Queue names, highest priority first.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// TrainUniqueTTL collapses retrain requests issued within this window into one task.
const TrainUniqueTTL = 5 * time.Minute

func redisOpt(rdb *redis.Client) asynq.RedisClientOpt {
	opts := rdb.Options()
	return asynq.RedisClientOpt{Addr: opts.Addr, Password: opts.Password, DB: opts.DB}
}

// --- Task Client (Enqueuing tasks) ---

func NewClient(rdb *redis.Client) *asynq.Client {
	return asynq.NewClient(redisOpt(rdb))
}

// PushPayload is the body of a push delivery task.
type PushPayload struct {
	UserID utils.SixID `json:"user_id"`
	Notice push.Notice `json:"notice"`
}

// --- Task Server (Processing tasks) ---

// PushDeliverer delivers a notice to a user's registered device.
type PushDeliverer interface {
	Deliver(ctx context.Context, userID utils.SixID, n push.Notice) error
}

// CacheInvalidator drops cached recommendations after a retrain.
type CacheInvalidator interface {
	InvalidateAll(ctx context.Context) (int, error)
}

// TaskProcessor handles the processing of tasks.
type TaskProcessor struct {
	pusher  PushDeliverer
	reco    recommender.Client
	trainer recommender.Trainer
	cache   CacheInvalidator
}

// NewTaskProcessor wires the task handlers. cache may be nil.
func NewTaskProcessor(pusher PushDeliverer, reco recommender.Client, trainer recommender.Trainer, cache CacheInvalidator) *TaskProcessor {
	return &TaskProcessor{pusher: pusher, reco: reco, trainer: trainer, cache: cache}
}

// SetupServer configures an Asynq server and the mux to run it with.
func SetupServer(rdb *redis.Client, processor *TaskProcessor, concurrency int) (*asynq.Server, *asynq.ServeMux) {
	srv := asynq.NewServer(
		redisOpt(rdb),
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				QueueCritical: 6,
				QueueDefault:  3,
				QueueLow:      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logging.Error().Err(err).
					Str("task_type", task.Type()).
					Bytes("payload", task.Payload()).
					Msg("task failed")
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypePushDelivery, processor.HandlePushDeliveryTask)
	mux.HandleFunc(TypeRecommenderEvent, processor.HandleRecommenderEventTask)
	mux.HandleFunc(TypeRecommenderTrain, processor.HandleTrainTask)
	return srv, mux
}

// --- Task Handlers ---

// HandlePushDeliveryTask delivers one push. Only device lookup failures are retried.
func (p *TaskProcessor) HandlePushDeliveryTask(ctx context.Context, t *asynq.Task) error {
	var payload PushPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal push task payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.UserID.IsZero() {
		return fmt.Errorf("push task without user: %w", asynq.SkipRetry)
	}
	return p.pusher.Deliver(ctx, payload.UserID, payload.Notice)
}

// HandleRecommenderEventTask forwards an interaction to the recommender.
func (p *TaskProcessor) HandleRecommenderEventTask(ctx context.Context, t *asynq.Task) error {
	var in recommender.Interaction
	if err := json.Unmarshal(t.Payload(), &in); err != nil {
		return fmt.Errorf("failed to unmarshal recommender event payload: %v: %w", err, asynq.SkipRetry)
	}
	if _, err := in.Routes(); err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	if err := recommender.Record(ctx, p.reco, in); err != nil {
		return err
	}
	logging.Debug().Str("kind", string(in.Kind)).Msg("recommender event recorded")
	return nil
}

// HandleTrainTask retrains the recommender and drops cached recommendations.
func (p *TaskProcessor) HandleTrainTask(ctx context.Context, t *asynq.Task) error {
	start := time.Now()
	if err := p.trainer.Train(ctx); err != nil {
		return fmt.Errorf("recommender training failed: %w", err)
	}

	dropped := 0
	if p.cache != nil {
		n, err := p.cache.InvalidateAll(ctx)
		if err != nil {
			// Stale entries expire on their own.
			logging.Warn().Err(err).Msg("failed to invalidate recommendation cache")
		}
		dropped = n
	}
	logging.Info().
		Dur("elapsed", time.Since(start)).
		Int("cache_entries_dropped", dropped).
		Msg("recommender retrained")
	return nil
}

// IsDuplicate reports whether err means an identical unique task is already queued.
func IsDuplicate(err error) bool {
	return errors.Is(err, asynq.ErrDuplicateTask) || errors.Is(err, asynq.ErrTaskIDConflict)
}
