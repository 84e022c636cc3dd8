package tasks

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"

	"swapp/api/internal/logging"
	"swapp/api/internal/metrics"
	"swapp/api/internal/push"
	"swapp/api/internal/recommender"
	"swapp/api/internal/utils"
)

// TaskClient is the part of *asynq.Client the Enqueuer needs.
type TaskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueuer schedules post-commit side effects as background tasks.
// Enqueue failures are logged and never reach the caller.
type Enqueuer struct {
	client TaskClient
}

func NewEnqueuer(client TaskClient) *Enqueuer {
	return &Enqueuer{client: client}
}

func (e *Enqueuer) Push(ctx context.Context, userID utils.SixID, n push.Notice) {
	e.enqueue(ctx, TypePushDelivery, PushPayload{UserID: userID, Notice: n},
		asynq.Queue(QueueCritical), asynq.MaxRetry(3))
}

func (e *Enqueuer) Record(ctx context.Context, in recommender.Interaction) {
	e.enqueue(ctx, TypeRecommenderEvent, in, asynq.Queue(QueueDefault), asynq.MaxRetry(5))
}

func (e *Enqueuer) Retrain(ctx context.Context) {
	e.enqueue(ctx, TypeRecommenderTrain, struct{}{},
		asynq.Queue(QueueLow), asynq.Unique(TrainUniqueTTL), asynq.MaxRetry(1))
}

func (e *Enqueuer) enqueue(ctx context.Context, taskType string, payload any, opts ...asynq.Option) {
	body, err := json.Marshal(payload)
	if err != nil {
		metrics.TasksEnqueued.WithLabelValues(taskType, "error").Inc()
		logging.Error().Err(err).Str("task_type", taskType).Msg("failed to marshal task payload")
		return
	}

	info, err := e.client.EnqueueContext(ctx, asynq.NewTask(taskType, body), opts...)
	switch {
	case IsDuplicate(err):
		metrics.TasksEnqueued.WithLabelValues(taskType, "duplicate").Inc()
		logging.Debug().Str("task_type", taskType).Msg("task already queued")
	case err != nil:
		metrics.TasksEnqueued.WithLabelValues(taskType, "error").Inc()
		logging.Error().Err(err).Str("task_type", taskType).Msg("failed to enqueue task")
	default:
		metrics.TasksEnqueued.WithLabelValues(taskType, "ok").Inc()
		logging.Debug().Str("task_type", taskType).Str("task_id", info.ID).Msg("task enqueued")
	}
}
