package recommender

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"swapp/api/internal/apperr"
	"swapp/api/internal/logging"
	"swapp/api/internal/metrics"
	"swapp/api/internal/utils"
)

// BreakerSettings tunes BreakerClient.
type BreakerSettings struct {
	MinRequests  uint32
	FailureRatio float64
	Interval     time.Duration
	Timeout      time.Duration
}

// DefaultBreakerSettings opens after 60% failures over at least 10 requests
// and probes again after 30 seconds.
var DefaultBreakerSettings = BreakerSettings{
	MinRequests:  10,
	FailureRatio: 0.6,
	Interval:     time.Minute,
	Timeout:      30 * time.Second,
}

// BreakerClient guards Query with a circuit breaker. Events pass straight
// through since they run in the background with their own retries.
type BreakerClient struct {
	next Client
	cb   *gobreaker.CircuitBreaker[[]ItemScore]
	name string
}

func NewBreakerClient(next Client, s BreakerSettings) *BreakerClient {
	name := "recommender-query"
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]ItemScore](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= s.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &BreakerClient{next: next, cb: cb, name: name}
}

func (b *BreakerClient) Query(ctx context.Context, userID utils.SixID, num int) ([]ItemScore, error) {
	scores, err := b.cb.Execute(func() ([]ItemScore, error) {
		return b.next.Query(ctx, userID, num)
	})
	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
		return nil, apperr.Upstream(serviceName, err)
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
	}
	return scores, err
}

func (b *BreakerClient) SendEvent(ctx context.Context, app App, ev Event) error {
	return b.next.SendEvent(ctx, app, ev)
}

// State exposes the breaker state.
func (b *BreakerClient) State() gobreaker.State {
	return b.cb.State()
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}
