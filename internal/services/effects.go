package services

import (
	"context"

	"swapp/api/internal/push"
	"swapp/api/internal/recommender"
	"swapp/api/internal/utils"
)

// Effects schedules the best-effort work that follows a committed write.
// Implementations must not fail the caller; errors are theirs to log.
type Effects interface {
	Push(ctx context.Context, userID utils.SixID, n push.Notice)
	Record(ctx context.Context, in recommender.Interaction)
	Retrain(ctx context.Context)
}

// NopEffects discards everything.
type NopEffects struct{}

func (NopEffects) Push(context.Context, utils.SixID, push.Notice)  {}
func (NopEffects) Record(context.Context, recommender.Interaction) {}
func (NopEffects) Retrain(context.Context)                         {}
