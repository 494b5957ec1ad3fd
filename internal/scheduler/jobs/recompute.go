// Package jobs holds the scheduled analytics jobs.
package jobs

import (
	"context"
	"fmt"

	"github.com/cortexbi/cortex/internal/pipeline"
	"github.com/cortexbi/cortex/pkg/logger"
	"github.com/cortexbi/cortex/pkg/redis"
)

// RecomputeJob runs the full analytics recompute nightly, after the
// warehouse loads have settled, and flushes the dashboard cache so the
// next request serves fresh derived data.
type RecomputeJob struct {
	orchestrator *pipeline.Orchestrator
	cache        *redis.Cache
	logger       *logger.Logger
}

func NewRecomputeJob(orchestrator *pipeline.Orchestrator, cache *redis.Cache, log *logger.Logger) *RecomputeJob {
	return &RecomputeJob{
		orchestrator: orchestrator,
		cache:        cache,
		logger:       log,
	}
}

func (j *RecomputeJob) Name() string {
	return "analytics_recompute"
}

// Schedule runs at 3 AM daily.
func (j *RecomputeJob) Schedule() string {
	return "0 0 3 * * *"
}

func (j *RecomputeJob) Run(ctx context.Context) error {
	result, err := j.orchestrator.Run(ctx)
	if err != nil {
		return fmt.Errorf("recompute: %w", err)
	}

	if err := j.cache.Invalidate(ctx); err != nil {
		j.logger.WithError(err).Warn("cache invalidation failed after recompute")
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":  result.RunID,
		"scored":  result.ScoredCustomers,
		"cohorts": result.CohortCells,
	}).Info("Scheduled recompute finished")

	return nil
}
