// Package jobs holds the concrete scheduled jobs.
package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/factorlab-lite/internal/contracts"
	"github.com/wonny/factorlab-lite/pkg/logger"
)

// PrewarmJob refreshes the day's auto pool and name caches shortly after the
// market opens, so interactive runs are served from cache and stay well
// inside the wall-clock budget.
type PrewarmJob struct {
	provider contracts.DataProvider
	poolSize int
	logger   *logger.Logger
}

// NewPrewarmJob creates a prewarm job
func NewPrewarmJob(provider contracts.DataProvider, poolSize int, log *logger.Logger) *PrewarmJob {
	return &PrewarmJob{
		provider: provider,
		poolSize: poolSize,
		logger:   log,
	}
}

// Name returns the job name
func (j *PrewarmJob) Name() string {
	return "cache_prewarm"
}

// Schedule runs on trading days at 09:45 CST, after the opening auction
// settles.
func (j *PrewarmJob) Schedule() string {
	return "0 45 9 * * 1-5"
}

// Run fetches the auto pool once; the fetch path persists both the pool
// entry and, through name resolution, the day's name snapshot.
func (j *PrewarmJob) Run(ctx context.Context) error {
	candidates, err := j.provider.AutoPool(ctx, j.poolSize)
	if err != nil {
		return fmt.Errorf("prewarm auto pool: %w", err)
	}

	codes := make([]string, len(candidates))
	for i, c := range candidates {
		codes[i] = c.Code
	}
	names := j.provider.ResolveNames(ctx, codes)

	j.logger.WithFields(map[string]interface{}{
		"pool":  len(candidates),
		"names": len(names),
	}).Info("Caches prewarmed")
	return nil
}
