package jobs

import (
	"context"
	"fmt"

	"github.com/valuora/backend/internal/valuation"
	"github.com/valuora/backend/pkg/logger"
)

// UniverseSource lists the tickers a batch run should cover.
type UniverseSource interface {
	Tickers(ctx context.Context) ([]string, error)
}

// ValuationJob runs the full-universe valuation batch. Scheduled
// nightly after market data settles; safe to re-run, every run writes
// fresh result rows.
type ValuationJob struct {
	batch    *valuation.Batch
	universe UniverseSource
	schedule string
	logger   *logger.Logger
}

// NewValuationJob creates the nightly batch job. An empty schedule
// defaults to 02:30 every day.
func NewValuationJob(batch *valuation.Batch, universe UniverseSource, schedule string, log *logger.Logger) *ValuationJob {
	if schedule == "" {
		schedule = "0 30 2 * * *"
	}
	return &ValuationJob{
		batch:    batch,
		universe: universe,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name.
func (j *ValuationJob) Name() string {
	return "nightly_valuation"
}

// Schedule returns the cron expression.
func (j *ValuationJob) Schedule() string {
	return j.schedule
}

// Run values the whole universe. Per-company failures are tallied by
// the batch, not surfaced here; only an empty universe or a listing
// failure fails the job itself.
func (j *ValuationJob) Run(ctx context.Context) error {
	tickers, err := j.universe.Tickers(ctx)
	if err != nil {
		return fmt.Errorf("list universe: %w", err)
	}
	if len(tickers) == 0 {
		return fmt.Errorf("valuation universe is empty")
	}

	summary := j.batch.Run(ctx, tickers)
	j.logger.WithFields(map[string]interface{}{
		"total":        summary.Total,
		"succeeded":    summary.Succeeded,
		"no_valuation": summary.NoValuation,
		"failed":       summary.Failed,
	}).Info("Nightly valuation finished")

	if summary.Succeeded == 0 {
		return fmt.Errorf("nightly valuation: 0 of %d companies valued", summary.Total)
	}
	return nil
}
