package valuation

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/valuora/backend/internal/contracts"
	"github.com/valuora/backend/pkg/logger"
)

// BatchConfig bounds a batch run. Zero values fall back to defaults.
type BatchConfig struct {
	Workers           int           // concurrent companies
	PerCompanyTimeout time.Duration // budget for one valuation
	RatePerSecond     float64       // company starts per second, 0 = unlimited
}

const (
	defaultWorkers           = 4
	defaultPerCompanyTimeout = 30 * time.Second
)

// BatchSummary is the outcome of one batch run.
type BatchSummary struct {
	Total       int
	Succeeded   int
	NoValuation int
	Failed      int
	Elapsed     time.Duration
}

// Batch fans a ticker list over a bounded worker pool. Companies are
// independent: one slow or broken company burns its own timeout and
// nothing else.
type Batch struct {
	svc     *Service
	results contracts.ResultRepository // nil = don't persist
	cfg     BatchConfig
	log     *logger.Logger
}

// NewBatch creates a batch runner. Pass a nil results repository to
// run without persistence.
func NewBatch(svc *Service, results contracts.ResultRepository, cfg BatchConfig, log *logger.Logger) *Batch {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.PerCompanyTimeout <= 0 {
		cfg.PerCompanyTimeout = defaultPerCompanyTimeout
	}
	return &Batch{svc: svc, results: results, cfg: cfg, log: log}
}

// Run values every ticker and returns the tally. The passed context
// cancels the whole batch; per-company timeouts are layered on top.
func (b *Batch) Run(ctx context.Context, tickers []string) BatchSummary {
	started := time.Now()

	var limiter *rate.Limiter
	if b.cfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(b.cfg.RatePerSecond), 1)
	}

	jobs := make(chan string)
	var (
		mu      sync.Mutex
		summary BatchSummary
	)
	summary.Total = len(tickers)

	var wg sync.WaitGroup
	for w := 0; w < b.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ticker := range jobs {
				if limiter != nil {
					if err := limiter.Wait(ctx); err != nil {
						return
					}
				}
				outcome := b.one(ctx, ticker)

				mu.Lock()
				switch outcome {
				case outcomeOK:
					summary.Succeeded++
				case outcomeNoValuation:
					summary.NoValuation++
				default:
					summary.Failed++
				}
				mu.Unlock()
			}
		}()
	}

	for _, ticker := range tickers {
		select {
		case jobs <- ticker:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			// In-flight companies have landed in the tally by now; only
			// the never-dispatched remainder counts as failed.
			summary.Failed += summary.Total - summary.Succeeded - summary.NoValuation - summary.Failed
			summary.Elapsed = time.Since(started)
			return summary
		}
	}
	close(jobs)
	wg.Wait()

	summary.Elapsed = time.Since(started)
	b.log.WithFields(map[string]interface{}{
		"total":        summary.Total,
		"succeeded":    summary.Succeeded,
		"no_valuation": summary.NoValuation,
		"failed":       summary.Failed,
		"elapsed":      summary.Elapsed.String(),
	}).Info("Batch complete")
	return summary
}

type outcome int

const (
	outcomeOK outcome = iota
	outcomeNoValuation
	outcomeFailed
)

// one values a single company under its own timeout and persists the
// result when a repository is wired.
func (b *Batch) one(ctx context.Context, ticker string) outcome {
	runCtx, cancel := context.WithTimeout(ctx, b.cfg.PerCompanyTimeout)
	defer cancel()

	result, err := b.svc.ValueCompany(runCtx, ticker)
	if err != nil {
		if errors.Is(err, contracts.ErrNoValuation) {
			b.log.WithField("ticker", ticker).Warn("No valuation possible")
			return outcomeNoValuation
		}
		b.log.WithError(err).WithField("ticker", ticker).Error("Valuation failed")
		return outcomeFailed
	}

	if b.results != nil {
		if err := b.results.Save(runCtx, result); err != nil {
			b.log.WithError(err).WithField("ticker", ticker).Error("Result save failed")
			return outcomeFailed
		}
	}
	return outcomeOK
}
