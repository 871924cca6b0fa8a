// Package jobs runs periodic background work such as link reconciliation
// and the expiry sweep.
package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"

	"carpool/internal/redis"
)

// Job is a named unit of periodic work.
type Job struct {
	Name       string
	Interval   time.Duration
	RunOnStart bool
	Run        func(ctx context.Context) error
}

// Runner schedules jobs on tickers. When a lock store is configured, each
// run first takes a cluster-wide lock so only one instance works per tick.
type Runner struct {
	lockStore redis.LockStoreInterface
	lockTTL   time.Duration
	nrApp     *newrelic.Application
	logger    zerolog.Logger
	wg        sync.WaitGroup
}

// NewRunner creates a new Runner. lockStore and nrApp may be nil.
func NewRunner(lockStore redis.LockStoreInterface, lockTTL time.Duration, nrApp *newrelic.Application, logger zerolog.Logger) *Runner {
	return &Runner{
		lockStore: lockStore,
		lockTTL:   lockTTL,
		nrApp:     nrApp,
		logger:    logger.With().Str("component", "jobs").Logger(),
	}
}

// Start launches every job in its own goroutine until ctx is cancelled.
func (r *Runner) Start(ctx context.Context, jobs ...Job) {
	for _, job := range jobs {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.loop(ctx, job)
		}()
	}
}

// Wait blocks until all jobs have stopped.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) loop(ctx context.Context, job Job) {
	if job.RunOnStart {
		r.RunOnce(ctx, job)
	}

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RunOnce(ctx, job)
		}
	}
}

// RunOnce executes job a single time, honouring the lock.
// Reports whether the job actually ran.
func (r *Runner) RunOnce(ctx context.Context, job Job) bool {
	logger := r.logger.With().Str("job", job.Name).Logger()

	if r.lockStore != nil {
		acquired, err := r.lockStore.AcquireJobLock(ctx, job.Name, r.lockTTL)
		if err != nil {
			logger.Warn().Err(err).Msg("job lock unavailable, skipping run")
			return false
		}
		if !acquired {
			logger.Debug().Msg("job running elsewhere, skipping run")
			return false
		}
		defer func() {
			if err := r.lockStore.ReleaseJobLock(context.WithoutCancel(ctx), job.Name); err != nil {
				logger.Warn().Err(err).Msg("failed to release job lock")
			}
		}()
	}

	txn := r.nrApp.StartTransaction("job/" + job.Name)
	defer txn.End()
	runCtx := newrelic.NewContext(ctx, txn)

	start := time.Now()
	if err := job.Run(runCtx); err != nil {
		txn.NoticeError(err)
		logger.Error().Err(err).Dur("took", time.Since(start)).Msg("job failed")
		return true
	}
	logger.Debug().Dur("took", time.Since(start)).Msg("job finished")
	return true
}
