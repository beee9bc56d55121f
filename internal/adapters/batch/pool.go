// Package batch runs independent per-record jobs on a bounded set of workers.
//
// Bulk decay recalculation and bulk rating updates touch records that never
// depend on each other within one batch, so each record is one job.
package batch

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/rankpoints/pkg/logger"
	"github.com/okian/rankpoints/pkg/metrics"
)

// Job processes the record at index.
type Job func(ctx context.Context, index int) error

// Pool fans record indexes out to a fixed number of workers. A Pool holds no
// goroutines between runs and may be shared; concurrent Run calls each get
// their own workers.
type Pool struct {
	workers int
	name    string
	logger  logger.Logger
}

// NewPool creates a pool with the given number of workers. A count below one
// uses runtime.NumCPU().
func NewPool(workers int, opts ...Option) *Pool {
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	p := &Pool{
		workers: workers,
		name:    "batch",
		logger:  logger.GetOrNop(),
	}

	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.Named(p.name)

	return p
}

// Workers returns the configured worker count.
func (p *Pool) Workers() int {
	return p.workers
}

// Run calls job for every index in [0, n). The first failing job stops the
// feed; jobs already handed to workers finish before Run returns the error,
// wrapped with the failing index. Cancelling ctx stops the feed the same way.
func (p *Pool) Run(ctx context.Context, n int, job Job) error {
	if job == nil {
		return ErrNilJob
	}
	if n <= 0 {
		return nil
	}

	start := time.Now()
	defer func() {
		metrics.RecordBatchLatency(float64(time.Since(start).Milliseconds()))
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(index int, err error) {
		once.Do(func() {
			firstErr = fmt.Errorf("record %d: %w", index, err)
			cancel()
		})
	}

	jobs := make(chan int)
	workers := min(p.workers, n)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if runCtx.Err() != nil {
					continue
				}
				if err := p.process(runCtx, i, job); err != nil {
					fail(i, err)
				}
			}
		}()
	}

feed:
	for i := 0; i < n; i++ {
		select {
		case <-runCtx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		p.logger.Error(ctx, "batch failed", logger.Int("records", n), logger.Error(firstErr))
		return firstErr
	}
	if err := ctx.Err(); err != nil {
		p.logger.Warn(ctx, "batch cancelled", logger.Int("records", n))
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}

	p.logger.Debug(ctx, "batch finished",
		logger.Int("records", n),
		logger.Int("workers", workers),
		logger.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// process runs a single job with metrics bookkeeping.
func (p *Pool) process(ctx context.Context, index int, job Job) error {
	metrics.AddBatchWorkersBusy(1)
	defer metrics.AddBatchWorkersBusy(-1)

	err := job(ctx, index)
	metrics.RecordBatchJob(err != nil)
	if err != nil {
		metrics.RecordErrorByComponent("batch", "job_failed")
	}
	return err
}
