package workerpool

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrQueueFull is returned by Submit when the queue has no free slot.
var ErrQueueFull = errors.New("worker pool queue full")

type Job func(ctx context.Context)

type WorkerPool struct {
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger
}

func NewWorkerPool(ctx context.Context, logger *slog.Logger, workerCount int, queueSize int) *WorkerPool {
	if workerCount < 1 {
		workerCount = 1
	}

	pool := &WorkerPool{
		queue:  make(chan Job, queueSize),
		logger: logger,
	}

	for range workerCount {
		go pool.worker(ctx)
	}

	return pool
}

func (p *WorkerPool) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("worker received shutdown signal")
			// drain so Shutdown does not wait on jobs nobody will run
			for range p.queue {
				p.wg.Done()
			}
			return
		case job, ok := <-p.queue:
			if !ok {
				return
			}
			job(ctx)
			p.wg.Done()
		}
	}
}

// Submit queues job without blocking.
func (p *WorkerPool) Submit(job Job) error {
	p.wg.Add(1)

	select {
	case p.queue <- job:
		return nil
	default:
		p.wg.Done()
		p.logger.Warn("worker pool queue full, job dropped")
		return ErrQueueFull
	}
}

// Shutdown stops accepting jobs and waits for queued ones to finish or for
// ctx to expire.
func (p *WorkerPool) Shutdown(ctx context.Context) error {
	close(p.queue)

	done := make(chan struct{})

	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		p.logger.Warn("worker pool shutdown timed out")
		return ctx.Err()
	case <-done:
		p.logger.Debug("worker pool shutdown complete")
		return nil
	}
}

// WithRetry runs job up to retries times, sleeping delay between failed
// attempts. The last error is passed to onFail.
func WithRetry(logger *slog.Logger, retries int, delay time.Duration, job func(ctx context.Context) error, onFail func(error)) Job {
	return func(ctx context.Context) {
		var err error

		for i := range retries {
			if ctx.Err() != nil {
				logger.Debug("job canceled before execution")
				err = ctx.Err()
				break
			}

			if err = job(ctx); err == nil {
				return
			}

			logger.Debug("job failed", "attempt", i+1, "retries", retries, "error", err)

			select {
			case <-ctx.Done():
			case <-time.After(delay):
			}
		}

		if onFail != nil && err != nil {
			onFail(err)
		}
	}
}
