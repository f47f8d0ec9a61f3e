package workerpool

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestWorkerPool_RunsAllJobs(t *testing.T) {
	ctx := context.Background()
	pool := NewWorkerPool(ctx, discard, 4, 16)

	var ran atomic.Int32
	for range 10 {
		require.NoError(t, pool.Submit(func(ctx context.Context) {
			time.Sleep(time.Millisecond)
			ran.Add(1)
		}))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	require.NoError(t, pool.Shutdown(shutdownCtx))
	assert.Equal(t, int32(10), ran.Load())
}

func TestWorkerPool_QueueFull(t *testing.T) {
	ctx := context.Background()
	pool := NewWorkerPool(ctx, discard, 1, 1)

	release := make(chan struct{})
	started := make(chan struct{})

	require.NoError(t, pool.Submit(func(ctx context.Context) {
		close(started)
		<-release
	}))
	<-started

	require.NoError(t, pool.Submit(func(ctx context.Context) {}))
	assert.ErrorIs(t, pool.Submit(func(ctx context.Context) {}), ErrQueueFull)

	close(release)
	require.NoError(t, pool.Shutdown(ctx))
}

func TestWorkerPool_ShutdownTimeout(t *testing.T) {
	pool := NewWorkerPool(context.Background(), discard, 1, 1)

	release := make(chan struct{})
	defer close(release)

	require.NoError(t, pool.Submit(func(ctx context.Context) { <-release }))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, pool.Shutdown(ctx), context.DeadlineExceeded)
}

func TestWithRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds after failures", func(t *testing.T) {
		var attempts int
		var failed error

		job := WithRetry(discard, 3, time.Millisecond, func(ctx context.Context) error {
			attempts++
			if attempts < 2 {
				return errors.New("boom")
			}
			return nil
		}, func(err error) { failed = err })

		job(ctx)
		assert.Equal(t, 2, attempts)
		assert.NoError(t, failed)
	})

	t.Run("reports last error", func(t *testing.T) {
		var attempts int
		var failed error

		job := WithRetry(discard, 3, time.Millisecond, func(ctx context.Context) error {
			attempts++
			return errors.New("boom")
		}, func(err error) { failed = err })

		job(ctx)
		assert.Equal(t, 3, attempts)
		assert.EqualError(t, failed, "boom")
	})

	t.Run("canceled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		var attempts int
		var failed error

		job := WithRetry(discard, 3, time.Millisecond, func(ctx context.Context) error {
			attempts++
			return nil
		}, func(err error) { failed = err })

		job(cctx)
		assert.Zero(t, attempts)
		assert.ErrorIs(t, failed, context.Canceled)
	})
}
