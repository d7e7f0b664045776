package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPool_StartStop(t *testing.T) {
	var processed atomic.Int64
	processor := func(ctx context.Context, job int) error {
		processed.Add(1)
		return nil
	}

	pool := NewPool(2, 10, processor)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	for i := 0; i < 5; i++ {
		if !pool.Submit(ctx, i) {
			t.Fatalf("submit %d rejected", i)
		}
	}

	pool.Stop()

	if processed.Load() != 5 {
		t.Errorf("expected 5 jobs processed, got %d", processed.Load())
	}
	if pool.Processed() != 5 {
		t.Errorf("expected pool to count 5 jobs, got %d", pool.Processed())
	}
}

func TestPool_ConcurrentSubmit(t *testing.T) {
	var processed atomic.Int64
	processor := func(ctx context.Context, job string) error {
		processed.Add(1)
		return nil
	}

	pool := NewPool(4, 100, processor)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pool.Submit(ctx, "cmf")
		}()
	}
	wg.Wait()
	pool.Stop()

	if processed.Load() != 100 {
		t.Errorf("expected 100 jobs processed, got %d", processed.Load())
	}
}

func TestPool_CountsFailures(t *testing.T) {
	processor := func(ctx context.Context, job int) error {
		if job%2 == 0 {
			return errors.New("even")
		}
		return nil
	}

	pool := NewPool(3, 0, processor)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	for i := 0; i < 10; i++ {
		pool.Submit(ctx, i)
	}
	pool.Stop()

	if pool.Failed() != 5 {
		t.Errorf("expected 5 failures, got %d", pool.Failed())
	}
	if pool.Processed() != 10 {
		t.Errorf("expected 10 processed, got %d", pool.Processed())
	}
}

func TestPool_GracefulShutdown(t *testing.T) {
	var processed atomic.Int64
	processor := func(ctx context.Context, job int) error {
		time.Sleep(10 * time.Millisecond)
		processed.Add(1)
		return nil
	}

	pool := NewPool(2, 50, processor)

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	for i := 0; i < 20; i++ {
		pool.Submit(ctx, i)
	}

	cancel()

	done := make(chan struct{})
	go func() {
		pool.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("pool.Stop() timed out")
	}

	t.Logf("processed %d jobs before shutdown", processed.Load())
}

func TestPool_SubmitAfterCancel(t *testing.T) {
	pool := NewPool(1, 0, func(ctx context.Context, job int) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// No workers are receiving, so only the cancelled context can unblock Submit.
	if pool.Submit(ctx, 1) {
		t.Error("expected submit to be rejected on a cancelled context")
	}
	pool.Stop()
}

func TestNewPool_ClampsWorkers(t *testing.T) {
	pool := NewPool(0, -1, func(ctx context.Context, job int) error { return nil })
	if pool.numWorkers != 1 {
		t.Errorf("expected 1 worker, got %d", pool.numWorkers)
	}
	if cap(pool.jobs) != 0 {
		t.Errorf("expected unbuffered queue, got cap %d", cap(pool.jobs))
	}
}
