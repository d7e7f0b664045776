package worker

import (
	"context"
	"sync"
	"sync/atomic"
)

type ProcessFunc[J any] func(ctx context.Context, job J) error

// Pool runs jobs on a fixed number of goroutines. Errors returned by the
// process func are counted, not propagated; callers record outcomes per job.
type Pool[J any] struct {
	numWorkers int
	jobs       chan J
	processor  ProcessFunc[J]
	wg         sync.WaitGroup
	processed  atomic.Int64
	failed     atomic.Int64
}

func NewPool[J any](numWorkers int, bufferSize int, processor ProcessFunc[J]) *Pool[J] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if bufferSize < 0 {
		bufferSize = 0
	}
	return &Pool[J]{
		numWorkers: numWorkers,
		jobs:       make(chan J, bufferSize),
		processor:  processor,
	}
}

func (p *Pool[J]) Start(ctx context.Context) {
	for i := 1; i <= p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

func (p *Pool[J]) worker(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			if err := p.processor(ctx, job); err != nil {
				p.failed.Add(1)
			}
			p.processed.Add(1)
		}
	}
}

// Submit queues a job, blocking while the buffer is full. It reports false if
// ctx is done before the job could be queued.
func (p *Pool[J]) Submit(ctx context.Context, job J) bool {
	select {
	case <-ctx.Done():
		return false
	case p.jobs <- job:
		return true
	}
}

// Stop closes the queue and waits for queued jobs to drain.
func (p *Pool[J]) Stop() {
	close(p.jobs)
	p.wg.Wait()
}

func (p *Pool[J]) Processed() int64 {
	return p.processed.Load()
}

func (p *Pool[J]) Failed() int64 {
	return p.failed.Load()
}
