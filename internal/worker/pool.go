package worker

import (
	"sync"

	"github.com/csmith1188/digipogs/internal/metrics"
)

type task func()

// Pool runs best-effort background jobs (audit writes) off the request path.
type Pool struct {
	mu     sync.Mutex
	wg     sync.WaitGroup
	jobs   chan task
	closed bool
}

func NewPool(n int) *Pool {
	p := &Pool{jobs: make(chan task, 1024)}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				job()
				metrics.WorkerQueueDepth.Set(float64(len(p.jobs)))
			}
		}()
	}
	return p
}

// Submit enqueues a job. Jobs are best-effort: after Stop the job is dropped
// rather than panicking a request that raced shutdown.
func (p *Pool) Submit(f task) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.jobs <- f
	metrics.WorkerQueueDepth.Set(float64(len(p.jobs)))
}

// Stop drains queued jobs and waits for the workers to exit.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}
