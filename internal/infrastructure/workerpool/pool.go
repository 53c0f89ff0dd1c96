package workerpool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	ErrQueueFull = errors.New("worker queue is full")
	ErrClosed    = errors.New("worker pool is shut down")
)

type Job func(ctx context.Context)

// Observer is notified about queue depth and job execution.
type Observer interface {
	JobQueued(depth int)
	JobStarted()
	JobFinished()
}

// Pool runs jobs on a fixed number of workers fed by a bounded queue. Jobs
// run detached from the submitter's context and always run to completion.
type Pool struct {
	workers  int
	ch       chan Job
	observer Observer

	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*Pool)

func WithWorkers(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.ch = make(chan Job, n)
		}
	}
}

func WithObserver(o Observer) Option {
	return func(p *Pool) {
		p.observer = o
	}
}

func New(opts ...Option) *Pool {
	p := &Pool{
		workers: 4,
		ch:      make(chan Job, 64),
	}
	for _, o := range opts {
		o(p)
	}
	p.start()
	return p
}

func (p *Pool) start() {
	p.once.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go func(workerID int) {
				defer p.wg.Done()
				slog.Debug("worker_started", "worker_id", workerID)
				for job := range p.ch {
					p.run(workerID, job)
				}
				slog.Debug("worker_stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (p *Pool) run(workerID int, job Job) {
	if p.observer != nil {
		p.observer.JobStarted()
		defer p.observer.JobFinished()
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("worker_job_panic", "worker_id", workerID, "panic", fmt.Sprint(r))
		}
	}()
	job(context.Background())
}

// Submit enqueues job without blocking.
func (p *Pool) Submit(job func(context.Context)) error {
	if job == nil {
		return fmt.Errorf("workerpool: job is nil")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.ch <- job:
		if p.observer != nil {
			p.observer.JobQueued(len(p.ch))
		}
		return nil
	default:
		return ErrQueueFull
	}
}

// Shutdown stops accepting jobs and waits for queued ones until ctx is done.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.ch)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.wg.Wait()
	}()

	select {
	case <-ctx.Done():
		slog.Warn("worker_pool_shutdown_interrupted", "error", ctx.Err())
		return ctx.Err()
	case <-done:
		return nil
	}
}
