// Package tasks tracks background extractions until their terminal state is
// read once.
package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/domain"
)

type entry struct {
	snapshot   domain.TaskSnapshot
	finishedAt time.Time
}

// Registry is the in-memory task table. Each task has exactly one writer
// (the worker running it) and any number of pollers.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry

	ttl time.Duration
	now func() time.Time
}

type Option func(*Registry)

// WithResultTTL evicts terminal tasks that nobody read within ttl. Zero disables eviction.
func WithResultTTL(ttl time.Duration) Option {
	return func(r *Registry) {
		r.ttl = ttl
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) Submit() string {
	id := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = &entry{snapshot: domain.TaskSnapshot{
		ID:       id,
		State:    domain.TaskInProgress,
		Progress: domain.FormatProgress(0, 0),
	}}
	return id
}

func (r *Registry) UpdateProgress(id string, done, total int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.inProgress(id)
	if err != nil {
		return err
	}
	e.snapshot.Done = done
	e.snapshot.Total = total
	e.snapshot.Progress = domain.FormatProgress(done, total)
	return nil
}

func (r *Registry) Complete(id string, summary domain.DocumentSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.inProgress(id)
	if err != nil {
		return err
	}
	total := summary.TotalPages
	if total == 0 {
		total = e.snapshot.Total
	}
	e.snapshot.State = domain.TaskOK
	e.snapshot.Done = total
	e.snapshot.Total = total
	e.snapshot.Progress = domain.FormatProgress(total, total)
	e.snapshot.Result = &summary
	e.finishedAt = r.now()
	return nil
}

func (r *Registry) Fail(id string, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.inProgress(id)
	if err != nil {
		return err
	}
	e.snapshot.State = domain.TaskError
	e.snapshot.Error = message
	e.finishedAt = r.now()
	return nil
}

// Read returns the task snapshot. Terminal tasks are removed in the same
// critical section, so only one poller ever observes a given result.
func (r *Registry) Read(id string) (domain.TaskSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return domain.TaskSnapshot{}, domain.WrapError(domain.ErrTaskNotFound, "read task", fmt.Errorf("id=%s", id))
	}
	snapshot := e.snapshot
	if snapshot.State.Terminal() {
		delete(r.entries, id)
	}
	return snapshot, nil
}

// Discard drops a task that never reached a worker.
func (r *Registry) Discard(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// EvictExpired removes terminal tasks older than the configured TTL and
// returns how many were dropped.
func (r *Registry) EvictExpired() int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for id, e := range r.entries {
		if !e.snapshot.State.Terminal() || e.finishedAt.After(cutoff) {
			continue
		}
		delete(r.entries, id)
		evicted++
	}
	return evicted
}

// RunJanitor evicts expired tasks every interval until ctx is done.
func (r *Registry) RunJanitor(ctx context.Context, interval time.Duration) error {
	if r.ttl <= 0 || interval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := r.EvictExpired(); n > 0 {
				slog.Info("task_evicted", "count", n, "ttl", r.ttl.String())
			}
		}
	}
}

func (r *Registry) inProgress(id string) (*entry, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrTaskNotFound, "update task", fmt.Errorf("id=%s", id))
	}
	if e.snapshot.State != domain.TaskInProgress {
		return nil, domain.WrapError(domain.ErrTaskNotInProgress, "update task", fmt.Errorf("id=%s state=%s", id, e.snapshot.State))
	}
	return e, nil
}
