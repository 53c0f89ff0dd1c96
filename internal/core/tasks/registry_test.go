package tasks

import (
	"sync"
	"testing"
	"time"

	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/domain"
)

func TestSubmitStartsInProgress(t *testing.T) {
	r := NewRegistry()
	id := r.Submit()

	snap, err := r.Read(id)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if snap.State != domain.TaskInProgress || snap.Progress != "0/0" {
		t.Fatalf("unexpected initial snapshot: %+v", snap)
	}
	if _, err := r.Read(id); err != nil {
		t.Fatalf("expected in-progress task to survive a read, got %v", err)
	}
}

func TestTerminalReadConsumesTask(t *testing.T) {
	r := NewRegistry()
	id := r.Submit()
	if err := r.UpdateProgress(id, 1, 3); err != nil {
		t.Fatalf("UpdateProgress() error = %v", err)
	}
	if err := r.Complete(id, domain.DocumentSummary{Status: domain.StatusSuccess, TotalPages: 3}); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	snap, err := r.Read(id)
	if err != nil {
		t.Fatalf("first Read() error = %v", err)
	}
	if snap.State != domain.TaskOK || snap.Progress != "3/3" || snap.Result == nil {
		t.Fatalf("unexpected terminal snapshot: %+v", snap)
	}

	_, err = r.Read(id)
	if !domain.IsKind(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound on second read, got %v", err)
	}
}

func TestFailPreservesLastProgress(t *testing.T) {
	r := NewRegistry()
	id := r.Submit()
	_ = r.UpdateProgress(id, 2, 5)
	if err := r.Fail(id, "download source: boom"); err != nil {
		t.Fatalf("Fail() error = %v", err)
	}

	snap, err := r.Read(id)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if snap.State != domain.TaskError || snap.Progress != "2/5" || snap.Error != "download source: boom" {
		t.Fatalf("unexpected failed snapshot: %+v", snap)
	}
}

func TestNoTransitionOutOfTerminalState(t *testing.T) {
	r := NewRegistry()
	id := r.Submit()
	_ = r.Fail(id, "x")

	if err := r.UpdateProgress(id, 1, 1); !domain.IsKind(err, domain.ErrTaskNotInProgress) {
		t.Fatalf("expected ErrTaskNotInProgress, got %v", err)
	}
	if err := r.Complete(id, domain.DocumentSummary{}); !domain.IsKind(err, domain.ErrTaskNotInProgress) {
		t.Fatalf("expected ErrTaskNotInProgress, got %v", err)
	}
}

func TestReadUnknownTask(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Read("missing"); !domain.IsKind(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestConcurrentReadersSeeTerminalStateOnce(t *testing.T) {
	r := NewRegistry()
	id := r.Submit()
	_ = r.Complete(id, domain.DocumentSummary{TotalPages: 1})

	var wg sync.WaitGroup
	var mu sync.Mutex
	hits := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Read(id); err == nil {
				mu.Lock()
				hits++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if hits != 1 {
		t.Fatalf("expected exactly one successful read, got %d", hits)
	}
}

func TestEvictExpiredDropsOnlyOldTerminalTasks(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewRegistry(WithResultTTL(time.Hour), WithClock(func() time.Time { return now }))

	done := r.Submit()
	_ = r.Complete(done, domain.DocumentSummary{TotalPages: 1})
	running := r.Submit()

	now = now.Add(2 * time.Hour)
	fresh := r.Submit()
	_ = r.Fail(fresh, "x")

	if n := r.EvictExpired(); n != 1 {
		t.Fatalf("expected 1 eviction, got %d", n)
	}
	if _, err := r.Read(done); !domain.IsKind(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected expired task to be gone, got %v", err)
	}
	if _, err := r.Read(running); err != nil {
		t.Fatalf("expected running task to remain, got %v", err)
	}
	if _, err := r.Read(fresh); err != nil {
		t.Fatalf("expected fresh terminal task to remain, got %v", err)
	}
}
