package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/domain"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/tasks"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/infrastructure/workerpool"
)

func TestSubmitRunsJobAndCompletesTask(t *testing.T) {
	store := newStoreFake()
	store.put("src", "folder/acta.PDF", []byte("%PDF"))
	asm := &assemblerFake{pages: 2, doc: domain.AssembledDocument{Text: "texto", PageCount: 2, PagesWithText: 2}}
	processor := NewProcessDocumentUseCase(store, asm, nil, nil, "")
	registry := tasks.NewRegistry()

	uc := NewAsyncProcessUseCase(store, processor, registry, inlineJobs{})
	id, err := uc.Submit(context.Background(), domain.AsyncRequest{
		SourceBucket: "src", SourceKey: "folder/acta.PDF", DestBucket: "dst", DestPrefix: "textos/",
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	snap, err := uc.State(context.Background(), id)
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}
	if snap.State != domain.TaskOK || snap.Progress != "2/2" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.Result == nil || snap.Result.DestKey != "textos/acta.txt" {
		t.Fatalf("expected derived destination key, got %+v", snap.Result)
	}
	if _, ok := store.get("dst", "textos/acta.txt"); !ok {
		t.Fatalf("expected uploaded output")
	}
	if _, err := uc.State(context.Background(), id); !domain.IsKind(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected consumed task, got %v", err)
	}
}

func TestSubmitRejectsMissingSource(t *testing.T) {
	registry := tasks.NewRegistry()
	uc := NewAsyncProcessUseCase(newStoreFake(), &ProcessDocumentUseCase{}, registry, inlineJobs{})

	_, err := uc.Submit(context.Background(), domain.AsyncRequest{SourceBucket: "src", SourceKey: "nope.pdf", DestBucket: "dst"})
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if registry.Len() != 0 {
		t.Fatalf("expected no task to be registered")
	}
}

func TestSubmitDiscardsTaskWhenQueueIsFull(t *testing.T) {
	store := newStoreFake()
	store.put("src", "a.pdf", []byte("%PDF"))
	registry := tasks.NewRegistry()
	uc := NewAsyncProcessUseCase(store, &ProcessDocumentUseCase{}, registry, inlineJobs{err: errors.New("queue full")})

	_, err := uc.Submit(context.Background(), domain.AsyncRequest{SourceBucket: "src", SourceKey: "a.pdf", DestBucket: "dst"})
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", err)
	}
	if registry.Len() != 0 {
		t.Fatalf("expected discarded task, registry has %d entries", registry.Len())
	}
}

func TestSubmitRecordsErrorState(t *testing.T) {
	store := newStoreFake()
	store.put("src", "blank.pdf", []byte("%PDF"))
	asm := &assemblerFake{pages: 3, err: domain.WrapError(domain.ErrNoExtractableText, "assemble", errors.New("none"))}
	registry := tasks.NewRegistry()
	uc := NewAsyncProcessUseCase(store, NewProcessDocumentUseCase(store, asm, nil, nil, ""), registry, inlineJobs{})

	id, err := uc.Submit(context.Background(), domain.AsyncRequest{SourceBucket: "src", SourceKey: "blank.pdf", DestBucket: "dst"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	snap, err := uc.State(context.Background(), id)
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}
	if snap.State != domain.TaskError || snap.Progress != "3/3" || snap.Error == "" {
		t.Fatalf("unexpected error snapshot: %+v", snap)
	}
}

type panickingProcessor struct{}

func (panickingProcessor) ProcessWithProgress(_ context.Context, _ domain.SingleRequest, progress ProgressFunc) (*domain.DocumentSummary, error) {
	progress(1, 4)
	panic("pdfcpu: corrupt xref")
}

func TestSubmitMarksTaskFailedWhenJobPanics(t *testing.T) {
	store := newStoreFake()
	store.put("src", "broken.pdf", []byte("%PDF"))
	registry := tasks.NewRegistry()
	pool := workerpool.New(workerpool.WithWorkers(1))
	uc := NewAsyncProcessUseCase(store, panickingProcessor{}, registry, pool)

	id, err := uc.Submit(context.Background(), domain.AsyncRequest{SourceBucket: "src", SourceKey: "broken.pdf", DestBucket: "dst"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if err := pool.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	snap, err := registry.Read(id)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if snap.State != domain.TaskError {
		t.Fatalf("expected state %s, got %s", domain.TaskError, snap.State)
	}
	if !strings.Contains(snap.Error, "corrupt xref") {
		t.Fatalf("expected panic message in error, got %q", snap.Error)
	}
}

func TestPanickedTaskIsEvictedAfterTTL(t *testing.T) {
	store := newStoreFake()
	store.put("src", "broken.pdf", []byte("%PDF"))
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	registry := tasks.NewRegistry(tasks.WithResultTTL(time.Minute), tasks.WithClock(func() time.Time { return now }))
	uc := NewAsyncProcessUseCase(store, panickingProcessor{}, registry, inlineJobs{})

	if _, err := uc.Submit(context.Background(), domain.AsyncRequest{SourceBucket: "src", SourceKey: "broken.pdf", DestBucket: "dst"}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	now = now.Add(2 * time.Minute)
	if n := registry.EvictExpired(); n != 1 {
		t.Fatalf("expected 1 evicted task, got %d", n)
	}
	if registry.Len() != 0 {
		t.Fatalf("expected empty registry, got %d entries", registry.Len())
	}
}
