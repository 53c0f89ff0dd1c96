package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/domain"
)

type requestQueueFake struct {
	published  []domain.AsyncRequest
	publishErr error
	incoming   []domain.AsyncRequest
	handleErrs []error
}

func (q *requestQueueFake) PublishExtractionRequest(_ context.Context, req domain.AsyncRequest) error {
	if q.publishErr != nil {
		return q.publishErr
	}
	q.published = append(q.published, req)
	return nil
}

func (q *requestQueueFake) SubscribeExtractionRequests(ctx context.Context, handler func(context.Context, domain.AsyncRequest) error) error {
	for _, req := range q.incoming {
		q.handleErrs = append(q.handleErrs, handler(ctx, req))
	}
	return nil
}

type recordingProcessor struct {
	got []domain.SingleRequest
	err error
}

func (p *recordingProcessor) Process(_ context.Context, req domain.SingleRequest) (*domain.DocumentSummary, error) {
	p.got = append(p.got, req)
	if p.err != nil {
		return nil, p.err
	}
	return &domain.DocumentSummary{Status: domain.StatusSuccess, DestKey: req.DestKey}, nil
}

func TestEnqueueValidatesBeforePublishing(t *testing.T) {
	queue := &requestQueueFake{}
	uc := NewQueuedExtractionUseCase(queue, &recordingProcessor{})

	err := uc.Enqueue(context.Background(), domain.AsyncRequest{SourceKey: "a.pdf"})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if len(queue.published) != 0 {
		t.Fatalf("expected nothing published, got %d", len(queue.published))
	}

	req := domain.AsyncRequest{SourceBucket: "in", SourceKey: "a.pdf", DestBucket: "out"}
	if err := uc.Enqueue(context.Background(), req); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if len(queue.published) != 1 || queue.published[0] != req {
		t.Fatalf("unexpected published requests: %+v", queue.published)
	}
}

func TestEnqueueWrapsPublishError(t *testing.T) {
	cause := domain.WrapError(domain.ErrTemporary, "nats publish", errors.New("no servers"))
	uc := NewQueuedExtractionUseCase(&requestQueueFake{publishErr: cause}, &recordingProcessor{})

	err := uc.Enqueue(context.Background(), domain.AsyncRequest{SourceBucket: "in", SourceKey: "a.pdf", DestBucket: "out"})
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", err)
	}
}

func TestRunProcessesEachRequestWithDerivedDestination(t *testing.T) {
	queue := &requestQueueFake{incoming: []domain.AsyncRequest{
		{SourceBucket: "in", SourceKey: "docs/2008-00151/escritura.pdf", DestBucket: "out", DestPrefix: "processing/{group_id}/resources/split_text"},
		{SourceBucket: "in", SourceKey: "", DestBucket: "out"},
	}}
	processor := &recordingProcessor{}
	uc := NewQueuedExtractionUseCase(queue, processor)

	if err := uc.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(processor.got) != 1 {
		t.Fatalf("expected 1 processed request, got %d", len(processor.got))
	}
	if want := "processing/2008-00151/resources/split_text/escritura.txt"; processor.got[0].DestKey != want {
		t.Fatalf("expected dest key %q, got %q", want, processor.got[0].DestKey)
	}
	if queue.handleErrs[0] != nil || !domain.IsKind(queue.handleErrs[1], domain.ErrInvalidInput) {
		t.Fatalf("unexpected handler errors: %v", queue.handleErrs)
	}
}
