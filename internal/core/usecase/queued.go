package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/domain"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/ports"
)

// QueuedExtractionUseCase moves extraction requests through a message queue:
// producers Enqueue, workers Run and process each request to completion.
type QueuedExtractionUseCase struct {
	queue     ports.ExtractionRequestQueue
	processor SingleProcessor
}

func NewQueuedExtractionUseCase(queue ports.ExtractionRequestQueue, processor SingleProcessor) *QueuedExtractionUseCase {
	return &QueuedExtractionUseCase{queue: queue, processor: processor}
}

func (uc *QueuedExtractionUseCase) Enqueue(ctx context.Context, req domain.AsyncRequest) error {
	if err := validateAsyncRequest(req); err != nil {
		return err
	}
	if err := uc.queue.PublishExtractionRequest(ctx, req); err != nil {
		return fmt.Errorf("publish extraction request: %w", err)
	}
	slog.Info("extraction_enqueued", "source_bucket", req.SourceBucket, "source_key", req.SourceKey)
	return nil
}

// Run blocks until ctx is done.
func (uc *QueuedExtractionUseCase) Run(ctx context.Context) error {
	return uc.queue.SubscribeExtractionRequests(ctx, uc.Handle)
}

func (uc *QueuedExtractionUseCase) Handle(ctx context.Context, req domain.AsyncRequest) error {
	if err := validateAsyncRequest(req); err != nil {
		return err
	}
	if _, err := uc.processor.Process(ctx, singleFromAsync(req)); err != nil {
		return fmt.Errorf("process queued document: %w", err)
	}
	return nil
}
