package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/domain"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/ports"
)

// TaskRegistry is the state store behind background extractions.
type TaskRegistry interface {
	Submit() string
	UpdateProgress(id string, done, total int) error
	Complete(id string, summary domain.DocumentSummary) error
	Fail(id string, message string) error
	Read(id string) (domain.TaskSnapshot, error)
	Discard(id string)
}

type ProgressProcessor interface {
	ProcessWithProgress(ctx context.Context, req domain.SingleRequest, progress ProgressFunc) (*domain.DocumentSummary, error)
}

// AsyncProcessUseCase accepts extractions, runs them on the job queue and
// reports back only through the task registry.
type AsyncProcessUseCase struct {
	store     ports.ObjectStore
	processor ProgressProcessor
	registry  TaskRegistry
	jobs      ports.JobQueue
}

func NewAsyncProcessUseCase(
	store ports.ObjectStore,
	processor ProgressProcessor,
	registry TaskRegistry,
	jobs ports.JobQueue,
) *AsyncProcessUseCase {
	return &AsyncProcessUseCase{
		store:     store,
		processor: processor,
		registry:  registry,
		jobs:      jobs,
	}
}

func (uc *AsyncProcessUseCase) Submit(ctx context.Context, req domain.AsyncRequest) (string, error) {
	if err := validateAsyncRequest(req); err != nil {
		return "", err
	}
	if _, err := uc.store.Head(ctx, req.SourceBucket, req.SourceKey); err != nil {
		return "", fmt.Errorf("check source: %w", err)
	}

	taskID := uc.registry.Submit()
	err := uc.jobs.Submit(func(jobCtx context.Context) {
		uc.run(jobCtx, taskID, req)
	})
	if err != nil {
		uc.registry.Discard(taskID)
		return "", domain.WrapError(domain.ErrTemporary, "enqueue extraction", err)
	}

	slog.Info("task_submitted", "task_id", taskID, "source_key", req.SourceKey)
	return taskID, nil
}

func (uc *AsyncProcessUseCase) State(_ context.Context, taskID string) (domain.TaskSnapshot, error) {
	if strings.TrimSpace(taskID) == "" {
		return domain.TaskSnapshot{}, domain.WrapError(domain.ErrInvalidInput, "read task", errors.New("task id is required"))
	}
	return uc.registry.Read(taskID)
}

func (uc *AsyncProcessUseCase) run(ctx context.Context, taskID string, req domain.AsyncRequest) {
	// a panicking job must still leave the task in a terminal state
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("task_panic", "task_id", taskID, "source_key", req.SourceKey, "panic", fmt.Sprint(rec))
			if failErr := uc.registry.Fail(taskID, fmt.Sprintf("internal error: %v", rec)); failErr != nil {
				slog.Warn("task_fail_failed", "task_id", taskID, "error", failErr)
			}
		}
	}()

	summary, err := uc.processor.ProcessWithProgress(ctx, singleFromAsync(req), func(done, total int) {
		if updateErr := uc.registry.UpdateProgress(taskID, done, total); updateErr != nil {
			slog.Warn("task_progress_failed", "task_id", taskID, "error", updateErr)
		}
	})
	if err != nil {
		if failErr := uc.registry.Fail(taskID, err.Error()); failErr != nil {
			slog.Warn("task_fail_failed", "task_id", taskID, "error", failErr)
		}
		return
	}
	if completeErr := uc.registry.Complete(taskID, *summary); completeErr != nil {
		slog.Warn("task_complete_failed", "task_id", taskID, "error", completeErr)
	}
}

func validateAsyncRequest(req domain.AsyncRequest) error {
	var missing []string
	if strings.TrimSpace(req.SourceBucket) == "" {
		missing = append(missing, "source_bucket")
	}
	if strings.TrimSpace(req.SourceKey) == "" {
		missing = append(missing, "source_key")
	}
	if strings.TrimSpace(req.DestBucket) == "" {
		missing = append(missing, "dest_bucket")
	}
	if len(missing) > 0 {
		return domain.WrapError(domain.ErrInvalidInput, "validate request", errors.New(strings.Join(missing, ", ")+" required"))
	}
	return nil
}
