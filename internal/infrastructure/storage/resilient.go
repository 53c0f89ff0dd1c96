package storage

import (
	"context"
	"errors"

	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/domain"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/ports"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/infrastructure/resilience"
)

// ResilientStore puts every object store call behind a circuit breaker so a
// failing backend is shed quickly instead of tying up workers.
type ResilientStore struct {
	next     ports.ObjectStore
	executor *resilience.Executor
}

func NewResilientStore(next ports.ObjectStore, executor *resilience.Executor) *ResilientStore {
	return &ResilientStore{next: next, executor: executor}
}

func (r *ResilientStore) Download(ctx context.Context, bucket, key, localPath string) error {
	return r.run(ctx, "storage.download", func(ctx context.Context) error {
		return r.next.Download(ctx, bucket, key, localPath)
	})
}

func (r *ResilientStore) Upload(ctx context.Context, localPath, bucket, key string) error {
	return r.run(ctx, "storage.upload", func(ctx context.Context) error {
		return r.next.Upload(ctx, localPath, bucket, key)
	})
}

func (r *ResilientStore) Head(ctx context.Context, bucket, key string) (domain.ObjectInfo, error) {
	var info domain.ObjectInfo
	err := r.run(ctx, "storage.head", func(ctx context.Context) error {
		var err error
		info, err = r.next.Head(ctx, bucket, key)
		return err
	})
	return info, err
}

func (r *ResilientStore) List(ctx context.Context, bucket, prefix string, fn func(domain.ObjectInfo) error) error {
	return r.run(ctx, "storage.list", func(ctx context.Context) error {
		return r.next.List(ctx, bucket, prefix, fn)
	})
}

func (r *ResilientStore) run(ctx context.Context, operation string, call func(context.Context) error) error {
	if r.executor == nil {
		return call(ctx)
	}
	err := r.executor.Execute(ctx, operation, call, classifyStorageError)
	if err != nil && resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}

func classifyStorageError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if domain.IsKind(err, domain.ErrDocumentNotFound) || domain.IsKind(err, domain.ErrInvalidInput) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}
