package ports

import (
	"context"

	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/domain"
)

// DocumentProcessor is the inbound contract for synchronous single-document extraction.
type DocumentProcessor interface {
	Process(ctx context.Context, req domain.SingleRequest) (*domain.DocumentSummary, error)
}

// AsyncDocumentProcessor accepts background extractions and reports their state.
type AsyncDocumentProcessor interface {
	Submit(ctx context.Context, req domain.AsyncRequest) (string, error)
	State(ctx context.Context, taskID string) (domain.TaskSnapshot, error)
}

// BatchProcessor runs many documents sequentially and aggregates outcomes.
type BatchProcessor interface {
	ProcessMany(ctx context.Context, req domain.BatchRequest) (*domain.BatchResult, error)
	ProcessFolder(ctx context.Context, req domain.FolderRequest) (*domain.BatchResult, error)
}

type FolderStatsReader interface {
	FolderStats(ctx context.Context, bucket, prefix string) (*domain.FolderStats, error)
}

// ExtractionHistory is the read model over the extraction log.
type ExtractionHistory interface {
	ListByGroup(ctx context.Context, groupID string, limit int) ([]domain.ExtractionRecord, error)
}
