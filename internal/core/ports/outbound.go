package ports

import (
	"context"
	"image"

	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/domain"
)

// ObjectStore moves documents between buckets and local files. Missing
// objects are reported as domain.ErrDocumentNotFound.
type ObjectStore interface {
	Download(ctx context.Context, bucket, key, localPath string) error
	Upload(ctx context.Context, localPath, bucket, key string) error
	Head(ctx context.Context, bucket, key string) (domain.ObjectInfo, error)
	List(ctx context.Context, bucket, prefix string, fn func(domain.ObjectInfo) error) error
}

// Rasterizer renders an inclusive 1-based page range of a PDF.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdfPath string, firstPage, lastPage int, opts domain.RasterOptions) ([]image.Image, error)
}

// OCREngine recognizes text in a single image.
type OCREngine interface {
	Recognize(ctx context.Context, img image.Image, lang string, cfg domain.RecognitionConfig) (string, error)
}

// TextLayerReader reads text already embedded in a PDF. Page indices are 0-based.
type TextLayerReader interface {
	PageCount(ctx context.Context, pdfPath string) (int, error)
	PageText(ctx context.Context, pdfPath string, pageIndex int) (string, error)
}

// ExtractionLog keeps a history of processed documents.
type ExtractionLog interface {
	Record(ctx context.Context, rec domain.ExtractionRecord) error
	ListByGroup(ctx context.Context, groupID string, limit int) ([]domain.ExtractionRecord, error)
}

// ExtractionNotifier announces uploaded documents.
type ExtractionNotifier interface {
	PublishDocumentExtracted(ctx context.Context, summary domain.DocumentSummary) error
}

// ExtractionRequestQueue carries extraction requests between processes.
type ExtractionRequestQueue interface {
	PublishExtractionRequest(ctx context.Context, req domain.AsyncRequest) error
	SubscribeExtractionRequests(ctx context.Context, handler func(context.Context, domain.AsyncRequest) error) error
}

// JobQueue runs background jobs on a bounded set of workers.
type JobQueue interface {
	Submit(job func(context.Context)) error
}
