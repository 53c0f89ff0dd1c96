package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/domain"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/groupid"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/ports"
)

type TextAssembler interface {
	Assemble(ctx context.Context, pdfPath string, progress ProgressFunc) (domain.AssembledDocument, error)
}

// DocumentObserver receives the outcome of every processed document.
type DocumentObserver interface {
	ObserveDocument(status string, duration time.Duration)
}

// ProcessDocumentUseCase runs download, assembly and upload for one document.
type ProcessDocumentUseCase struct {
	store     ports.ObjectStore
	assembler TextAssembler
	log       ports.ExtractionLog
	notifier  ports.ExtractionNotifier
	workDir   string
	observer  DocumentObserver
	now       func() time.Time
}

func NewProcessDocumentUseCase(
	store ports.ObjectStore,
	assembler TextAssembler,
	log ports.ExtractionLog,
	notifier ports.ExtractionNotifier,
	workDir string,
) *ProcessDocumentUseCase {
	return &ProcessDocumentUseCase{
		store:     store,
		assembler: assembler,
		log:       log,
		notifier:  notifier,
		workDir:   workDir,
		now:       time.Now,
	}
}

func (uc *ProcessDocumentUseCase) SetObserver(observer DocumentObserver) {
	uc.observer = observer
}

func (uc *ProcessDocumentUseCase) Process(ctx context.Context, req domain.SingleRequest) (*domain.DocumentSummary, error) {
	return uc.ProcessWithProgress(ctx, req, nil)
}

func (uc *ProcessDocumentUseCase) ProcessWithProgress(
	ctx context.Context,
	req domain.SingleRequest,
	progress ProgressFunc,
) (*domain.DocumentSummary, error) {
	if err := validateSingleRequest(req); err != nil {
		return nil, err
	}

	start := uc.now()
	summary, assembled, err := uc.processPipeline(ctx, req, progress)
	duration := uc.now().Sub(start)

	uc.record(ctx, req, assembled, err)
	if err != nil {
		uc.observe(domain.StatusError, duration)
		slog.Warn("document_failed",
			"source_bucket", req.SourceBucket,
			"source_key", req.SourceKey,
			"duration_ms", duration.Milliseconds(),
			"error", err,
		)
		return nil, err
	}

	uc.observe(domain.StatusSuccess, duration)
	uc.notify(ctx, *summary)
	slog.Info("document_processed",
		"source_key", req.SourceKey,
		"dest_bucket", req.DestBucket,
		"dest_key", req.DestKey,
		"total_pages", summary.TotalPages,
		"pages_processed", summary.PagesProcessed,
		"document_type", string(summary.DocumentType),
		"duration_ms", duration.Milliseconds(),
	)
	return summary, nil
}

func (uc *ProcessDocumentUseCase) processPipeline(
	ctx context.Context,
	req domain.SingleRequest,
	progress ProgressFunc,
) (*domain.DocumentSummary, domain.AssembledDocument, error) {
	workDir, err := os.MkdirTemp(uc.workDir, "ocr-*")
	if err != nil {
		return nil, domain.AssembledDocument{}, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	pdfPath := filepath.Join(workDir, "source.pdf")
	if err := uc.download(ctx, req, pdfPath); err != nil {
		return nil, domain.AssembledDocument{}, err
	}

	assembled, err := uc.assemble(ctx, pdfPath, progress)
	if err != nil {
		return nil, assembled, err
	}

	textPath := filepath.Join(workDir, "output.txt")
	if err := os.WriteFile(textPath, []byte(assembled.Text), 0o644); err != nil {
		return nil, assembled, fmt.Errorf("write text file: %w", err)
	}

	if err := uc.upload(ctx, textPath, req); err != nil {
		return nil, assembled, err
	}

	return &domain.DocumentSummary{
		Status:         domain.StatusSuccess,
		SourceBucket:   req.SourceBucket,
		SourceKey:      req.SourceKey,
		DestBucket:     req.DestBucket,
		DestKey:        req.DestKey,
		Filename:       path.Base(req.DestKey),
		GroupID:        groupid.Extract(req.SourceKey),
		TotalPages:     assembled.PageCount,
		PagesProcessed: assembled.PagesWithText,
		DocumentType:   assembled.Type,
	}, assembled, nil
}

func (uc *ProcessDocumentUseCase) download(ctx context.Context, req domain.SingleRequest, pdfPath string) error {
	if err := uc.store.Download(ctx, req.SourceBucket, req.SourceKey, pdfPath); err != nil {
		return fmt.Errorf("download source: %w", err)
	}
	return nil
}

func (uc *ProcessDocumentUseCase) assemble(ctx context.Context, pdfPath string, progress ProgressFunc) (domain.AssembledDocument, error) {
	assembled, err := uc.assembler.Assemble(ctx, pdfPath, progress)
	if err != nil {
		return assembled, fmt.Errorf("assemble document: %w", err)
	}
	return assembled, nil
}

func (uc *ProcessDocumentUseCase) upload(ctx context.Context, textPath string, req domain.SingleRequest) error {
	if err := uc.store.Upload(ctx, textPath, req.DestBucket, req.DestKey); err != nil {
		return fmt.Errorf("upload text: %w", err)
	}
	return nil
}

func (uc *ProcessDocumentUseCase) record(ctx context.Context, req domain.SingleRequest, assembled domain.AssembledDocument, processErr error) {
	if uc.log == nil {
		return
	}
	rec := domain.ExtractionRecord{
		ID:             uuid.NewString(),
		GroupID:        groupid.Extract(req.SourceKey),
		SourceBucket:   req.SourceBucket,
		SourceKey:      req.SourceKey,
		DestBucket:     req.DestBucket,
		DestKey:        req.DestKey,
		Status:         domain.StatusSuccess,
		TotalPages:     assembled.PageCount,
		PagesProcessed: assembled.PagesWithText,
		DocumentType:   assembled.Type,
		CreatedAt:      uc.now().UTC(),
	}
	if processErr != nil {
		rec.Status = domain.StatusError
		rec.Error = processErr.Error()
	}
	if err := uc.log.Record(ctx, rec); err != nil {
		slog.Warn("extraction_log_failed", "source_key", req.SourceKey, "error", err)
	}
}

func (uc *ProcessDocumentUseCase) notify(ctx context.Context, summary domain.DocumentSummary) {
	if uc.notifier == nil {
		return
	}
	if err := uc.notifier.PublishDocumentExtracted(ctx, summary); err != nil {
		slog.Warn("extraction_notify_failed", "dest_key", summary.DestKey, "error", err)
	}
}

func (uc *ProcessDocumentUseCase) observe(status string, duration time.Duration) {
	if uc.observer != nil {
		uc.observer.ObserveDocument(status, duration)
	}
}

func validateSingleRequest(req domain.SingleRequest) error {
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
	if strings.TrimSpace(req.DestKey) == "" {
		missing = append(missing, "dest_key")
	}
	if len(missing) > 0 {
		return domain.WrapError(domain.ErrInvalidInput, "validate request", errors.New(strings.Join(missing, ", ")+" required"))
	}
	return nil
}
