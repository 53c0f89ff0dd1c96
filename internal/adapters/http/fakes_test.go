package httpadapter

import (
	"context"
	"net/http"
	"time"

	"github.com/kirillkom/pdf-ocr-pipeline/internal/config"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/domain"
)

type processFake struct {
	err     error
	delay   time.Duration
	got     domain.SingleRequest
	ctxDone <-chan struct{}
}

func (f *processFake) Process(ctx context.Context, req domain.SingleRequest) (*domain.DocumentSummary, error) {
	f.got = req
	f.ctxDone = ctx.Done()
	time.Sleep(f.delay)
	if f.err != nil {
		return nil, f.err
	}
	return &domain.DocumentSummary{
		Status:         domain.StatusSuccess,
		SourceBucket:   req.SourceBucket,
		SourceKey:      req.SourceKey,
		DestBucket:     req.DestBucket,
		DestKey:        req.DestKey,
		GroupID:        "2008-00151",
		TotalPages:     3,
		PagesProcessed: 2,
		DocumentType:   domain.DocumentTypeCourtRecord,
	}, nil
}

type asyncFake struct {
	submitErr error
	snapshot  domain.TaskSnapshot
	stateErr  error
}

func (f *asyncFake) Submit(context.Context, domain.AsyncRequest) (string, error) {
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return "task-1", nil
}

func (f *asyncFake) State(_ context.Context, taskID string) (domain.TaskSnapshot, error) {
	if f.stateErr != nil {
		return domain.TaskSnapshot{}, f.stateErr
	}
	snap := f.snapshot
	snap.ID = taskID
	return snap, nil
}

type batchFake struct {
	err    error
	delay  time.Duration
	folder domain.FolderRequest
}

func (f *batchFake) ProcessMany(_ context.Context, req domain.BatchRequest) (*domain.BatchResult, error) {
	time.Sleep(f.delay)
	if f.err != nil {
		return nil, f.err
	}
	return &domain.BatchResult{Total: len(req.Keys), Succeeded: len(req.Keys), Items: []domain.BatchItem{}}, nil
}

func (f *batchFake) ProcessFolder(_ context.Context, req domain.FolderRequest) (*domain.BatchResult, error) {
	f.folder = req
	if f.err != nil {
		return nil, f.err
	}
	return &domain.BatchResult{Items: []domain.BatchItem{}}, nil
}

type statsFake struct {
	bucket, prefix string
}

func (f *statsFake) FolderStats(_ context.Context, bucket, prefix string) (*domain.FolderStats, error) {
	f.bucket, f.prefix = bucket, prefix
	return &domain.FolderStats{Bucket: bucket, Prefix: prefix, PDFCount: 2, TXTCount: 1, ProcessedRatio: "1/2"}, nil
}

type historyFake struct {
	limit int
}

func (f *historyFake) ListByGroup(_ context.Context, groupID string, limit int) ([]domain.ExtractionRecord, error) {
	f.limit = limit
	return []domain.ExtractionRecord{{ID: "r1", GroupID: groupID, Status: domain.StatusSuccess}}, nil
}

type routerFakes struct {
	process *processFake
	async   *asyncFake
	batch   *batchFake
	stats   *statsFake
	history *historyFake
}

func newTestRouter(cfg config.Config) (*Router, *routerFakes) {
	f := &routerFakes{
		process: &processFake{},
		async:   &asyncFake{},
		batch:   &batchFake{},
		stats:   &statsFake{},
		history: &historyFake{},
	}
	return NewRouter(cfg, f.process, f.async, f.batch, f.stats, f.history), f
}

func newTestHandler(cfg config.Config) http.Handler {
	rt, _ := newTestRouter(cfg)
	return rt.Handler()
}
