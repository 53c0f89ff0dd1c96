package usecase

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/domain"
)

type storeFake struct {
	mu      sync.Mutex
	objects map[string][]byte

	downloadErr error
	uploadErr   error
	listErr     error
	uploads     []string
}

func newStoreFake() *storeFake {
	return &storeFake{objects: make(map[string][]byte)}
}

func (f *storeFake) put(bucket, key string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[bucket+"/"+key] = data
}

func (f *storeFake) get(bucket, key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[bucket+"/"+key]
	return data, ok
}

func (f *storeFake) Download(_ context.Context, bucket, key, localPath string) error {
	if f.downloadErr != nil {
		return f.downloadErr
	}
	data, ok := f.get(bucket, key)
	if !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "download", fmt.Errorf("%s/%s", bucket, key))
	}
	return os.WriteFile(localPath, data, 0o644)
}

func (f *storeFake) Upload(_ context.Context, localPath, bucket, key string) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	f.put(bucket, key, data)
	f.mu.Lock()
	f.uploads = append(f.uploads, bucket+"/"+key)
	f.mu.Unlock()
	return nil
}

func (f *storeFake) Head(_ context.Context, bucket, key string) (domain.ObjectInfo, error) {
	data, ok := f.get(bucket, key)
	if !ok {
		return domain.ObjectInfo{}, domain.WrapError(domain.ErrDocumentNotFound, "head", fmt.Errorf("%s/%s", bucket, key))
	}
	return domain.ObjectInfo{Bucket: bucket, Key: key, Size: int64(len(data))}, nil
}

func (f *storeFake) List(_ context.Context, bucket, prefix string, fn func(domain.ObjectInfo) error) error {
	if f.listErr != nil {
		return f.listErr
	}
	f.mu.Lock()
	var names []string
	for name := range f.objects {
		names = append(names, name)
	}
	f.mu.Unlock()
	sort.Strings(names)

	for _, name := range names {
		key, ok := strings.CutPrefix(name, bucket+"/")
		if !ok || !strings.HasPrefix(key, prefix) {
			continue
		}
		data, _ := f.get(bucket, key)
		if err := fn(domain.ObjectInfo{Bucket: bucket, Key: key, Size: int64(len(data))}); err != nil {
			return err
		}
	}
	return nil
}

type textLayerFake struct {
	pages    []string
	pageErr  error
	countErr error
	calls    int
}

func (f *textLayerFake) PageCount(context.Context, string) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return len(f.pages), nil
}

func (f *textLayerFake) PageText(_ context.Context, _ string, pageIndex int) (string, error) {
	f.calls++
	if f.pageErr != nil {
		return "", f.pageErr
	}
	if pageIndex < 0 || pageIndex >= len(f.pages) {
		return "", errors.New("page out of range")
	}
	return f.pages[pageIndex], nil
}

type rasterCall struct {
	first, last int
	opts        domain.RasterOptions
}

type rasterizerFake struct {
	err   error
	calls []rasterCall
}

func (f *rasterizerFake) Rasterize(_ context.Context, _ string, first, last int, opts domain.RasterOptions) ([]image.Image, error) {
	f.calls = append(f.calls, rasterCall{first: first, last: last, opts: opts})
	if f.err != nil {
		return nil, f.err
	}
	return []image.Image{image.NewGray(image.Rect(0, 0, 8, 8))}, nil
}

type ocrFake struct {
	text    string
	err     error
	panics  bool
	langs   []string
	configs []domain.RecognitionConfig
	images  []image.Image
}

func (f *ocrFake) Recognize(_ context.Context, img image.Image, lang string, cfg domain.RecognitionConfig) (string, error) {
	if f.panics {
		panic("tesseract crashed")
	}
	f.langs = append(f.langs, lang)
	f.configs = append(f.configs, cfg)
	f.images = append(f.images, img)
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type pagesFake struct {
	texts map[int]string
	calls []int
}

func (f *pagesFake) Extract(_ context.Context, _ string, pageIndex int) domain.Page {
	f.calls = append(f.calls, pageIndex)
	text, ok := f.texts[pageIndex]
	if !ok {
		return domain.Page{Index: pageIndex, Source: domain.PageSourceNone}
	}
	return domain.Page{Index: pageIndex, Text: text, Source: domain.PageSourceRenderedOCR}
}

type assemblerFake struct {
	doc    domain.AssembledDocument
	err    error
	pages  int
	called int
}

func (f *assemblerFake) Assemble(_ context.Context, pdfPath string, progress ProgressFunc) (domain.AssembledDocument, error) {
	f.called++
	if _, err := os.Stat(pdfPath); err != nil {
		return domain.AssembledDocument{}, fmt.Errorf("expected downloaded pdf: %w", err)
	}
	for i := 1; i <= f.pages; i++ {
		if progress != nil {
			progress(i, f.pages)
		}
	}
	if f.err != nil {
		return domain.AssembledDocument{PageCount: f.pages}, f.err
	}
	return f.doc, nil
}

type extractionLogFake struct {
	records []domain.ExtractionRecord
	err     error
}

func (f *extractionLogFake) Record(_ context.Context, rec domain.ExtractionRecord) error {
	f.records = append(f.records, rec)
	return f.err
}

func (f *extractionLogFake) ListByGroup(context.Context, string, int) ([]domain.ExtractionRecord, error) {
	return f.records, nil
}

type notifierFake struct {
	published []domain.DocumentSummary
	err       error
}

func (f *notifierFake) PublishDocumentExtracted(_ context.Context, summary domain.DocumentSummary) error {
	f.published = append(f.published, summary)
	return f.err
}

// inlineJobs runs every job on the submitting goroutine.
type inlineJobs struct {
	err error
}

func (j inlineJobs) Submit(job func(context.Context)) error {
	if j.err != nil {
		return j.err
	}
	job(context.Background())
	return nil
}

type singleProcessorFake struct {
	failures map[string]error
	calls    []domain.SingleRequest
}

func (f *singleProcessorFake) Process(_ context.Context, req domain.SingleRequest) (*domain.DocumentSummary, error) {
	f.calls = append(f.calls, req)
	if err, ok := f.failures[req.SourceKey]; ok {
		return nil, err
	}
	return &domain.DocumentSummary{
		Status:    domain.StatusSuccess,
		SourceKey: req.SourceKey,
		DestKey:   req.DestKey,
	}, nil
}
