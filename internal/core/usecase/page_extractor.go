package usecase

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"runtime/debug"
	"strings"

	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/domain"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/imaging"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/ports"
)

const DefaultRasterWidth = 2000

type PageExtractorConfig struct {
	Language      string
	RasterWidth   int
	Recognition   domain.RecognitionConfig
	ReclaimMemory bool
}

// PageObserver receives the source of every extracted page.
type PageObserver interface {
	ObservePage(source domain.PageSource)
}

type strategyOutcome int

const (
	outcomeEmpty strategyOutcome = iota
	outcomeSuccess
	outcomeError
)

type strategyResult struct {
	text    string
	outcome strategyOutcome
	err     error
}

type pageStrategy struct {
	source domain.PageSource
	run    func(ctx context.Context, pdfPath string, pageIndex int) (string, error)
}

// PageExtractor recovers the text of one page by trying OCR on the rendered
// page first and the embedded text layer second.
type PageExtractor struct {
	rasterizer ports.Rasterizer
	ocr        ports.OCREngine
	textLayer  ports.TextLayerReader
	cfg        PageExtractorConfig

	enhance    func(image.Image) (image.Image, error)
	reclaim    func()
	observer   PageObserver
	strategies []pageStrategy
}

func NewPageExtractor(
	rasterizer ports.Rasterizer,
	ocr ports.OCREngine,
	textLayer ports.TextLayerReader,
	cfg PageExtractorConfig,
) *PageExtractor {
	if cfg.RasterWidth <= 0 {
		cfg.RasterWidth = DefaultRasterWidth
	}
	if strings.TrimSpace(cfg.Language) == "" {
		cfg.Language = "spa"
	}
	if cfg.Recognition == (domain.RecognitionConfig{}) {
		cfg.Recognition = domain.DefaultRecognitionConfig()
	}

	pe := &PageExtractor{
		rasterizer: rasterizer,
		ocr:        ocr,
		textLayer:  textLayer,
		cfg:        cfg,
		enhance:    enhanceImage,
		reclaim:    func() {},
	}
	if cfg.ReclaimMemory {
		pe.reclaim = debug.FreeOSMemory
	}
	pe.strategies = []pageStrategy{
		{source: domain.PageSourceRenderedOCR, run: pe.renderedOCR},
		{source: domain.PageSourceEmbeddedText, run: pe.embeddedText},
	}
	return pe
}

func (pe *PageExtractor) SetObserver(observer PageObserver) {
	pe.observer = observer
}

// Extract never fails: a page nobody could read comes back with empty text
// and PageSourceNone.
func (pe *PageExtractor) Extract(ctx context.Context, pdfPath string, pageIndex int) domain.Page {
	defer pe.reclaim()

	page := domain.Page{Index: pageIndex, Source: domain.PageSourceNone}
	for _, strategy := range pe.strategies {
		res := runStrategy(ctx, strategy, pdfPath, pageIndex)
		switch res.outcome {
		case outcomeSuccess:
			page.Text = res.text
			page.Source = strategy.source
			pe.observe(page.Source)
			return page
		case outcomeError:
			slog.Warn("page_strategy_failed",
				"strategy", string(strategy.source),
				"page", pageIndex+1,
				"path", pdfPath,
				"error", res.err,
			)
		default:
			slog.Debug("page_strategy_empty", "strategy", string(strategy.source), "page", pageIndex+1)
		}
	}
	pe.observe(page.Source)
	return page
}

func runStrategy(ctx context.Context, strategy pageStrategy, pdfPath string, pageIndex int) (res strategyResult) {
	defer func() {
		if r := recover(); r != nil {
			res = strategyResult{outcome: outcomeError, err: fmt.Errorf("panic: %v", r)}
		}
	}()

	text, err := strategy.run(ctx, pdfPath, pageIndex)
	if err != nil {
		return strategyResult{outcome: outcomeError, err: err}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return strategyResult{outcome: outcomeEmpty}
	}
	return strategyResult{text: text, outcome: outcomeSuccess}
}

func (pe *PageExtractor) renderedOCR(ctx context.Context, pdfPath string, pageIndex int) (string, error) {
	pageNumber := pageIndex + 1
	images, err := pe.rasterizer.Rasterize(ctx, pdfPath, pageNumber, pageNumber, domain.RasterOptions{
		Width:     pe.cfg.RasterWidth,
		Grayscale: true,
	})
	if err != nil {
		return "", fmt.Errorf("rasterize page: %w", err)
	}
	if len(images) == 0 || images[0] == nil {
		return "", nil
	}
	img := images[0]

	if enhanced, err := pe.enhance(img); err != nil {
		slog.Warn("page_enhance_failed", "page", pageNumber, "error", err)
	} else {
		img = enhanced
	}

	text, err := pe.ocr.Recognize(ctx, img, pe.cfg.Language, pe.cfg.Recognition)
	if err != nil {
		return "", fmt.Errorf("recognize page: %w", err)
	}
	return text, nil
}

func (pe *PageExtractor) embeddedText(ctx context.Context, pdfPath string, pageIndex int) (string, error) {
	text, err := pe.textLayer.PageText(ctx, pdfPath, pageIndex)
	if err != nil {
		return "", fmt.Errorf("read text layer: %w", err)
	}
	return text, nil
}

func (pe *PageExtractor) observe(source domain.PageSource) {
	if pe.observer != nil {
		pe.observer.ObservePage(source)
	}
}

func enhanceImage(img image.Image) (image.Image, error) {
	gray, err := imaging.Enhance(img)
	if err != nil {
		return nil, err
	}
	return gray, nil
}
