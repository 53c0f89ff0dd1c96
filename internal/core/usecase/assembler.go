package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/domain"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/ports"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/textnorm"
)

// ProgressFunc is called after every page with the number of pages handled so far.
type ProgressFunc func(done, total int)

type PageTextExtractor interface {
	Extract(ctx context.Context, pdfPath string, pageIndex int) domain.Page
}

const pageSeparator = "\n\n"

type DocumentAssembler struct {
	pages     PageTextExtractor
	textLayer ports.TextLayerReader
}

func NewDocumentAssembler(pages PageTextExtractor, textLayer ports.TextLayerReader) *DocumentAssembler {
	return &DocumentAssembler{pages: pages, textLayer: textLayer}
}

// Assemble extracts every page in order, keeps the ones with text after
// normalization and joins them with a blank line.
func (a *DocumentAssembler) Assemble(ctx context.Context, pdfPath string, progress ProgressFunc) (domain.AssembledDocument, error) {
	pageCount, err := a.textLayer.PageCount(ctx, pdfPath)
	if err != nil {
		return domain.AssembledDocument{}, fmt.Errorf("count pages: %w", err)
	}

	kept := make([]string, 0, pageCount)
	for i := 0; i < pageCount; i++ {
		page := a.pages.Extract(ctx, pdfPath, i)
		if text := textnorm.Normalize(page.Text); text != "" {
			kept = append(kept, text)
		}
		if progress != nil {
			progress(i+1, pageCount)
		}
	}

	if len(kept) == 0 {
		return domain.AssembledDocument{PageCount: pageCount}, domain.WrapError(
			domain.ErrNoExtractableText,
			"assemble document",
			errors.New("no page yielded usable text"),
		)
	}

	text := strings.Join(kept, pageSeparator)
	return domain.AssembledDocument{
		Text:          text,
		PageCount:     pageCount,
		PagesWithText: len(kept),
		Type:          domain.ClassifyDocument(text),
	}, nil
}
