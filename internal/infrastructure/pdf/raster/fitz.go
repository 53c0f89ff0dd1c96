package raster

import (
	"context"
	"fmt"
	"image"

	fitz "github.com/gen2brain/go-fitz"
	"golang.org/x/image/draw"

	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/domain"
)

// pointsPerInch is the PDF user-space unit fitz reports page bounds in.
const pointsPerInch = 72.0

// Rasterizer renders PDF pages with MuPDF.
type Rasterizer struct{}

func New() *Rasterizer {
	return &Rasterizer{}
}

// Rasterize renders the 1-based inclusive page range. Every image is exactly
// opts.Width pixels wide when a width is requested.
func (r *Rasterizer) Rasterize(ctx context.Context, pdfPath string, firstPage, lastPage int, opts domain.RasterOptions) ([]image.Image, error) {
	if firstPage < 1 || lastPage < firstPage {
		return nil, domain.WrapError(domain.ErrInvalidInput, "rasterize", fmt.Errorf("page range %d-%d", firstPage, lastPage))
	}

	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	if lastPage > doc.NumPage() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "rasterize", fmt.Errorf("page %d of %d", lastPage, doc.NumPage()))
	}

	images := make([]image.Image, 0, lastPage-firstPage+1)
	for page := firstPage; page <= lastPage; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := renderPage(doc, page-1, opts)
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", page, err)
		}
		images = append(images, img)
	}
	return images, nil
}

func renderPage(doc *fitz.Document, index int, opts domain.RasterOptions) (image.Image, error) {
	dpi := pointsPerInch
	if opts.Width > 0 {
		bound, err := doc.Bound(index)
		if err != nil {
			return nil, fmt.Errorf("page bounds: %w", err)
		}
		if bound.Dx() <= 0 {
			return nil, fmt.Errorf("page has zero width")
		}
		dpi = pointsPerInch * float64(opts.Width) / float64(bound.Dx())
	}

	rendered, err := doc.ImageDPI(index, dpi)
	if err != nil {
		return nil, err
	}
	return fit(rendered, opts), nil
}

// fit corrects rounding in the rendered width and converts to gray if asked.
func fit(src image.Image, opts domain.RasterOptions) image.Image {
	b := src.Bounds()
	width, height := b.Dx(), b.Dy()
	if opts.Width > 0 && width != opts.Width && width > 0 {
		height = max(1, height*opts.Width/width)
		width = opts.Width
	}

	if !opts.Grayscale && width == b.Dx() {
		return src
	}

	rect := image.Rect(0, 0, width, height)
	var dst draw.Image
	if opts.Grayscale {
		dst = image.NewGray(rect)
	} else {
		dst = image.NewRGBA(rect)
	}
	if width == b.Dx() && height == b.Dy() {
		draw.Draw(dst, rect, src, b.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(dst, rect, src, b, draw.Src, nil)
	}
	return dst
}
