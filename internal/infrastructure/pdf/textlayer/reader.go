package textlayer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// pdfcpu entry points, swapped in tests.
var (
	pageCountFile = api.PageCountFile
	optimizeFile  = api.OptimizeFile
)

// Reader reads the embedded text layer. Files the parser rejects get one
// repair pass through pdfcpu in relaxed mode before giving up.
type Reader struct{}

func New() *Reader {
	return &Reader{}
}

func (r *Reader) PageCount(ctx context.Context, pdfPath string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var count int
	err := r.withDocument(ctx, pdfPath, func(doc *pdf.Reader) error {
		count = doc.NumPage()
		return nil
	})
	if err == nil {
		return count, nil
	}

	// the parser may choke on a file pdfcpu can still count
	var n int
	countErr := recoverPanic("count pages", func() (fallbackErr error) {
		n, fallbackErr = pageCountFile(pdfPath)
		return fallbackErr
	})
	if countErr != nil {
		return 0, fmt.Errorf("count pages: %w", err)
	}
	slog.Warn("text_layer_page_count_fallback", "path", pdfPath, "error", err)
	return n, nil
}

func (r *Reader) PageText(ctx context.Context, pdfPath string, pageIndex int) (string, error) {
	var text string
	err := r.withDocument(ctx, pdfPath, func(doc *pdf.Reader) error {
		if pageIndex < 0 || pageIndex >= doc.NumPage() {
			return fmt.Errorf("page index %d out of range (%d pages)", pageIndex, doc.NumPage())
		}
		page := doc.Page(pageIndex + 1)
		if page.V.IsNull() {
			return nil
		}
		plain, err := page.GetPlainText(nil)
		if err != nil {
			return fmt.Errorf("plain text: %w", err)
		}
		text = plain
		return nil
	})
	return text, err
}

func (r *Reader) withDocument(ctx context.Context, pdfPath string, fn func(*pdf.Reader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := readDocument(pdfPath, fn)
	if err == nil {
		return nil
	}

	repaired, repairErr := repair(pdfPath)
	if repairErr != nil {
		return err
	}
	defer os.RemoveAll(filepath.Dir(repaired))

	if retryErr := readDocument(repaired, fn); retryErr != nil {
		return fmt.Errorf("read repaired pdf: %w", retryErr)
	}
	return nil
}

// the parser panics on some malformed xref tables
func readDocument(path string, fn func(*pdf.Reader) error) error {
	return recoverPanic("parse pdf", func() error {
		f, doc, err := pdf.Open(path)
		if err != nil {
			return fmt.Errorf("open pdf: %w", err)
		}
		defer f.Close()
		return fn(doc)
	})
}

func repair(pdfPath string) (string, error) {
	dir, err := os.MkdirTemp("", "pdf-repair-*")
	if err != nil {
		return "", fmt.Errorf("create repair dir: %w", err)
	}
	out := filepath.Join(dir, "repaired.pdf")

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	err = recoverPanic("repair pdf", func() error {
		return optimizeFile(pdfPath, out, conf)
	})
	if err != nil {
		os.RemoveAll(dir)
		return "", fmt.Errorf("relaxed optimize: %w", err)
	}
	return out, nil
}

// recoverPanic turns a parser panic on a malformed file into an error.
func recoverPanic(op string, fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%s: panic: %v", op, rec)
		}
	}()
	return fn()
}
