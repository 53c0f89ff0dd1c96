package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"

	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/domain"
)

// client is the subset of *gosseract.Client the engine drives.
type client interface {
	SetTessdataPrefix(prefix string) error
	SetLanguage(langs ...string) error
	SetPageSegMode(mode gosseract.PageSegMode) error
	SetWhitelist(whitelist string) error
	SetImageFromBytes(data []byte) error
	Text() (string, error)
	Close() error
}

// Engine runs tesseract through gosseract. A client is created per call
// because gosseract clients are not safe for concurrent use.
type Engine struct {
	tessdataPrefix string
	newClient      func() client
}

func New(tessdataPrefix string) *Engine {
	return &Engine{
		tessdataPrefix: tessdataPrefix,
		newClient:      func() client { return gosseract.NewClient() },
	}
}

// Recognize ignores cfg.EngineMode: gosseract always runs the default
// LSTM/legacy selection, which is mode 3.
func (e *Engine) Recognize(ctx context.Context, img image.Image, lang string, cfg domain.RecognitionConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode page image: %w", err)
	}

	c := e.newClient()
	defer c.Close()

	if e.tessdataPrefix != "" {
		if err := c.SetTessdataPrefix(e.tessdataPrefix); err != nil {
			return "", fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	if lang != "" {
		if err := c.SetLanguage(lang); err != nil {
			return "", fmt.Errorf("set language: %w", err)
		}
	}
	if cfg.PageSegMode > 0 {
		if err := c.SetPageSegMode(gosseract.PageSegMode(cfg.PageSegMode)); err != nil {
			return "", fmt.Errorf("set page seg mode: %w", err)
		}
	}
	if cfg.CharWhitelist != "" {
		if err := c.SetWhitelist(cfg.CharWhitelist); err != nil {
			return "", fmt.Errorf("set whitelist: %w", err)
		}
	}
	if err := c.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return text, nil
}
