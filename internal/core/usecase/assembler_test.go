package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/domain"
)

func TestAssembleKeepsOnlyPagesWithText(t *testing.T) {
	pages := &pagesFake{texts: map[int]string{1: "Sentencia de divorcio"}}
	layer := &textLayerFake{pages: []string{"", "", ""}}

	doc, err := NewDocumentAssembler(pages, layer).Assemble(context.Background(), "doc.pdf", nil)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if doc.Text != "Sentencia de divorcio" {
		t.Fatalf("expected single page text without separators, got %q", doc.Text)
	}
	if doc.PageCount != 3 || doc.PagesWithText != 1 {
		t.Fatalf("unexpected counts: pages=%d with_text=%d", doc.PageCount, doc.PagesWithText)
	}
	if doc.Type != domain.DocumentTypeCourtRecord {
		t.Fatalf("expected court record, got %s", doc.Type)
	}
	if len(pages.calls) != 3 || pages.calls[0] != 0 || pages.calls[2] != 2 {
		t.Fatalf("expected pages visited in order, got %v", pages.calls)
	}
}

func TestAssembleJoinsPagesWithBlankLine(t *testing.T) {
	pages := &pagesFake{texts: map[int]string{0: "pagina uno", 1: "x", 2: "pagina tres"}}
	layer := &textLayerFake{pages: []string{"", "", ""}}

	doc, err := NewDocumentAssembler(pages, layer).Assemble(context.Background(), "doc.pdf", nil)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if doc.Text != "pagina uno\n\npagina tres" {
		t.Fatalf("unexpected assembled text %q", doc.Text)
	}
	if strings.Contains(doc.Text, "---") || strings.Contains(strings.ToLower(doc.Text), "page") {
		t.Fatalf("expected no page markers, got %q", doc.Text)
	}
	if doc.Type != domain.DocumentTypeGeneral {
		t.Fatalf("expected general, got %s", doc.Type)
	}
}

func TestAssembleFailsWithoutText(t *testing.T) {
	pages := &pagesFake{texts: map[int]string{0: "ab"}}
	layer := &textLayerFake{pages: []string{"", ""}}

	_, err := NewDocumentAssembler(pages, layer).Assemble(context.Background(), "doc.pdf", nil)
	if !domain.IsKind(err, domain.ErrNoExtractableText) {
		t.Fatalf("expected ErrNoExtractableText, got %v", err)
	}
}

func TestAssembleReportsProgressPerPage(t *testing.T) {
	pages := &pagesFake{texts: map[int]string{0: "contenido"}}
	layer := &textLayerFake{pages: []string{"", "", "", ""}}

	var seen []string
	_, err := NewDocumentAssembler(pages, layer).Assemble(context.Background(), "doc.pdf", func(done, total int) {
		seen = append(seen, domain.FormatProgress(done, total))
	})
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	want := []string{"1/4", "2/4", "3/4", "4/4"}
	if strings.Join(seen, ",") != strings.Join(want, ",") {
		t.Fatalf("expected progress %v, got %v", want, seen)
	}
}

func TestAssemblePropagatesPageCountError(t *testing.T) {
	layer := &textLayerFake{countErr: errors.New("not a pdf")}
	if _, err := NewDocumentAssembler(&pagesFake{}, layer).Assemble(context.Background(), "doc.pdf", nil); err == nil {
		t.Fatalf("expected page count error")
	}
}
