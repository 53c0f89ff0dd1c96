package usecase

import (
	"context"
	"testing"
)

func TestFolderStatsCountsFiles(t *testing.T) {
	store := newStoreFake()
	store.put("b", "p/a.pdf", make([]byte, 1024*1024))
	store.put("b", "p/b.PDF", make([]byte, 512*1024))
	store.put("b", "p/a.txt", []byte("hola"))
	store.put("b", "p/c.TXT", []byte("x"))

	stats, err := NewFolderStatsUseCase(store).FolderStats(context.Background(), "b", "p/")
	if err != nil {
		t.Fatalf("FolderStats() error = %v", err)
	}
	if stats.TotalFiles != 4 || stats.PDFCount != 2 || stats.TXTCount != 1 {
		t.Fatalf("unexpected counts: %+v", stats)
	}
	if stats.TotalSizeMB != 1.5 {
		t.Fatalf("expected 1.5 MB, got %v", stats.TotalSizeMB)
	}
	if stats.ProcessedRatio != "1/2" {
		t.Fatalf("expected ratio 1/2, got %s", stats.ProcessedRatio)
	}
}

func TestFolderStatsWithoutPDFs(t *testing.T) {
	stats, err := NewFolderStatsUseCase(newStoreFake()).FolderStats(context.Background(), "b", "empty/")
	if err != nil {
		t.Fatalf("FolderStats() error = %v", err)
	}
	if stats.ProcessedRatio != "0/0" || stats.TotalFiles != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
