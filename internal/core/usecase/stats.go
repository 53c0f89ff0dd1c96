package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/domain"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/ports"
)

type FolderStatsUseCase struct {
	store ports.ObjectStore
}

func NewFolderStatsUseCase(store ports.ObjectStore) *FolderStatsUseCase {
	return &FolderStatsUseCase{store: store}
}

// FolderStats counts PDFs and extracted .txt files under a prefix.
func (uc *FolderStatsUseCase) FolderStats(ctx context.Context, bucket, prefix string) (*domain.FolderStats, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "folder stats", errors.New("bucket is required"))
	}

	stats := &domain.FolderStats{Bucket: bucket, Prefix: prefix}
	var totalBytes int64
	err := uc.store.List(ctx, bucket, prefix, func(obj domain.ObjectInfo) error {
		stats.TotalFiles++
		totalBytes += obj.Size
		switch {
		case isPDFKey(obj.Key):
			stats.PDFCount++
		case strings.HasSuffix(obj.Key, ".txt"):
			stats.TXTCount++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list folder: %w", err)
	}

	stats.TotalSizeMB = math.Round(float64(totalBytes)/(1024*1024)*100) / 100
	stats.ProcessedRatio = "0/0"
	if stats.PDFCount > 0 {
		stats.ProcessedRatio = fmt.Sprintf("%d/%d", stats.TXTCount, stats.PDFCount)
	}
	return stats, nil
}
