package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/domain"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/groupid"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/ports"
)

type SingleProcessor interface {
	Process(ctx context.Context, req domain.SingleRequest) (*domain.DocumentSummary, error)
}

// BatchUseCase processes documents one after another. A failed document is
// recorded and never stops the batch.
type BatchUseCase struct {
	store     ports.ObjectStore
	processor SingleProcessor
}

func NewBatchUseCase(store ports.ObjectStore, processor SingleProcessor) *BatchUseCase {
	return &BatchUseCase{store: store, processor: processor}
}

func (uc *BatchUseCase) ProcessMany(ctx context.Context, req domain.BatchRequest) (*domain.BatchResult, error) {
	if len(req.Keys) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "process many", errors.New("key list is empty"))
	}
	if strings.TrimSpace(req.SourceBucket) == "" || strings.TrimSpace(req.DestBucket) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "process many", errors.New("source_bucket and dest_bucket required"))
	}

	result := &domain.BatchResult{
		Total: len(req.Keys),
		Items: make([]domain.BatchItem, 0, len(req.Keys)),
	}
	groups := newGroupTallies()

	for i, key := range req.Keys {
		item := uc.processOne(ctx, req, key)
		result.Items = append(result.Items, item)
		groups.add(item)

		if item.Status == domain.StatusSuccess {
			result.Succeeded++
			continue
		}
		result.Failed++
		slog.Warn("batch_item_failed",
			"index", i,
			"key", key,
			"group_id", item.GroupID,
			"error", item.Error,
		)
	}

	result.Groups = groups.list()
	slog.Info("batch_processed",
		"total", result.Total,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
	)
	return result, nil
}

func (uc *BatchUseCase) ProcessFolder(ctx context.Context, req domain.FolderRequest) (*domain.BatchResult, error) {
	if strings.TrimSpace(req.Bucket) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "process folder", errors.New("bucket is required"))
	}

	keys, err := uc.listPDFKeys(ctx, req.Bucket, req.FolderPrefix)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, domain.WrapError(
			domain.ErrNoDocuments,
			"process folder",
			fmt.Errorf("bucket=%s prefix=%s", req.Bucket, req.FolderPrefix),
		)
	}

	return uc.ProcessMany(ctx, domain.BatchRequest{
		SourceBucket: req.Bucket,
		Keys:         keys,
		DestBucket:   req.DestBucket,
		DestPrefix:   req.DestPrefix,
	})
}

func (uc *BatchUseCase) processOne(ctx context.Context, req domain.BatchRequest, key string) domain.BatchItem {
	item := domain.BatchItem{
		Key:     key,
		GroupID: groupid.Extract(key),
	}

	summary, err := uc.processor.Process(ctx, domain.SingleRequest{
		SourceBucket: req.SourceBucket,
		SourceKey:    key,
		DestBucket:   req.DestBucket,
		DestKey:      DestinationKey(req.DestPrefix, key),
	})
	if err != nil {
		item.Status = domain.StatusError
		item.Error = err.Error()
		return item
	}
	item.Status = domain.StatusSuccess
	item.Result = summary
	return item
}

func (uc *BatchUseCase) listPDFKeys(ctx context.Context, bucket, prefix string) ([]string, error) {
	var keys []string
	err := uc.store.List(ctx, bucket, prefix, func(obj domain.ObjectInfo) error {
		if isPDFKey(obj.Key) {
			keys = append(keys, obj.Key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list folder: %w", err)
	}
	return keys, nil
}

func isPDFKey(key string) bool {
	return strings.HasSuffix(strings.ToLower(key), ".pdf")
}

type groupTallies struct {
	order []string
	byID  map[string]*domain.GroupTally
}

func newGroupTallies() *groupTallies {
	return &groupTallies{byID: make(map[string]*domain.GroupTally)}
}

func (g *groupTallies) add(item domain.BatchItem) {
	tally, ok := g.byID[item.GroupID]
	if !ok {
		tally = &domain.GroupTally{GroupID: item.GroupID}
		g.byID[item.GroupID] = tally
		g.order = append(g.order, item.GroupID)
	}
	if item.Status == domain.StatusSuccess {
		tally.Succeeded++
	} else {
		tally.Failed++
	}
}

func (g *groupTallies) list() []domain.GroupTally {
	out := make([]domain.GroupTally, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, *g.byID[id])
	}
	return out
}
