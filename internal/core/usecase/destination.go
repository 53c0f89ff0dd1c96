package usecase

import (
	"path"
	"strings"

	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/domain"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/groupid"
)

// GroupPlaceholder in a destination prefix is replaced by the group id of the source key.
const GroupPlaceholder = "{group_id}"

// DestinationKey maps a source key to "{prefix}/{basename}.txt".
func DestinationKey(prefix, sourceKey string) string {
	base := path.Base(sourceKey)
	if ext := path.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	filename := base + ".txt"

	if strings.Contains(prefix, GroupPlaceholder) {
		prefix = strings.ReplaceAll(prefix, GroupPlaceholder, groupid.Extract(sourceKey))
	}
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		return filename
	}
	return prefix + "/" + filename
}

func singleFromAsync(req domain.AsyncRequest) domain.SingleRequest {
	return domain.SingleRequest{
		SourceBucket: req.SourceBucket,
		SourceKey:    req.SourceKey,
		DestBucket:   req.DestBucket,
		DestKey:      DestinationKey(req.DestPrefix, req.SourceKey),
	}
}
