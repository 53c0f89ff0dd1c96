package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/domain"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500

	schemaLockID = int64(2026101601)
)

// ExtractionLogRepository stores one row per processed document.
type ExtractionLogRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewExtractionLogRepository(db *sql.DB) *ExtractionLogRepository {
	return &ExtractionLogRepository{db: db, now: time.Now}
}

func (r *ExtractionLogRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// api and worker may start together
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockID); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS extraction_log (
	id TEXT PRIMARY KEY,
	group_id TEXT NOT NULL,
	source_bucket TEXT NOT NULL,
	source_key TEXT NOT NULL,
	dest_bucket TEXT NOT NULL,
	dest_key TEXT NOT NULL,
	status TEXT NOT NULL,
	total_pages INTEGER NOT NULL DEFAULT 0,
	pages_processed INTEGER NOT NULL DEFAULT 0,
	document_type TEXT,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_extraction_log_group ON extraction_log(group_id, created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *ExtractionLogRepository) Record(ctx context.Context, rec domain.ExtractionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = r.now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO extraction_log (
	id, group_id, source_bucket, source_key, dest_bucket, dest_key, status, total_pages, pages_processed, document_type, error_message, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
`,
		rec.ID, rec.GroupID, rec.SourceBucket, rec.SourceKey, rec.DestBucket, rec.DestKey, rec.Status,
		rec.TotalPages, rec.PagesProcessed, string(rec.DocumentType), rec.Error, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert extraction record: %w", err)
	}
	return nil
}

// ListByGroup returns the newest records first.
func (r *ExtractionLogRepository) ListByGroup(ctx context.Context, groupID string, limit int) ([]domain.ExtractionRecord, error) {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "list extractions", fmt.Errorf("group_id is required"))
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT id, group_id, source_bucket, source_key, dest_bucket, dest_key, status, total_pages, pages_processed, document_type, error_message, created_at
FROM extraction_log
WHERE group_id = $1
ORDER BY created_at DESC
LIMIT $2
`, groupID, limit)
	if err != nil {
		return nil, fmt.Errorf("query extraction log: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ExtractionRecord, 0)
	for rows.Next() {
		var rec domain.ExtractionRecord
		var docType, errMessage sql.NullString
		if err := rows.Scan(
			&rec.ID, &rec.GroupID, &rec.SourceBucket, &rec.SourceKey, &rec.DestBucket, &rec.DestKey, &rec.Status,
			&rec.TotalPages, &rec.PagesProcessed, &docType, &errMessage, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan extraction record: %w", err)
		}
		rec.DocumentType = domain.DocumentType(docType.String)
		rec.Error = errMessage.String
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate extraction log: %w", err)
	}
	return out, nil
}
