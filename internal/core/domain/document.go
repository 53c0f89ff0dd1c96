package domain

import "time"

type PageSource string

const (
	PageSourceRenderedOCR  PageSource = "rendered_ocr"
	PageSourceEmbeddedText PageSource = "embedded_text"
	PageSourceNone         PageSource = "none"
)

// Page is the transient per-page result of the extraction chain.
type Page struct {
	Index  int
	Text   string
	Source PageSource
}

type AssembledDocument struct {
	Text          string
	PageCount     int
	PagesWithText int
	Type          DocumentType
}

// ObjectInfo describes one object in a bucket listing.
type ObjectInfo struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	Size   int64  `json:"size"`
}

type SingleRequest struct {
	SourceBucket string `json:"source_bucket"`
	SourceKey    string `json:"source_key"`
	DestBucket   string `json:"dest_bucket"`
	DestKey      string `json:"dest_key"`
}

type AsyncRequest struct {
	SourceBucket string `json:"source_bucket"`
	SourceKey    string `json:"source_key"`
	DestBucket   string `json:"dest_bucket"`
	DestPrefix   string `json:"dest_prefix"`
}

type BatchRequest struct {
	SourceBucket string   `json:"source_bucket"`
	Keys         []string `json:"keys"`
	DestBucket   string   `json:"dest_bucket"`
	DestPrefix   string   `json:"dest_prefix"`
}

type FolderRequest struct {
	Bucket       string `json:"bucket"`
	FolderPrefix string `json:"folder_prefix"`
	DestBucket   string `json:"dest_bucket"`
	DestPrefix   string `json:"dest_prefix"`
}

const StatusSuccess = "success"
const StatusError = "error"

// DocumentSummary is returned for every uploaded document.
type DocumentSummary struct {
	Status         string       `json:"status"`
	SourceBucket   string       `json:"source_bucket"`
	SourceKey      string       `json:"source_key"`
	DestBucket     string       `json:"dest_bucket"`
	DestKey        string       `json:"dest_key"`
	Filename       string       `json:"filename"`
	GroupID        string       `json:"group_id"`
	TotalPages     int          `json:"total_pages"`
	PagesProcessed int          `json:"pages_processed"`
	DocumentType   DocumentType `json:"document_type"`
}

type BatchItem struct {
	Key     string           `json:"key"`
	GroupID string           `json:"group_id"`
	Status  string           `json:"status"`
	Result  *DocumentSummary `json:"result,omitempty"`
	Error   string           `json:"error,omitempty"`
}

type GroupTally struct {
	GroupID   string `json:"group_id"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
}

type BatchResult struct {
	Total     int          `json:"total"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Items     []BatchItem  `json:"items"`
	Groups    []GroupTally `json:"groups"`
}

type FolderStats struct {
	Bucket         string  `json:"bucket"`
	Prefix         string  `json:"prefix"`
	TotalFiles     int     `json:"total_files"`
	TotalSizeMB    float64 `json:"total_size_mb"`
	PDFCount       int     `json:"pdf_count"`
	TXTCount       int     `json:"txt_count"`
	ProcessedRatio string  `json:"processed_ratio"`
}

// ExtractionRecord is one row of the extraction log.
type ExtractionRecord struct {
	ID             string       `json:"id"`
	GroupID        string       `json:"group_id"`
	SourceBucket   string       `json:"source_bucket"`
	SourceKey      string       `json:"source_key"`
	DestBucket     string       `json:"dest_bucket"`
	DestKey        string       `json:"dest_key"`
	Status         string       `json:"status"`
	TotalPages     int          `json:"total_pages"`
	PagesProcessed int          `json:"pages_processed"`
	DocumentType   DocumentType `json:"document_type,omitempty"`
	Error          string       `json:"error,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}
