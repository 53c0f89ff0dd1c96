package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/pdf-ocr-pipeline/internal/config"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/domain"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/ports"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/observability/metrics"
)

const serviceName = "ocr-api"

type Router struct {
	cfg     config.Config
	process ports.DocumentProcessor
	async   ports.AsyncDocumentProcessor
	batch   ports.BatchProcessor
	stats   ports.FolderStatsReader
	history ports.ExtractionHistory

	httpMetrics *metrics.HTTPServerMetrics
	gatherers   []prometheus.Gatherer
}

func NewRouter(
	cfg config.Config,
	process ports.DocumentProcessor,
	async ports.AsyncDocumentProcessor,
	batch ports.BatchProcessor,
	stats ports.FolderStatsReader,
	history ports.ExtractionHistory,
) *Router {
	return &Router{
		cfg:     cfg,
		process: process,
		async:   async,
		batch:   batch,
		stats:   stats,
		history: history,
	}
}

// SetMetrics enables request metrics and the /metrics endpoint. Extra
// gatherers are exposed next to the HTTP registry.
func (rt *Router) SetMetrics(httpMetrics *metrics.HTTPServerMetrics, extra ...prometheus.Gatherer) {
	rt.httpMetrics = httpMetrics
	rt.gatherers = extra
}

func (rt *Router) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/v1/process-document", rt.processDocument)
	api.HandleFunc("/v1/process-document-async", rt.processDocumentAsync)
	api.HandleFunc("/v1/task-state/", rt.taskState)
	api.HandleFunc("/v1/process-many", rt.processMany)
	api.HandleFunc("/v1/process-folder", rt.processFolder)
	api.HandleFunc("/v1/folder-stats/", rt.folderStats)
	api.HandleFunc("/v1/groups/", rt.groupExtractions)

	var guarded http.Handler = api
	guarded = backpressureMiddleware(guarded, rt.cfg.APIMaxInFlight, rt.cfg.APIBackpressureWait)
	guarded = rateLimitMiddleware(guarded, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", rt.health)
	mux.Handle("/v1/", guarded)
	if rt.httpMetrics != nil {
		mux.Handle("/metrics", rt.httpMetrics.Handler(rt.gatherers...))
	}

	var handler http.Handler = mux
	if rt.httpMetrics != nil {
		handler = rt.httpMetrics.Middleware(serviceName, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) processDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req domain.SingleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	clearWriteDeadline(w, r)
	// finish the upload even if the client gives up waiting
	summary, err := rt.process.Process(context.WithoutCancel(r.Context()), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (rt *Router) processDocumentAsync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req domain.AsyncRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	taskID, err := rt.async.Submit(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set(taskIDHeader, taskID)
	writeJSON(w, http.StatusAccepted, map[string]string{
		"task_id": taskID,
		"state":   string(domain.TaskInProgress),
	})
}

func (rt *Router) taskState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	taskID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/task-state/"), "/")
	if taskID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "task id is required"})
		return
	}

	snapshot, err := rt.async.State(r.Context(), taskID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (rt *Router) processMany(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req domain.BatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	clearWriteDeadline(w, r)
	result, err := rt.batch.ProcessMany(context.WithoutCancel(r.Context()), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) processFolder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req domain.FolderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	clearWriteDeadline(w, r)
	result, err := rt.batch.ProcessFolder(context.WithoutCancel(r.Context()), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) folderStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/folder-stats/")
	bucket, prefix, _ := strings.Cut(rest, "/")
	if bucket == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bucket is required"})
		return
	}

	stats, err := rt.stats.FolderStats(r.Context(), bucket, prefix)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (rt *Router) groupExtractions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/groups/")
	groupID, tail, _ := strings.Cut(rest, "/")
	if tail != "extractions" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	records, err := rt.history.ListByGroup(r.Context(), groupID, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"group_id":    groupID,
		"extractions": records,
	})
}

// clearWriteDeadline lifts the server write timeout for handlers that block
// until a whole document or batch has been processed.
func clearWriteDeadline(w http.ResponseWriter, r *http.Request) {
	err := http.NewResponseController(w).SetWriteDeadline(time.Time{})
	if err != nil && !errors.Is(err, http.ErrNotSupported) {
		slog.Warn("write_deadline_not_cleared", "request_id", requestIDFromContext(r.Context()), "error", err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
