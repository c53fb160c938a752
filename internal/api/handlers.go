package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ignite/outreach-analytics/internal/cache"
	"github.com/ignite/outreach-analytics/internal/calls"
	"github.com/ignite/outreach-analytics/internal/config"
	"github.com/ignite/outreach-analytics/internal/export"
	"github.com/ignite/outreach-analytics/internal/ingest"
	"github.com/ignite/outreach-analytics/internal/metrics"
	"github.com/ignite/outreach-analytics/internal/pipeline"
	"github.com/ignite/outreach-analytics/internal/pkg/httputil"
	"github.com/ignite/outreach-analytics/internal/pkg/logger"
	"github.com/ignite/outreach-analytics/internal/reconcile"
	"github.com/ignite/outreach-analytics/internal/store"
)

// maxUploadBytes bounds one multipart upload; the pipeline itself holds the
// whole batch in memory.
const maxUploadBytes = 256 << 20

// DirectorySource supplies the contact directory when no contacts file is
// uploaded.
type DirectorySource interface {
	FetchDirectory(ctx context.Context) ([]reconcile.ContactRecord, error)
}

// Handlers carries the API's collaborators. Store, cache, directory and S3
// exporter are all optional; a nil value disables that capability.
type Handlers struct {
	store     *store.BatchStore
	cache     *cache.ResultCache
	directory DirectorySource
	s3        *export.S3Exporter
	exportCfg config.ExportConfig
}

// NewHandlers builds the handler set.
func NewHandlers(batches *store.BatchStore, results *cache.ResultCache, directory DirectorySource, s3 *export.S3Exporter, exportCfg config.ExportConfig) *Handlers {
	return &Handlers{
		store:     batches,
		cache:     results,
		directory: directory,
		s3:        s3,
		exportCfg: exportCfg,
	}
}

// HealthCheck reports service status and which collaborators are wired.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
		"services": map[string]bool{
			"store":             h.store != nil,
			"cache":             h.cache != nil,
			"contact_directory": h.directory != nil,
			"s3_export":         h.s3 != nil,
		},
	})
}

type reconcileResponse struct {
	BatchID string           `json:"batch_id"`
	Label   string           `json:"label,omitempty"`
	Result  *pipeline.Result `json:"result"`
	Summary metrics.Summary  `json:"summary"`
	Reasons map[string]int   `json:"failure_reasons"`
	Calls   *callsResponse   `json:"calls,omitempty"`
}

// callsResponse is the cross-channel block returned when a calls record
// file accompanies the upload.
type callsResponse struct {
	Joined   []calls.EmailWithCalls `json:"joined"`
	Stats    calls.JoinStats        `json:"stats"`
	Combined calls.Combined         `json:"combined"`
}

// HandleReconcile accepts a multipart upload of the three source files and
// runs the pipeline. The contacts part may be omitted when a directory
// source is configured; a calls record file may be attached under the
// "calls" field to get the cross-channel block. Validation problems return
// 422 with the full message list; a zero-contact match also returns 422.
func (h *Handlers) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.BadRequest(w, "invalid multipart form: "+err.Error())
		return
	}

	sources := make(map[ingest.Role]io.Reader)
	for _, role := range ingest.RequiredRoles() {
		file, _, err := r.FormFile(string(role))
		if err != nil {
			continue
		}
		defer file.Close()
		sources[role] = file
	}

	var callRecords []calls.CallRecord
	haveCalls := false
	if file, _, err := r.FormFile("calls"); err == nil {
		defer file.Close()
		haveCalls = true

		var msgs []string
		callRecords, msgs, err = calls.Parse(file)
		if err != nil {
			httputil.InternalError(w, fmt.Errorf("reading calls file: %w", err))
			return
		}
		if len(msgs) > 0 {
			httputil.UnprocessableEntity(w, "input validation failed", msgs)
			return
		}
	}

	ctx := r.Context()
	var result *pipeline.Result
	var err error

	if _, hasContacts := sources[ingest.RoleContacts]; !hasContacts && h.directory != nil {
		var dir []reconcile.ContactRecord
		dir, err = h.directory.FetchDirectory(ctx)
		if err != nil {
			httputil.InternalError(w, fmt.Errorf("fetching contact directory: %w", err))
			return
		}
		result, err = pipeline.ProcessWithContacts(ctx, sources, dir)
	} else {
		result, err = pipeline.Process(ctx, sources)
	}

	if err != nil {
		var verr *pipeline.ValidationError
		switch {
		case errors.As(err, &verr):
			httputil.UnprocessableEntity(w, "input validation failed", verr.Messages)
		case errors.Is(err, reconcile.ErrNoContactsMatched):
			httputil.UnprocessableEntity(w, err.Error(), nil)
		default:
			httputil.InternalError(w, err)
		}
		return
	}

	label := r.FormValue("label")
	resp := reconcileResponse{
		BatchID: uuid.New().String(),
		Label:   label,
		Result:  result,
		Summary: metrics.Summarize(result.Successful, result.Failed, result.SendOpenSuccessful),
		Reasons: reconcile.CountByReason(result.Failed),
	}
	if haveCalls {
		joined, stats := calls.JoinEmails(result.Successful, callRecords)
		resp.Calls = &callsResponse{
			Joined:   joined,
			Stats:    stats,
			Combined: calls.CombinedMetrics(result.Successful, callRecords),
		}
	}

	if h.store != nil {
		batch, err := h.store.SaveBatch(ctx, label, result)
		if err != nil {
			httputil.InternalError(w, fmt.Errorf("saving batch: %w", err))
			return
		}
		resp.BatchID = batch.ID
	}
	if h.cache != nil {
		if err := h.cache.Put(ctx, resp.BatchID, result); err != nil {
			logger.Warn("failed to cache batch result", "batch_id", resp.BatchID, "error", err.Error())
		}
	}

	httputil.OK(w, resp)
}

// HandleListBatches lists stored batches, optionally bounded by an RFC 3339
// date range.
func (h *Handlers) HandleListBatches(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "batch persistence is not configured")
		return
	}

	var filter store.ListFilter
	q := r.URL.Query()
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httputil.BadRequest(w, "invalid 'from' date: "+err.Error())
			return
		}
		filter.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httputil.BadRequest(w, "invalid 'to' date: "+err.Error())
			return
		}
		filter.To = t
	}
	fmt.Sscanf(q.Get("limit"), "%d", &filter.Limit)
	fmt.Sscanf(q.Get("offset"), "%d", &filter.Offset)

	batches, total, err := h.store.ListBatches(r.Context(), filter)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{
		"batches": batches,
		"total":   total,
	})
}

// HandleGetBatch returns one batch with its full record tables, preferring
// the cache over Postgres.
func (h *Handlers) HandleGetBatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if h.cache != nil {
		if result, err := h.cache.Get(r.Context(), id); err == nil && result != nil {
			httputil.OK(w, store.Batch{ID: id, Result: result,
				OriginalSendCount: result.OriginalSendCount,
				SuccessfulCount:   len(result.Successful),
				FailedCount:       len(result.Failed)})
			return
		}
	}

	if h.store == nil {
		httputil.NotFound(w, "batch not found")
		return
	}
	batch, err := h.store.GetBatch(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		httputil.NotFound(w, "batch not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, batch)
}

// HandleDeleteBatch removes a stored batch and drops its cache entry.
func (h *Handlers) HandleDeleteBatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if h.cache != nil {
		if err := h.cache.Invalidate(r.Context(), id); err != nil {
			logger.Warn("failed to invalidate cached batch", "batch_id", id, "error", err.Error())
		}
	}
	if h.store == nil {
		httputil.NoContent(w)
		return
	}

	err := h.store.DeleteBatch(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		httputil.NotFound(w, "batch not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.NoContent(w)
}

// HandleExportBatch writes the batch's CSV artifacts locally and, when
// configured, mirrors them to S3.
func (h *Handlers) HandleExportBatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.loadResult(r.Context(), id)
	if err != nil {
		h.writeLoadError(w, err)
		return
	}

	artifacts, err := export.SaveLocal(h.exportCfg.OutputDir, id, result)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	resp := map[string]interface{}{"artifacts": artifacts}
	if h.s3 != nil {
		keys, err := h.s3.Upload(r.Context(), id, result)
		if err != nil {
			httputil.InternalError(w, err)
			return
		}
		resp["s3_objects"] = keys
	}
	httputil.OK(w, resp)
}

// HandleDownloadBatch streams one of the batch's tables as a CSV download.
// The table query parameter selects successful (default) or failed.
func (h *Handlers) HandleDownloadBatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.loadResult(r.Context(), id)
	if err != nil {
		h.writeLoadError(w, err)
		return
	}

	table := r.URL.Query().Get("table")
	if table == "" {
		table = "successful"
	}
	if table != "successful" && table != "failed" {
		httputil.BadRequest(w, "unknown table: "+table)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_%s.csv"`, table, id))

	if table == "successful" {
		err = export.WriteSuccessfulCSV(w, result.Successful)
	} else {
		err = export.WriteFailedCSV(w, result.Failed)
	}
	if err != nil {
		logger.Error("streaming batch csv failed", "batch_id", id, "table", table, "error", err.Error())
	}
}

// HandleBatchMetrics recomputes summary, engagement and trend aggregates
// for a stored batch. The interval query parameter selects weekly (default)
// or monthly trend buckets.
func (h *Handlers) HandleBatchMetrics(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.loadResult(r.Context(), id)
	if err != nil {
		h.writeLoadError(w, err)
		return
	}

	interval := metrics.Weekly
	if r.URL.Query().Get("interval") == string(metrics.Monthly) {
		interval = metrics.Monthly
	}

	httputil.OK(w, map[string]interface{}{
		"summary":         metrics.Summarize(result.Successful, result.Failed, result.SendOpenSuccessful),
		"engagement":      metrics.EngagementByCompany(result.Successful),
		"high_engagement": metrics.HighEngagementAccounts(result.Successful),
		"trends":          metrics.Trends(result.Successful, interval),
		"failure_reasons": reconcile.CountByReason(result.Failed),
	})
}

func (h *Handlers) loadResult(ctx context.Context, id string) (*pipeline.Result, error) {
	if h.cache != nil {
		if result, err := h.cache.Get(ctx, id); err == nil && result != nil {
			return result, nil
		}
	}
	if h.store == nil {
		return nil, store.ErrNotFound
	}
	batch, err := h.store.GetBatch(ctx, id)
	if err != nil {
		return nil, err
	}
	return batch.Result, nil
}

func (h *Handlers) writeLoadError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		httputil.NotFound(w, "batch not found")
		return
	}
	httputil.InternalError(w, err)
}
