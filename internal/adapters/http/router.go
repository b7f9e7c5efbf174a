package httpadapter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/paperstack/intake/internal/config"
	"github.com/paperstack/intake/internal/core/domain"
	"github.com/paperstack/intake/internal/core/ports"
	"github.com/paperstack/intake/internal/observability/metrics"
)

const (
	serviceName = "intake-api"

	// Raw text is truncated in list responses; the single-document
	// endpoint returns it whole.
	rawTextPreviewLimit = 500

	backpressureWait = 50 * time.Millisecond
)

// Exporter renders stored documents into a downloadable workbook.
type Exporter interface {
	DocumentsXLSX(ctx context.Context, status domain.DocumentStatus) ([]byte, error)
}

type Router struct {
	cfg       config.Config
	submitter ports.DocumentSubmitter
	processor ports.DocumentProcessor
	reader    ports.DocumentReader
	stats     ports.StatsProvider
	exporter  Exporter
	metrics   *metrics.HTTPServerMetrics
}

func NewRouter(
	cfg config.Config,
	submitter ports.DocumentSubmitter,
	processor ports.DocumentProcessor,
	reader ports.DocumentReader,
	stats ports.StatsProvider,
	exporter Exporter,
	m *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		cfg:       cfg,
		submitter: submitter,
		processor: processor,
		reader:    reader,
		stats:     stats,
		exporter:  exporter,
		metrics:   m,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/documents", rt.documents)
	mux.HandleFunc("/v1/documents/check", rt.checkDuplicate)
	mux.HandleFunc("/v1/documents/", rt.documentSubtree)
	mux.HandleFunc("/v1/stats", rt.processingStats)
	mux.HandleFunc("/v1/exports/documents.xlsx", rt.exportDocuments)

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, backpressureWait)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) documents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.uploadDocument(w, r)
	case http.MethodGet:
		rt.listDocuments(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	filename, contentType, data, ok := rt.readUpload(w, r)
	if !ok {
		return
	}

	result, err := rt.submitter.Submit(r.Context(), ports.SubmitRequest{
		Filename:    filename,
		ContentType: contentType,
		Data:        data,
		AutoProcess: queryBool(r, "process", true),
		Force:       queryBool(r, "force", false),
	})
	if err != nil {
		if rt.metrics != nil {
			switch {
			case domain.IsKind(err, domain.ErrDuplicate):
				rt.metrics.RecordUpload(serviceName, "duplicate")
			default:
				rt.metrics.RecordUpload(serviceName, "rejected")
			}
		}
		writeError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordUpload(serviceName, "accepted")
		if result.Match.Kind != "" && result.Match.Kind != domain.DuplicateNone {
			rt.metrics.RecordDuplicate(serviceName, string(result.Match.Kind))
		}
	}
	writeJSON(w, http.StatusAccepted, result)
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	status, ok := parseStatusFilter(r.URL.Query().Get("status"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown status filter"})
		return
	}

	docs, err := rt.reader.List(r.Context(), ports.ListFilter{
		Status: status,
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	for i := range docs {
		if len(docs[i].RawText) > rawTextPreviewLimit {
			docs[i].RawText = docs[i].RawText[:rawTextPreviewLimit] + "..."
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"documents": docs,
		"count":     len(docs),
	})
}

func (rt *Router) checkDuplicate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	filename, _, data, ok := rt.readUpload(w, r)
	if !ok {
		return
	}

	match, err := rt.submitter.CheckDuplicate(r.Context(), filename, data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}

func (rt *Router) documentSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/documents/")

	if idText, found := strings.CutSuffix(rest, "/reprocess"); found {
		rt.reprocessDocument(w, r, idText)
		return
	}
	rt.getDocumentByID(w, r, rest)
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request, idText string) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id, err := parseDocumentID(idText)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id must be a positive integer"})
		return
	}

	doc, err := rt.reader.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) reprocessDocument(w http.ResponseWriter, r *http.Request, idText string) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id, err := parseDocumentID(idText)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id must be a positive integer"})
		return
	}

	if err := rt.processor.Reprocess(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	doc, err := rt.reader.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) processingStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	stats, err := rt.stats.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (rt *Router) exportDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	status, ok := parseStatusFilter(r.URL.Query().Get("status"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown status filter"})
		return
	}

	raw, err := rt.exporter.DocumentsXLSX(r.Context(), status)
	if err != nil {
		if rt.metrics != nil {
			rt.metrics.RecordExport(serviceName, "error")
		}
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordExport(serviceName, "success")
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="documents.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(raw)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func (rt *Router) readUpload(w http.ResponseWriter, r *http.Request) (filename, contentType string, data []byte, ok bool) {
	if limit := rt.cfg.MaxFileSizeBytes; limit > 0 {
		// Leave headroom for multipart framing; the use case enforces
		// the exact payload limit.
		r.Body = http.MaxBytesReader(w, r.Body, limit+(1<<20))
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return "", "", nil, false
	}
	defer file.Close()

	data, err = io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read uploaded file"})
		return "", "", nil, false
	}
	return header.Filename, header.Header.Get("Content-Type"), data, true
}

func parseDocumentID(text string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrValidation
	}
	return id, nil
}

func parseStatusFilter(raw string) (domain.DocumentStatus, bool) {
	switch domain.DocumentStatus(raw) {
	case "", domain.StatusPending, domain.StatusProcessing, domain.StatusCompleted, domain.StatusFailed:
		return domain.DocumentStatus(raw), true
	default:
		return "", false
	}
}

func queryBool(r *http.Request, key string, fallback bool) bool {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
