package httpadapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/careerforge/cvmatch/internal/core/domain"
	"github.com/careerforge/cvmatch/internal/core/ports"
	"github.com/careerforge/cvmatch/internal/observability/metrics"
)

// maxUploadBytes caps a single multipart upload. Oversized documents are
// rejected at the edge before touching storage.
const maxUploadBytes = 20 << 20

type Router struct {
	service string

	ingestor ports.RecordIngestor
	reader   ports.RecordReader
	deleter  ports.RecordDeleter
	matcher  ports.RecordMatcher
	queue    ports.MessageQueue
	report   ports.MatchReportWriter

	metrics *metrics.APIMetrics

	defaultTopK    int
	rateLimitRPS   float64
	rateLimitBurst int
}

type RouterConfig struct {
	Service        string
	DefaultTopK    int
	RateLimitRPS   float64
	RateLimitBurst int
}

func NewRouter(
	cfg RouterConfig,
	ingestor ports.RecordIngestor,
	reader ports.RecordReader,
	deleter ports.RecordDeleter,
	matcher ports.RecordMatcher,
	queue ports.MessageQueue,
	report ports.MatchReportWriter,
	apiMetrics *metrics.APIMetrics,
) *Router {
	return &Router{
		service:        cfg.Service,
		ingestor:       ingestor,
		reader:         reader,
		deleter:        deleter,
		matcher:        matcher,
		queue:          queue,
		report:         report,
		metrics:        apiMetrics,
		defaultTopK:    cfg.DefaultTopK,
		rateLimitRPS:   cfg.RateLimitRPS,
		rateLimitBurst: cfg.RateLimitBurst,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("POST /v1/records", rt.uploadRecord)
	mux.HandleFunc("GET /v1/records/{id}", rt.getRecord)
	mux.HandleFunc("DELETE /v1/records/{id}", rt.deleteRecord)
	mux.HandleFunc("POST /v1/records/{id}/reindex", rt.reindexRecord)
	mux.HandleFunc("GET /v1/records/{id}/matches", rt.listMatches)
	mux.HandleFunc("GET /v1/records/{id}/matches/export", rt.exportMatches)
	mux.HandleFunc("GET /v1/score", rt.score)

	var handler http.Handler = mux
	if rt.rateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)
	}
	handler = ownerMiddleware(handler)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadRecord(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	kind := domain.RecordKind(strings.TrimSpace(r.FormValue("kind")))
	if !kind.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "form field 'kind' must be 'cv' or 'job'"})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	rec, err := rt.ingestor.Upload(
		r.Context(),
		ownerFromContext(r.Context()),
		kind,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordUpload(rt.service, string(kind), fileHeader.Size)
	}
	writeJSON(w, http.StatusAccepted, rec)
}

func (rt *Router) getRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := rt.reader.GetOwned(r.Context(), ownerFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (rt *Router) deleteRecord(w http.ResponseWriter, r *http.Request) {
	if err := rt.deleter.Delete(r.Context(), ownerFromContext(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) reindexRecord(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	// Ownership check up front; the queue consumer runs unscoped.
	if _, err := rt.reader.GetOwned(r.Context(), ownerFromContext(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	if err := rt.queue.PublishReindexRequested(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "reindex scheduled", "id": id})
}

func (rt *Router) listMatches(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec, matches, err := rt.matchesFor(r, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordMatchQuery(rt.service, string(rec.Kind), len(matches), time.Since(start))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"record_id": rec.ID,
		"kind":      rec.Kind,
		"matches":   matches,
	})
}

func (rt *Router) exportMatches(w http.ResponseWriter, r *http.Request) {
	rec, matches, err := rt.matchesFor(r, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	raw, err := rt.report.WriteMatches(rec, matches)
	if err != nil {
		writeError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordExport(rt.service)
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "matches_"+rec.ID+".xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func (rt *Router) matchesFor(r *http.Request, id string) (*domain.Record, []domain.MatchResult, error) {
	ownerID := ownerFromContext(r.Context())
	rec, err := rt.reader.GetOwned(r.Context(), ownerID, id)
	if err != nil {
		return nil, nil, err
	}

	topK := rt.defaultTopK
	if raw := r.URL.Query().Get("top_k"); raw != "" {
		topK, err = strconv.Atoi(raw)
		if err != nil || topK < 0 {
			return nil, nil, domain.WrapError(domain.ErrInvalidInput, "list matches",
				fmt.Errorf("top_k must be a non-negative integer, got %q", raw))
		}
	}

	var matches []domain.MatchResult
	switch rec.Kind {
	case domain.KindCV:
		matches, err = rt.matcher.MatchCvToJobs(r.Context(), ownerID, rec.ID, topK)
	default:
		matches, err = rt.matcher.MatchJobToCvs(r.Context(), ownerID, rec.ID, topK)
	}
	if err != nil {
		return nil, nil, err
	}
	return rec, matches, nil
}

func (rt *Router) score(w http.ResponseWriter, r *http.Request) {
	cvID := r.URL.Query().Get("cv_id")
	jobID := r.URL.Query().Get("job_id")
	if cvID == "" || jobID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query parameters 'cv_id' and 'job_id' are required"})
		return
	}

	score, err := rt.matcher.Score(r.Context(), ownerFromContext(r.Context()), cvID, jobID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cv_id":  cvID,
		"job_id": jobID,
		"score":  score,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
