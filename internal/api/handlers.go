package api

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ignite/content-signals/internal/attribution"
	"github.com/ignite/content-signals/internal/classifier"
	"github.com/ignite/content-signals/internal/content"
	"github.com/ignite/content-signals/internal/export"
	"github.com/ignite/content-signals/internal/pkg/httputil"
	"github.com/ignite/content-signals/internal/pkg/logger"
	"github.com/ignite/content-signals/internal/repository/postgres"
	"github.com/ignite/content-signals/internal/segment"
	"github.com/ignite/content-signals/internal/taxonomy"
)

// ==========================================
// HEALTH & TAXONOMY
// ==========================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]any{
		"status":           "ok",
		"taxonomy_state":   string(s.taxonomy.State()),
		"taxonomy_entries": s.taxonomy.Count(),
		"dataset_rows":     len(s.Snapshot().Rows),
	})
}

func (s *Server) handleTaxonomyOptions(w http.ResponseWriter, r *http.Request) {
	includeHierarchy := r.URL.Query().Get("hierarchy") == "true"
	httputil.OK(w, s.taxonomy.AllOptions(includeHierarchy))
}

func (s *Server) handleTaxonomyCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	entry, ok := s.taxonomy.Entry(code)
	if !ok {
		httputil.NotFound(w, "unknown taxonomy code")
		return
	}
	httputil.OK(w, entry)
}

func (s *Server) handleTaxonomyDisplay(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	opts := taxonomy.DefaultDisplayOptions()
	q := r.URL.Query()
	if f := q.Get("format"); f != "" {
		opts.Format = taxonomy.DisplayFormat(f)
	}
	opts.ShowPath = q.Get("show_path") == "true"
	if q.Has("show_code") {
		opts.ShowCode = q.Get("show_code") == "true"
	}

	httputil.OK(w, map[string]string{
		"code":    code,
		"display": s.taxonomy.DisplayString(code, opts),
	})
}

// ==========================================
// RULE OPERATIONS
// ==========================================

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var rule segment.SegmentRule
	if !httputil.Decode(w, r, &rule) {
		return
	}

	snap := s.Snapshot()
	accepted := segment.Preview(&rule, snap.Rows)
	segment.SortRows(&rule, accepted)

	httputil.OK(w, map[string]any{
		"total_rows":    len(snap.Rows),
		"accepted_rows": len(accepted),
		"rows":          accepted,
	})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var rule segment.SegmentRule
	if !httputil.Decode(w, r, &rule) {
		return
	}
	httputil.OK(w, s.validator.Validate(&rule))
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var rule segment.SegmentRule
	if !httputil.Decode(w, r, &rule) {
		return
	}
	httputil.OK(w, segment.Estimate(&rule, s.Snapshot().Rows))
}

// exportRequest selects rows and a rendering for export.
type exportRequest struct {
	Rule    segment.SegmentRule `json:"rule"`
	Format  export.Format       `json:"format"`
	Name    string              `json:"name"`
	Archive bool                `json:"archive"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.Format == "" {
		req.Format = export.FormatCSV
	}
	if req.Name == "" {
		req.Name = "segment"
	}

	accepted := segment.Preview(&req.Rule, s.Snapshot().Rows)
	segment.SortRows(&req.Rule, accepted)

	if req.Archive {
		if s.archiver == nil {
			httputil.Unavailable(w, "export archiving is not configured")
			return
		}
		key, err := s.archiver.Archive(r.Context(), req.Name, req.Format, accepted)
		if err != nil {
			httputil.InternalError(w, err)
			return
		}
		httputil.OK(w, map[string]any{"archived": true, "key": key, "rows": len(accepted)})
		return
	}

	ct := export.ContentType(req.Format)
	if ct == "" {
		httputil.BadRequest(w, "unsupported export format")
		return
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Disposition", `attachment; filename="`+req.Name+`.`+string(req.Format)+`"`)
	if err := export.Write(w, req.Format, accepted); err != nil {
		logger.Error("export stream failed", "error", err.Error())
	}
}

// ==========================================
// SEGMENT CRUD
// ==========================================

type segmentRequest struct {
	OwnerID     string              `json:"owner_id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Rule        segment.SegmentRule `json:"rule"`
}

func (s *Server) handleCreateSegment(w http.ResponseWriter, r *http.Request) {
	if s.segments == nil {
		httputil.Unavailable(w, "segment persistence is not configured")
		return
	}

	var req segmentRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.Name == "" || req.OwnerID == "" {
		httputil.BadRequest(w, "name and owner_id are required")
		return
	}

	// A rule that fails validation is never persisted.
	if result := s.validator.Validate(&req.Rule); !result.IsValid {
		httputil.JSON(w, http.StatusUnprocessableEntity, result)
		return
	}

	seg := &segment.Segment{
		OwnerID:     req.OwnerID,
		Name:        req.Name,
		Description: req.Description,
		Rule:        req.Rule,
	}
	if err := s.segments.Create(r.Context(), seg); err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.Created(w, seg)
}

func (s *Server) handleListSegments(w http.ResponseWriter, r *http.Request) {
	if s.segments == nil {
		httputil.Unavailable(w, "segment persistence is not configured")
		return
	}

	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		httputil.BadRequest(w, "owner_id query parameter is required")
		return
	}

	segments, err := s.segments.ListByOwner(r.Context(), ownerID)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if segments == nil {
		segments = []segment.Segment{}
	}
	httputil.OK(w, segments)
}

func (s *Server) segmentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.BadRequest(w, "invalid segment id")
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) handleGetSegment(w http.ResponseWriter, r *http.Request) {
	if s.segments == nil {
		httputil.Unavailable(w, "segment persistence is not configured")
		return
	}
	id, ok := s.segmentID(w, r)
	if !ok {
		return
	}

	seg, err := s.segments.GetByID(r.Context(), id)
	if errors.Is(err, postgres.ErrNotFound) {
		httputil.NotFound(w, "segment not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, seg)
}

func (s *Server) handleUpdateSegment(w http.ResponseWriter, r *http.Request) {
	if s.segments == nil {
		httputil.Unavailable(w, "segment persistence is not configured")
		return
	}
	id, ok := s.segmentID(w, r)
	if !ok {
		return
	}

	var req segmentRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if result := s.validator.Validate(&req.Rule); !result.IsValid {
		httputil.JSON(w, http.StatusUnprocessableEntity, result)
		return
	}

	seg := &segment.Segment{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Rule:        req.Rule,
	}
	err := s.segments.Update(r.Context(), seg)
	if errors.Is(err, postgres.ErrNotFound) {
		httputil.NotFound(w, "segment not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, seg)
}

func (s *Server) handleDeleteSegment(w http.ResponseWriter, r *http.Request) {
	if s.segments == nil {
		httputil.Unavailable(w, "segment persistence is not configured")
		return
	}
	id, ok := s.segmentID(w, r)
	if !ok {
		return
	}

	err := s.segments.Delete(r.Context(), id)
	if errors.Is(err, postgres.ErrNotFound) {
		httputil.NotFound(w, "segment not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.NoContent(w)
}

// ==========================================
// INGESTION
// ==========================================

func (s *Server) handleAttributionUpload(w http.ResponseWriter, r *http.Request) {
	// Accepts either a multipart upload under "file" or a raw CSV body.
	var body io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		file, _, err := r.FormFile("file")
		if err != nil {
			httputil.BadRequest(w, "multipart upload requires a \"file\" part")
			return
		}
		defer file.Close()
		body = file
	}

	records, parseStats, err := attribution.Parse(body, time.Now().UTC())
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	mergeStats := s.ingestAttribution(records)
	httputil.OK(w, map[string]any{
		"parse": parseStats,
		"merge": mergeStats,
	})
}

type classifyRequest struct {
	URLs []string `json:"urls"`
}

type classifyResponse struct {
	Classified []classifier.Classification `json:"classified"`
	Failed     map[string]string           `json:"failed,omitempty"`
	Merge      content.MergeStats          `json:"merge"`
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	if s.classifier == nil {
		httputil.Unavailable(w, "classification is not configured")
		return
	}

	var req classifyRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if len(req.URLs) == 0 {
		httputil.BadRequest(w, "urls is required")
		return
	}

	resp := classifyResponse{Failed: map[string]string{}}
	for _, url := range req.URLs {
		result, err := s.classifier.Classify(r.Context(), url)
		if err != nil {
			resp.Failed[url] = err.Error()
			continue
		}
		resp.Classified = append(resp.Classified, *result)
	}

	if len(resp.Classified) > 0 {
		resp.Merge = s.ingestClassifications(resp.Classified)
	}
	if len(resp.Failed) == 0 {
		resp.Failed = nil
	}
	httputil.OK(w, resp)
}

func (s *Server) handleCacheFlush(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		httputil.Unavailable(w, "classification cache is not configured")
		return
	}

	removed, err := s.cache.Flush(r.Context())
	if errors.Is(err, classifier.ErrFlushInProgress) {
		httputil.Error(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]int{"removed": removed})
}

// handleDatasetMerge rebuilds the merged snapshot from the ingested
// datasets. Ingestion already merges; this exists for forcing a rebuild
// after out-of-band changes.
func (s *Server) handleDatasetMerge(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	stats := s.remergeLocked()
	s.mu.Unlock()
	httputil.OK(w, stats)
}

func (s *Server) handleFeedDiscover(w http.ResponseWriter, r *http.Request) {
	if s.discoverer == nil {
		httputil.Unavailable(w, "feed discovery is not configured")
		return
	}

	articles, err := s.discoverer.Discover(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"articles": articles})
}

func (s *Server) handleDatasetStats(w http.ResponseWriter, r *http.Request) {
	snap := s.Snapshot()

	classified, attributed := 0, 0
	for i := range snap.Rows {
		if snap.Rows[i].ClassifiedAt != nil {
			classified++
		}
		if snap.Rows[i].AttributedAt != nil {
			attributed++
		}
	}

	httputil.OK(w, map[string]any{
		"rows":       len(snap.Rows),
		"classified": classified,
		"attributed": attributed,
		"taken_at":   snap.TakenAt,
	})
}
