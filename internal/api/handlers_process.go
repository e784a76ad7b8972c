package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ignite/casedeck/internal/datanorm"
	"github.com/ignite/casedeck/internal/export"
	"github.com/ignite/casedeck/internal/pipeline"
	"github.com/ignite/casedeck/internal/pkg/httputil"
	"github.com/ignite/casedeck/internal/reference"
)

var (
	errMissingUpload  = errors.New("missing upload")
	errBadUploadType  = errors.New("unsupported file type")
	errMissingSession = errors.New("session_id is required")
)

// Process ingests the two exports, joins the reference table, runs the
// analysis with the form's parameters and opens a session for follow-up
// analyze/export/report calls.
func (h *Handlers) Process(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Upload.MaxBytes())
	if err := r.ParseMultipartForm(h.cfg.Upload.MaxBytes()); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			httputil.BadRequest(w, fmt.Sprintf("upload exceeds the %d MB limit", h.cfg.Upload.MaxUploadMB))
			return
		}
		httputil.BadRequest(w, "malformed multipart upload: "+err.Error())
		return
	}

	caseType := r.FormValue("case_type")
	if caseType == "" {
		httputil.BadRequest(w, "case_type is required (SHORT_VIDEO or LIVE_STREAM)")
		return
	}
	if _, err := datanorm.ParseCaseType(caseType); err != nil {
		h.writeError(w, err)
		return
	}

	video, err := h.parseUpload(r, "video_file", datanorm.CaseShortVideo)
	if err != nil {
		h.writeError(w, err)
		return
	}
	live, err := h.parseUpload(r, "live_file", datanorm.CaseLiveStream)
	if err != nil {
		h.writeError(w, err)
		return
	}

	// Each upload starts from a fresh reference table.
	h.refCache.Invalidate()
	table, err := h.refCache.Get(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	rows := make([]datanorm.Row, 0, len(video.Rows)+len(live.Rows))
	rows = append(rows, video.Rows...)
	rows = append(rows, live.Rows...)
	matched := reference.Join(rows, table)

	params := pipeline.Params{
		CaseType:      caseType,
		Industry:      r.FormValue("industry"),
		Country:       r.FormValue("country"),
		GroupByDomain: parseFormBool(r.FormValue("group_by_domain")),
		SortMetric:    r.FormValue("sort_metric"),
		Direction:     r.FormValue("direction"),
	}
	ws, err := pipeline.Run(rows, params)
	if err != nil {
		h.writeError(w, err)
		return
	}

	sess := h.sessions.Create(video, live, rows, h.refCache)
	log.Printf("[api] session %s: %d video + %d live rows, %d matched reference, %d in result",
		sess.ID, len(video.Rows), len(live.Rows), matched, ws.Len())

	resp := analysisResponse(sess.ID, ws)
	resp["skipped_rows"] = video.Skipped + live.Skipped
	resp["row_errors"] = map[string][]datanorm.RowError{
		"video_file": emptyRowErrors(video.RowErrors),
		"live_file":  emptyRowErrors(live.RowErrors),
	}
	httputil.OK(w, resp)
}

// analyzeRequest carries the session handle plus the same knobs the upload
// form takes.
type analyzeRequest struct {
	SessionID string `json:"session_id"`
	pipeline.Params
}

// Analyze re-runs filter/aggregate/rank over a session's joined rows.
func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.SessionID == "" {
		httputil.BadRequest(w, errMissingSession.Error())
		return
	}

	ws, err := h.runAnalysis(req.SessionID, req.Params)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httputil.OK(w, analysisResponse(req.SessionID, ws))
}

func analysisResponse(sessionID string, ws *pipeline.WorkingSet) map[string]any {
	return map[string]any{
		"session_id":  sessionID,
		"columns":     export.Columns(ws.Grouped),
		"rows":        export.Records(ws),
		"total_count": ws.Len(),
	}
}

func (h *Handlers) parseUpload(r *http.Request, field string, caseType datanorm.CaseType) (*datanorm.ParseResult, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, fmt.Errorf("%w: %s (both video_file and live_file are required)", errMissingUpload, field)
		}
		return nil, fmt.Errorf("reading %s: %w", field, err)
	}
	defer file.Close()

	if !allowedUploadExt(header.Filename) {
		return nil, fmt.Errorf("%w: %q (want .xlsx, .xls or .csv)", errBadUploadType, header.Filename)
	}
	res, err := datanorm.ParseSource(file, header.Filename, caseType)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return res, nil
}

func allowedUploadExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xls", ".csv":
		return true
	}
	return false
}

// parseFormBool accepts strconv booleans plus the bare "on" an HTML
// checkbox submits.
func parseFormBool(v string) bool {
	if v == "on" {
		return true
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

func emptyRowErrors(errs []datanorm.RowError) []datanorm.RowError {
	if errs == nil {
		return []datanorm.RowError{}
	}
	return errs
}
