package api

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/ignite/casedeck/internal/pipeline"
	"github.com/ignite/casedeck/internal/pkg/httputil"
	"github.com/ignite/casedeck/internal/report"
)

type reportRequest struct {
	analyzeRequest
	Limit    int    `json:"limit"`
	Language string `json:"language"`
}

// Report re-runs the analysis, takes the top-N domains and streams the
// generated deck.
func (h *Handlers) Report(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.SessionID == "" {
		httputil.BadRequest(w, errMissingSession.Error())
		return
	}
	lang, err := report.ParseLanguage(req.Language)
	if err != nil {
		h.writeError(w, err)
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = h.cfg.Report.DefaultCases
	}
	if max := h.cfg.Report.MaxCases; max > 0 && limit > max {
		limit = max
	}

	ws, err := h.runAnalysis(req.SessionID, req.Params)
	if err != nil {
		h.writeError(w, err)
		return
	}
	cases := report.BuildCases(ws, limit, lang)
	if len(cases) == 0 {
		httputil.BadRequest(w, "analysis returned no domains to report on")
		return
	}

	deck, artifacts, err := h.generator.Generate(r.Context(), cases)
	if err != nil {
		h.writeError(w, err)
		return
	}
	log.Printf("[api] session %s: report with %d slides", req.SessionID, len(artifacts))

	stamp := time.Now().Format("20060102_150405")
	httputil.Attachment(w, pptxContentType, "case_report_"+stamp+".pptx", deck)
}

type createPPTXRequest struct {
	ChannelName string `json:"channel_name"`
	Industry    string `json:"industry"`
	Country     string `json:"country"`
	URL         string `json:"url"`
	Language    string `json:"language"`
}

// CreatePPTX builds a one-slide deck for a single ad-hoc case, no upload or
// session involved.
func (h *Handlers) CreatePPTX(w http.ResponseWriter, r *http.Request) {
	var req createPPTXRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	pageURL := strings.TrimSpace(req.URL)
	if pageURL == "" {
		httputil.BadRequest(w, "url is required")
		return
	}
	if !strings.Contains(pageURL, "://") {
		pageURL = "https://" + pageURL
	}
	lang, err := report.ParseLanguage(req.Language)
	if err != nil {
		h.writeError(w, err)
		return
	}

	c := report.Case{
		Domain:      pipeline.DomainOf(pageURL),
		DisplayName: req.ChannelName,
		Industry:    req.Industry,
		Country:     req.Country,
		Language:    lang,
		SampleCount: 1,
	}
	if c.DisplayName == "" {
		c.DisplayName = c.Host()
	}

	deck, _, err := h.generator.Generate(r.Context(), []report.Case{c})
	if err != nil {
		h.writeError(w, err)
		return
	}
	log.Printf("[api] single-case deck for %s", c.Domain)

	httputil.Attachment(w, pptxContentType, "case_"+c.Host()+".pptx", deck)
}
