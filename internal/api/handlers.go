// Package api exposes the analysis pipeline over HTTP: upload/process,
// re-analyze, export and report generation, all keyed by upload session.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ignite/casedeck/internal/config"
	"github.com/ignite/casedeck/internal/datanorm"
	"github.com/ignite/casedeck/internal/pipeline"
	"github.com/ignite/casedeck/internal/pkg/httputil"
	"github.com/ignite/casedeck/internal/reference"
	"github.com/ignite/casedeck/internal/report"
	"github.com/ignite/casedeck/internal/session"
)

// ReportGenerator is the deck builder the report endpoints call.
// *report.Generator satisfies it; tests substitute fakes.
type ReportGenerator interface {
	Generate(ctx context.Context, cases []report.Case) ([]byte, []report.Artifact, error)
}

// Handlers carries the wired components for all endpoints.
type Handlers struct {
	cfg       *config.Config
	sessions  *session.Store
	refCache  *reference.Cache
	generator ReportGenerator
	version   string
	started   time.Time
}

// NewHandlers wires the endpoint set.
func NewHandlers(cfg *config.Config, sessions *session.Store, refCache *reference.Cache, generator ReportGenerator, version string) *Handlers {
	return &Handlers{
		cfg:       cfg,
		sessions:  sessions,
		refCache:  refCache,
		generator: generator,
		version:   version,
		started:   time.Now(),
	}
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]any{
		"status":  "ok",
		"version": h.version,
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	})
}

// GetOptions serves the distinct industry/territory values of the
// reference sheet for the upload form's dropdowns.
func (h *Handlers) GetOptions(w http.ResponseWriter, r *http.Request) {
	table, err := h.refCache.Get(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	httputil.OK(w, map[string]any{
		"industries": emptyIfNil(table.Industries()),
		"countries":  emptyIfNil(table.Territories()),
	})
}

func emptyIfNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

// writeError maps domain errors onto HTTP statuses: bad parameters 400,
// unknown session 404, upstream dependencies 502, everything else 500.
func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	var refErr *reference.UnavailableError
	var tplErr *report.TemplateUnavailableError
	var colErr *datanorm.MissingColumnError

	switch {
	case errors.Is(err, session.ErrNotFound):
		httputil.NotFound(w, "session not found or expired")
	case errors.As(err, &refErr):
		httputil.BadGateway(w, refErr.Error())
	case errors.As(err, &tplErr):
		httputil.BadGateway(w, tplErr.Error())
	case errors.As(err, &colErr):
		httputil.ErrorWithDetails(w, http.StatusBadRequest, err.Error(), map[string]any{
			"source":  colErr.Source,
			"columns": colErr.Columns,
		})
	case isValidationError(err):
		httputil.BadRequest(w, err.Error())
	default:
		httputil.InternalError(w, err)
	}
}

func isValidationError(err error) bool {
	return errors.Is(err, datanorm.ErrUnknownCaseType) ||
		errors.Is(err, datanorm.ErrUnknownMetric) ||
		errors.Is(err, datanorm.ErrEmptySource) ||
		errors.Is(err, pipeline.ErrUnknownDirection) ||
		errors.Is(err, report.ErrUnknownLanguage) ||
		errors.Is(err, errMissingUpload) ||
		errors.Is(err, errBadUploadType)
}

// runAnalysis loads the session and re-runs the pipeline with the given
// parameters.
func (h *Handlers) runAnalysis(sessionID string, p pipeline.Params) (*pipeline.WorkingSet, error) {
	sess, err := h.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	ws, err := pipeline.Run(sess.Rows, p)
	if err != nil {
		return nil, fmt.Errorf("analysis: %w", err)
	}
	return ws, nil
}
