package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/ignite/casedeck/internal/export"
	"github.com/ignite/casedeck/internal/pkg/httputil"
)

const (
	csvContentType  = "text/csv"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	pptxContentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
)

type exportRequest struct {
	analyzeRequest
	Format string `json:"format"`
}

// Export re-runs the analysis and streams the result as a CSV or XLSX
// attachment.
func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
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

	stamp := time.Now().Format("20060102_150405")
	var buf bytes.Buffer
	switch req.Format {
	case "", "csv":
		if err := export.WriteCSV(&buf, ws); err != nil {
			httputil.InternalError(w, fmt.Errorf("writing csv: %w", err))
			return
		}
		httputil.Attachment(w, csvContentType, "analysis_"+stamp+".csv", buf.Bytes())
	case "xlsx":
		if err := export.WriteXLSX(&buf, ws); err != nil {
			httputil.InternalError(w, fmt.Errorf("writing xlsx: %w", err))
			return
		}
		httputil.Attachment(w, xlsxContentType, "analysis_"+stamp+".xlsx", buf.Bytes())
	default:
		httputil.BadRequest(w, fmt.Sprintf("unknown export format %q (want csv or xlsx)", req.Format))
	}
}
