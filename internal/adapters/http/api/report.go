package api

import (
	"net/http"

	"github.com/okian/xfpl/internal/domain/scoring"
)

// ReportHandler serves run-level outputs.
type ReportHandler struct {
	deps ReportDependencies
}

// NewReportHandler creates a new report handler.
func NewReportHandler(deps ReportDependencies) *ReportHandler {
	return &ReportHandler{deps: deps}
}

// HandleGetFailures handles GET /failures requests.
func (h *ReportHandler) HandleGetFailures(w http.ResponseWriter, r *http.Request) {
	failures, err := h.deps.Failures(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	if failures == nil {
		failures = []*scoring.ValidationError{}
	}
	writeJSON(w, http.StatusOK, failures)
}

// HandleGetSummary handles GET /summary requests.
func (h *ReportHandler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.deps.Summary(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
