package api

import (
	"context"
	"net/http"
)

// ViewDependencies defines the interface for named view reads.
type ViewDependencies interface {
	View(ctx context.Context, name string, n int) ([]Entry, error)
}

// ViewHandler handles named view requests.
type ViewHandler struct {
	deps     ViewDependencies
	maxLimit int
}

// NewViewHandler creates a new view handler.
func NewViewHandler(deps ViewDependencies, maxLimit int) *ViewHandler {
	return &ViewHandler{deps: deps, maxLimit: maxLimit}
}

// HandleGetView handles GET /views/{name}?limit=N requests.
func (h *ViewHandler) HandleGetView(w http.ResponseWriter, r *http.Request) {
	n, err := parseLimit(r, h.maxLimit)
	if err != nil {
		writeFailure(w, err)
		return
	}
	entries, err := h.deps.View(r.Context(), r.PathValue("name"), n)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
