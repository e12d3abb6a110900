package api

import (
	"context"
	"net/http"
)

// RefreshDependencies triggers a recompute.
type RefreshDependencies interface {
	RefreshAsync(ctx context.Context) error
}

// RefreshHandler handles refresh requests.
type RefreshHandler struct {
	deps RefreshDependencies
}

// NewRefreshHandler creates a new refresh handler.
func NewRefreshHandler(deps RefreshDependencies) *RefreshHandler {
	return &RefreshHandler{deps: deps}
}

type refreshResponse struct {
	Status string `json:"status"`
}

// HandlePostRefresh handles POST /refresh. It answers 202 once the refresh
// has started and 409 while another one is running.
func (h *RefreshHandler) HandlePostRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.RefreshAsync(r.Context()); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, refreshResponse{Status: "accepted"})
}
