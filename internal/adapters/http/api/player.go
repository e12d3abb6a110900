package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
)

// PlayerDependencies defines the interface for single player lookups.
type PlayerDependencies interface {
	Player(ctx context.Context, playerID int) (Entry, error)
}

// PlayerHandler handles player requests.
type PlayerHandler struct {
	deps PlayerDependencies
}

// NewPlayerHandler creates a new player handler.
func NewPlayerHandler(deps PlayerDependencies) *PlayerHandler {
	return &PlayerHandler{deps: deps}
}

// HandleGetPlayer handles GET /players/{id} requests.
func (h *PlayerHandler) HandleGetPlayer(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		writeFailure(w, fmt.Errorf("%w: %q", ErrInvalidID, raw))
		return
	}
	entry, err := h.deps.Player(r.Context(), id)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
