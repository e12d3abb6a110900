// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/okian/xfpl/internal/adapters/repository"
	service "github.com/okian/xfpl/internal/app"
	"github.com/okian/xfpl/internal/domain/ranking"
	"github.com/okian/xfpl/internal/domain/scoring"
	"github.com/okian/xfpl/internal/domain/types"
)

// Default list size when no limit is given.
const defaultLimit = 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	LeaderboardDependencies
	PlayerDependencies
	ViewDependencies
	ReportDependencies
	RefreshDependencies
}

// Entry mirrors the read shape returned by ranked queries.
type Entry = types.Entry

// ReportDependencies exposes the run-level outputs.
type ReportDependencies interface {
	Failures(ctx context.Context) ([]*scoring.ValidationError, error)
	Summary(ctx context.Context) (ranking.Summary, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	leaderboardHandler *LeaderboardHandler
	playerHandler      *PlayerHandler
	viewHandler        *ViewHandler
	reportHandler      *ReportHandler
	refreshHandler     *RefreshHandler
}

// NewServer creates a new API server with all handlers. maxLimit caps the
// size of list responses.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLimit int) *Server {
	if maxLimit < 1 {
		maxLimit = defaultLimit
	}
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLimit),
		playerHandler:      NewPlayerHandler(deps),
		viewHandler:        NewViewHandler(deps, maxLimit),
		reportHandler:      NewReportHandler(deps),
		refreshHandler:     NewRefreshHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("GET /players/{id}", MetricsMiddleware(s.playerHandler.HandleGetPlayer, "players"))
	mux.HandleFunc("GET /views/{name}", MetricsMiddleware(s.viewHandler.HandleGetView, "views"))
	mux.HandleFunc("GET /failures", MetricsMiddleware(s.reportHandler.HandleGetFailures, "failures"))
	mux.HandleFunc("GET /summary", MetricsMiddleware(s.reportHandler.HandleGetSummary, "summary"))
	mux.HandleFunc("POST /refresh", MetricsMiddleware(s.refreshHandler.HandlePostRefresh, "refresh"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps err to a status and error code.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, repository.ErrUnknownView):
		return http.StatusNotFound, "unknown_view"
	case errors.Is(err, repository.ErrInvalidLimit), errors.Is(err, ErrBadRequest), errors.Is(err, ErrInvalidID):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, repository.ErrNoSnapshot):
		return http.StatusServiceUnavailable, "no_snapshot"
	case errors.Is(err, service.ErrRefreshInFlight):
		return http.StatusConflict, "refresh_in_flight"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// parseLimit reads ?limit=N. A missing value means defaultLimit; values
// above maxLimit are capped.
func parseLimit(r *http.Request, maxLimit int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return min(defaultLimit, maxLimit), nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, ErrBadRequest
	}
	return min(n, maxLimit), nil
}
