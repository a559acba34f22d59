// Package api serves a read-only JSON view of the last completed run.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/okian/scorekeeper/internal/adapters/repository"
	"github.com/okian/scorekeeper/internal/domain/model"
	"github.com/okian/scorekeeper/internal/domain/types"
)

const defaultMaxLimit = 1000

// RunSource yields the run the API serves. repository.Store satisfies it.
type RunSource interface {
	Latest(ctx context.Context) (repository.Run, error)
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the read API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	scoreboardHandler  *ScoreboardHandler
	leaderboardHandler *LeaderboardHandler
	playerHandler      *PlayerHandler
	dayHandler         *DayHandler
}

// NewServer creates a new API server with all handlers.
// maxLimit caps /leaderboard; values below 1 fall back to the default.
func NewServer(source RunSource, statsProvider StatsProvider, maxLimit int) *Server {
	if maxLimit < 1 {
		maxLimit = defaultMaxLimit
	}
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		scoreboardHandler:  NewScoreboardHandler(source),
		leaderboardHandler: NewLeaderboardHandler(source, maxLimit),
		playerHandler:      NewPlayerHandler(source),
		dayHandler:         NewDayHandler(source),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", MetricsHandler())
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/scoreboard", MetricsMiddleware(s.scoreboardHandler.HandleGetScoreboard, "scoreboard"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/players/", MetricsMiddleware(s.playerHandler.HandleGetPlayer, "players"))
	mux.HandleFunc("/days/", MetricsMiddleware(s.dayHandler.HandleGetDay, "days"))
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

// latest loads the served run, writing the error response itself when it fails.
func latest(w http.ResponseWriter, r *http.Request, source RunSource, op string) (repository.Run, bool) {
	run, err := source.Latest(r.Context())
	switch {
	case err == nil:
		return run, true
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusServiceUnavailable, "no_run", model.NewKind(op, ErrNoRun))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", model.Wrap(op, model.ErrCollaborator, err))
	}
	return repository.Run{}, false
}

// pathParam returns the single escaped segment after prefix, unescaped, so
// names containing "/" can be requested as %2F.
func pathParam(r *http.Request, prefix string) (string, bool) {
	v, ok := strings.CutPrefix(r.URL.EscapedPath(), prefix)
	if !ok || v == "" || strings.Contains(v, "/") {
		return "", false
	}
	v, err := url.PathUnescape(v)
	if err != nil || v == "" {
		return "", false
	}
	return v, true
}
