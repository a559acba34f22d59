package api

import (
	"net/http"
)

// ScoreboardHandler serves the full run.
type ScoreboardHandler struct {
	source RunSource
}

// NewScoreboardHandler creates a new scoreboard handler.
func NewScoreboardHandler(source RunSource) *ScoreboardHandler {
	return &ScoreboardHandler{source: source}
}

// HandleGetScoreboard handles GET /scoreboard requests.
func (h *ScoreboardHandler) HandleGetScoreboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_scoreboard"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	run, ok := latest(w, r, h.source, op)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, run)
}
