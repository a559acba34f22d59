package api

import (
	"net/http"
	"strconv"

	"github.com/okian/scorekeeper/internal/domain/model"
	"github.com/okian/scorekeeper/internal/domain/types"
)

// LeaderboardHandler handles leaderboard requests
type LeaderboardHandler struct {
	source   RunSource
	maxLimit int
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(source RunSource, maxLimit int) *LeaderboardHandler {
	return &LeaderboardHandler{
		source:   source,
		maxLimit: maxLimit,
	}
}

// HandleGetLeaderboard handles GET /leaderboard?limit=N&by=exp|rep|jce requests.
// limit defaults to the cap.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	n := h.maxLimit
	if limitStr := q.Get("limit"); limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", model.NewKind(op, ErrBadRequest))
			return
		}
		if v > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", model.NewKind(op, ErrBadRequest))
			return
		}
		n = v
	}
	key, err := types.ParseSortKey(q.Get("by"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", model.Wrap(op, ErrBadRequest, err))
		return
	}

	run, ok := latest(w, r, h.source, op)
	if !ok {
		return
	}
	entries := types.Leaderboard(run.Export.Players, key)
	if len(entries) > n {
		entries = entries[:n]
	}
	writeJSON(w, http.StatusOK, entries)
}
