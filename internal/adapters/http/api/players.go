package api

import (
	"fmt"
	"net/http"

	"github.com/okian/scorekeeper/internal/domain/model"
	"github.com/okian/scorekeeper/internal/domain/types"
)

// PlayerHandler serves one player's totals, EXP rank and ledger.
type PlayerHandler struct {
	source RunSource
}

// NewPlayerHandler creates a new player handler.
func NewPlayerHandler(source RunSource) *PlayerHandler {
	return &PlayerHandler{source: source}
}

type playerDay struct {
	Date    model.Date         `json:"date"`
	Actions []model.ActionView `json:"actions"`
}

type playerResponse struct {
	Entry
	History []playerDay `json:"history"`
}

// HandleGetPlayer handles GET /players/{name} requests.
func (h *PlayerHandler) HandleGetPlayer(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_player"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	name, ok := pathParam(r, "/players/")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", model.NewKind(op, ErrBadRequest))
		return
	}
	run, ok := latest(w, r, h.source, op)
	if !ok {
		return
	}
	entry, found := types.Find(types.Leaderboard(run.Export.Players, types.ByEXP), name)
	if !found {
		writeError(w, http.StatusNotFound, "not_found",
			model.Wrap(op, model.ErrNotFound, fmt.Errorf("player %q", name)))
		return
	}

	resp := playerResponse{Entry: entry, History: []playerDay{}}
	for _, day := range run.Export.ScoreHistory {
		for _, s := range day.Scores {
			if s.Name == name {
				resp.History = append(resp.History, playerDay{Date: day.Date, Actions: s.Actions})
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
