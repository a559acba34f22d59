package api

import (
	"fmt"
	"net/http"

	"github.com/okian/scorekeeper/internal/domain/model"
)

// DayHandler serves one day of the score history.
type DayHandler struct {
	source RunSource
}

// NewDayHandler creates a new day handler.
func NewDayHandler(source RunSource) *DayHandler {
	return &DayHandler{source: source}
}

// HandleGetDay handles GET /days/{YYYY-MM-DD} requests.
func (h *DayHandler) HandleGetDay(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_day"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	raw, ok := pathParam(r, "/days/")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", model.NewKind(op, ErrBadRequest))
		return
	}
	date, err := model.ParseDate(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", model.Wrap(op, ErrBadRequest, err))
		return
	}
	run, ok := latest(w, r, h.source, op)
	if !ok {
		return
	}
	day, found := run.Export.Day(date)
	if !found {
		writeError(w, http.StatusNotFound, "not_found",
			model.Wrap(op, model.ErrNotFound, fmt.Errorf("no scores on %s", date)))
		return
	}
	writeJSON(w, http.StatusOK, day)
}
