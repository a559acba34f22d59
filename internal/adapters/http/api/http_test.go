package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/scorekeeper/internal/adapters/http/api"
	"github.com/okian/scorekeeper/internal/adapters/repository"
	"github.com/okian/scorekeeper/internal/domain/model"
	"github.com/okian/scorekeeper/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

type brokenSource struct{}

func (brokenSource) Latest(context.Context) (repository.Run, error) {
	return repository.Run{}, errors.New("connection reset by peer")
}

func sampleRun() repository.Run {
	d21 := model.Date{Year: 2021, Month: time.September, Day: 21}
	d22 := model.Date{Year: 2021, Month: time.September, Day: 22}
	export := model.Export{
		Players: []model.PlayerView{
			{Name: "Alice", EXP: 4, REP: 1},
			{Name: "Bob", EXP: 2, REP: 3, JCE: 5},
			{Name: "Carol"},
		},
		ScoreHistory: []model.DayView{
			{Date: d22, Scores: []model.ScoreView{
				{Name: "Alice", Actions: []model.ActionView{{Type: model.ActionMessage, Description: "Message - #general", EXP: 2}}},
			}},
			{Date: d21, Scores: []model.ScoreView{
				{Name: "Alice", Actions: []model.ActionView{
					{Type: model.ActionMessage, Description: "Message - #general", EXP: 2},
					{Type: model.ActionREP, Description: "receive +REP(Bob)", REP: 1},
				}},
				{Name: "Bob", Actions: []model.ActionView{{Type: model.ActionREP, Description: "give +REP(Alice)", EXP: 2}}},
			}},
		},
	}
	now := time.Date(2021, time.October, 1, 0, 0, 0, 0, time.UTC)
	return repository.NewRun(now, now.Add(time.Second), []string{"general"}, export)
}

func newMux(source api.RunSource) *http.ServeMux {
	stats := api.StatsFunc(func() any { return map[string]any{"state": "done", "players": 3} })
	server := api.NewServer(source, stats, 2)
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return mux
}

func get(mux http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestServer_Register(t *testing.T) {
	Convey("Given a server backed by a saved run", t, func() {
		store := repository.NewMemoryStore()
		run := sampleRun()
		So(store.Save(context.Background(), run), ShouldBeNil)
		mux := newMux(store)

		Convey("When /healthz is requested", func() {
			w := get(mux, "/healthz")

			Convey("Then it reports ok", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"status":"ok"`)
			})
		})

		Convey("When /metrics is requested after some traffic", func() {
			get(mux, "/leaderboard")
			w := get(mux, "/metrics")

			Convey("Then the Prometheus exposition includes the HTTP counters", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "scorekeeper_http_requests_total")
			})
		})

		Convey("When /stats is requested", func() {
			w := get(mux, "/stats")

			Convey("Then the provider's view is encoded", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "application/json; charset=utf-8")
				So(w.Body.String(), ShouldContainSubstring, `"state":"done"`)
			})
		})

		Convey("When /scoreboard is requested", func() {
			w := get(mux, "/scoreboard")

			Convey("Then the whole run comes back", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got repository.Run
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got.ID, ShouldEqual, run.ID)
				So(got.Export, ShouldResemble, run.Export)
			})
		})

		Convey("When /leaderboard is requested without parameters", func() {
			w := get(mux, "/leaderboard")

			Convey("Then the top entries by EXP come back up to the cap", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var entries []types.Entry
				So(json.Unmarshal(w.Body.Bytes(), &entries), ShouldBeNil)
				So(len(entries), ShouldEqual, 2)
				So(entries[0].Name, ShouldEqual, "Alice")
				So(entries[0].Rank, ShouldEqual, 1)
			})
		})

		Convey("When /leaderboard is ranked by REP with limit 1", func() {
			w := get(mux, "/leaderboard?limit=1&by=rep")

			Convey("Then Bob leads", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var entries []types.Entry
				So(json.Unmarshal(w.Body.Bytes(), &entries), ShouldBeNil)
				So(len(entries), ShouldEqual, 1)
				So(entries[0].Name, ShouldEqual, "Bob")
				So(entries[0].REP, ShouldEqual, 3)
			})
		})

		Convey("When /leaderboard gets bad parameters", func() {
			Convey("Then a non-numeric limit is rejected", func() {
				So(get(mux, "/leaderboard?limit=abc").Code, ShouldEqual, http.StatusBadRequest)
			})
			Convey("Then a zero limit is rejected", func() {
				So(get(mux, "/leaderboard?limit=0").Code, ShouldEqual, http.StatusBadRequest)
			})
			Convey("Then a limit over the cap is rejected", func() {
				w := get(mux, "/leaderboard?limit=3")
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, "limit_exceeded")
			})
			Convey("Then an unknown sort key is rejected", func() {
				So(get(mux, "/leaderboard?by=karma").Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When a player is requested", func() {
			w := get(mux, "/players/Alice")

			Convey("Then totals, rank and the ledger newest first come back", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got struct {
					Rank    int    `json:"rank"`
					Name    string `json:"name"`
					EXP     int    `json:"EXP"`
					History []struct {
						Date    string `json:"date"`
						Actions []struct {
							Description string `json:"description"`
						} `json:"actions"`
					} `json:"history"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got.Rank, ShouldEqual, 1)
				So(got.EXP, ShouldEqual, 4)
				So(len(got.History), ShouldEqual, 2)
				So(got.History[0].Date, ShouldEqual, "2021-09-22")
				So(got.History[1].Actions[1].Description, ShouldEqual, "receive +REP(Bob)")
			})
		})

		Convey("When a player without actions is requested", func() {
			w := get(mux, "/players/Carol")

			Convey("Then the history is an empty list", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"history":[]`)
			})
		})

		Convey("When an unknown player is requested", func() {
			Convey("Then it is not found", func() {
				So(get(mux, "/players/Eve").Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the player path is malformed", func() {
			Convey("Then it is a bad request", func() {
				So(get(mux, "/players/").Code, ShouldEqual, http.StatusBadRequest)
				So(get(mux, "/players/a/b").Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When a player name is escaped", func() {
			w := get(mux, "/players/Al%69ce")

			Convey("Then it is unescaped before lookup", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"name":"Alice"`)
			})
		})

		Convey("When a day is requested", func() {
			w := get(mux, "/days/2021-09-21")

			Convey("Then both players' scores come back", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var day model.DayView
				So(json.Unmarshal(w.Body.Bytes(), &day), ShouldBeNil)
				So(len(day.Scores), ShouldEqual, 2)
			})
		})

		Convey("When a day is malformed or absent", func() {
			Convey("Then bad dates are rejected and missing ones not found", func() {
				So(get(mux, "/days/21-09-2021").Code, ShouldEqual, http.StatusBadRequest)
				So(get(mux, "/days/2021-09-23").Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When a read route is called with POST", func() {
			req := httptest.NewRequest(http.MethodPost, "/leaderboard", http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it is not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})

	Convey("Given a server with no completed run", t, func() {
		mux := newMux(repository.NewMemoryStore())

		Convey("Then run-backed routes are unavailable", func() {
			for _, path := range []string{"/scoreboard", "/leaderboard", "/players/Alice", "/days/2021-09-21"} {
				w := get(mux, path)
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				So(w.Body.String(), ShouldContainSubstring, "no_run")
			}
		})

		Convey("Then health is still ok", func() {
			So(get(mux, "/healthz").Code, ShouldEqual, http.StatusOK)
		})
	})

	Convey("Given a server whose store fails", t, func() {
		mux := newMux(brokenSource{})

		Convey("Then reads surface as internal errors", func() {
			w := get(mux, "/scoreboard")
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(w.Body.String(), ShouldContainSubstring, "connection reset by peer")
		})
	})

	Convey("Given a server without a stats provider", t, func() {
		server := api.NewServer(repository.NewMemoryStore(), nil, 0)
		mux := http.NewServeMux()
		server.Register(context.Background(), mux)

		Convey("Then /stats returns an empty object", func() {
			w := get(mux, "/stats")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldEqual, "{}\n")
		})
	})
}

func TestServer_PlayerNamesWithSlashes(t *testing.T) {
	Convey("Given a run with nicknames containing a slash and a space", t, func() {
		now := time.Date(2021, time.October, 1, 0, 0, 0, 0, time.UTC)
		store := repository.NewMemoryStore()
		So(store.Save(context.Background(), repository.NewRun(now, now, []string{"general"}, model.Export{
			Players: []model.PlayerView{{Name: "AC/DC", EXP: 3}, {Name: "Zoë Q", EXP: 1}},
		})), ShouldBeNil)
		mux := newMux(store)

		Convey("When the slash is escaped as %2F", func() {
			w := get(mux, "/players/AC%2FDC")

			Convey("Then the player is found", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"name":"AC/DC"`)
			})
		})

		Convey("When a space and accent are escaped", func() {
			w := get(mux, "/players/Zo%C3%AB%20Q")

			Convey("Then the player is found", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"rank":2`)
			})
		})

		Convey("When the slash is not escaped", func() {
			Convey("Then it is still a bad request", func() {
				So(get(mux, "/players/AC/DC").Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}
