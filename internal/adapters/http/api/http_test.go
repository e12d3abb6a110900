package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/xfpl/internal/adapters/http/api"
	"github.com/okian/xfpl/internal/adapters/repository"
	service "github.com/okian/xfpl/internal/app"
	"github.com/okian/xfpl/internal/domain/model"
	"github.com/okian/xfpl/internal/domain/ranking"
	"github.com/okian/xfpl/internal/domain/scoring"
	"github.com/okian/xfpl/internal/domain/types"
)

type mockDependencies struct {
	entries    []types.Entry
	topNErr    error
	gotLimit   int
	gotView    string
	viewErr    error
	playerErr  error
	failures   []*scoring.ValidationError
	reportErr  error
	summary    ranking.Summary
	refreshErr error
	refreshes  int
}

func (m *mockDependencies) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	m.gotLimit = n
	if m.topNErr != nil {
		return nil, m.topNErr
	}
	return m.entries[:min(n, len(m.entries))], nil
}

func (m *mockDependencies) Player(ctx context.Context, id int) (types.Entry, error) {
	if m.playerErr != nil {
		return types.Entry{}, m.playerErr
	}
	for _, e := range m.entries {
		if e.PlayerID == id {
			return e, nil
		}
	}
	return types.Entry{}, repository.ErrNotFound
}

func (m *mockDependencies) View(ctx context.Context, name string, n int) ([]types.Entry, error) {
	m.gotView, m.gotLimit = name, n
	if m.viewErr != nil {
		return nil, m.viewErr
	}
	return m.entries[:min(n, len(m.entries))], nil
}

func (m *mockDependencies) Failures(ctx context.Context) ([]*scoring.ValidationError, error) {
	return m.failures, m.reportErr
}

func (m *mockDependencies) Summary(ctx context.Context) (ranking.Summary, error) {
	return m.summary, m.reportErr
}

func (m *mockDependencies) RefreshAsync(ctx context.Context) error {
	m.refreshes++
	return m.refreshErr
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func entry(rank, id int, name string, per90 float64) types.Entry {
	return types.Entry{
		Rank: rank,
		ExpectedPointsRecord: model.ExpectedPointsRecord{
			PlayerID:            id,
			Name:                name,
			Position:            model.Midfielder,
			ExpectedPointsPer90: per90,
		},
	}
}

func newMux(deps *mockDependencies, maxLimit int) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}}, maxLimit).
		Register(context.Background(), mux)
	return mux
}

func do(mux http.Handler, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, http.NoBody)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) map[string]string {
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return body
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &mockDependencies{entries: []types.Entry{entry(1, 10, "A", 7.5)}}
		mux := newMux(deps, 100)

		Convey("Then the health endpoint serves metrics", func() {
			w := do(mux, http.MethodGet, "/healthz")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "xfpl_")
		})

		Convey("Then the stats endpoint serves the stats map", func() {
			w := do(mux, http.MethodGet, "/stats")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldEqual, "application/json; charset=utf-8")
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("Then wrong methods are rejected", func() {
			So(do(mux, http.MethodPost, "/leaderboard").Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(do(mux, http.MethodGet, "/refresh").Code, ShouldEqual, http.StatusMethodNotAllowed)
		})

		Convey("Then unknown paths are not found", func() {
			So(do(mux, http.MethodGet, "/events").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestLeaderboardHandler(t *testing.T) {
	Convey("Given a leaderboard handler", t, func() {
		deps := &mockDependencies{entries: []types.Entry{
			entry(1, 10, "A", 7.5),
			entry(2, 11, "B", 6.0),
			entry(2, 12, "C", 6.0),
		}}
		mux := newMux(deps, 2)

		Convey("When requesting the top entries", func() {
			w := do(mux, http.MethodGet, "/leaderboard?limit=2")

			Convey("Then ranked entries are returned flat", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got []map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got, ShouldHaveLength, 2)
				So(got[0]["rank"], ShouldEqual, 1.0)
				So(got[0]["player_id"], ShouldEqual, 10.0)
				So(got[1]["expected_points_per_90"], ShouldEqual, 6.0)
			})
		})

		Convey("When the limit exceeds the maximum", func() {
			w := do(mux, http.MethodGet, "/leaderboard?limit=500")

			Convey("Then it is capped", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.gotLimit, ShouldEqual, 2)
			})
		})

		Convey("When no limit is given", func() {
			w := do(mux, http.MethodGet, "/leaderboard")

			Convey("Then the default is used within the cap", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.gotLimit, ShouldEqual, 2)
			})
		})

		Convey("When the limit is invalid", func() {
			for _, q := range []string{"0", "-3", "ten"} {
				w := do(mux, http.MethodGet, "/leaderboard?limit="+q)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w)["code"], ShouldEqual, "bad_request")
			}
		})

		Convey("When the store fails", func() {
			deps.topNErr = errors.New("disk on fire")
			w := do(mux, http.MethodGet, "/leaderboard?limit=1")

			Convey("Then it returns internal server error", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(decodeError(w)["code"], ShouldEqual, "internal_error")
			})
		})
	})
}

func TestPlayerHandler(t *testing.T) {
	Convey("Given a player handler", t, func() {
		deps := &mockDependencies{entries: []types.Entry{entry(1, 10, "A", 7.5)}}
		mux := newMux(deps, 100)

		Convey("When requesting a known player", func() {
			w := do(mux, http.MethodGet, "/players/10")

			Convey("Then the entry is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"name":"A"`)
			})
		})

		Convey("When requesting an unknown player", func() {
			w := do(mux, http.MethodGet, "/players/99")

			Convey("Then it returns not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(decodeError(w)["code"], ShouldEqual, "not_found")
			})
		})

		Convey("When the id is not a number", func() {
			w := do(mux, http.MethodGet, "/players/salah")

			Convey("Then it returns bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w)["message"], ShouldContainSubstring, "salah")
			})
		})
	})
}

func TestViewHandler(t *testing.T) {
	Convey("Given a view handler", t, func() {
		deps := &mockDependencies{entries: []types.Entry{entry(1, 10, "A", 7.5), entry(2, 11, "B", 6.0)}}
		mux := newMux(deps, 100)

		Convey("When requesting a view", func() {
			w := do(mux, http.MethodGet, "/views/buy_targets?limit=1")

			Convey("Then the name and limit are passed through", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.gotView, ShouldEqual, "buy_targets")
				So(deps.gotLimit, ShouldEqual, 1)
			})
		})

		Convey("When the view is unknown", func() {
			deps.viewErr = repository.ErrUnknownView
			w := do(mux, http.MethodGet, "/views/captains")

			Convey("Then it returns not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(decodeError(w)["code"], ShouldEqual, "unknown_view")
			})
		})
	})
}

func TestReportHandler(t *testing.T) {
	Convey("Given a report handler", t, func() {
		deps := &mockDependencies{
			failures: []*scoring.ValidationError{scoring.NewValidationError(4, "position", scoring.ErrUnknownPosition, `unknown position "COACH"`)},
			summary:  ranking.Summary{Players: 3, BuyTargets: 1},
		}
		mux := newMux(deps, 100)

		Convey("When requesting failures", func() {
			w := do(mux, http.MethodGet, "/failures")

			Convey("Then they are listed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got []map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got, ShouldHaveLength, 1)
				So(got[0]["player_id"], ShouldEqual, 4.0)
				So(got[0]["field"], ShouldEqual, "position")
			})
		})

		Convey("When there are no failures", func() {
			deps.failures = nil
			w := do(mux, http.MethodGet, "/failures")

			Convey("Then an empty list is returned", func() {
				So(strings.TrimSpace(w.Body.String()), ShouldEqual, "[]")
			})
		})

		Convey("When requesting the summary", func() {
			w := do(mux, http.MethodGet, "/summary")

			Convey("Then it is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"players":3`)
				So(w.Body.String(), ShouldContainSubstring, `"buy_targets":1`)
			})
		})

		Convey("When nothing has been published yet", func() {
			deps.reportErr = repository.ErrNoSnapshot

			Convey("Then both endpoints report unavailable", func() {
				So(do(mux, http.MethodGet, "/failures").Code, ShouldEqual, http.StatusServiceUnavailable)
				w := do(mux, http.MethodGet, "/summary")
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				So(decodeError(w)["code"], ShouldEqual, "no_snapshot")
			})
		})
	})
}

func TestRefreshHandler(t *testing.T) {
	Convey("Given a refresh handler", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps, 100)

		Convey("When no refresh is running", func() {
			w := do(mux, http.MethodPost, "/refresh")

			Convey("Then it is accepted", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(w.Body.String(), ShouldContainSubstring, `"status":"accepted"`)
				So(deps.refreshes, ShouldEqual, 1)
			})
		})

		Convey("When a refresh is in flight", func() {
			deps.refreshErr = service.ErrRefreshInFlight
			w := do(mux, http.MethodPost, "/refresh")

			Convey("Then it conflicts", func() {
				So(w.Code, ShouldEqual, http.StatusConflict)
				So(decodeError(w)["code"], ShouldEqual, "refresh_in_flight")
			})
		})
	})
}

type staticProvider struct {
	records []model.PlayerStatRecord
}

func (p staticProvider) Fetch(ctx context.Context) ([]model.PlayerStatRecord, error) {
	return p.records, nil
}

func TestAPIWithService(t *testing.T) {
	Convey("Given the API backed by a started service", t, func() {
		records := []model.PlayerStatRecord{
			{PlayerID: 1, Name: "Striker", Position: model.Forward, MinutesPlayed: 1800, MatchesPlayed: 20, ExpectedGoals: 14, ExpectedAssists: 3, ExpectedGoalsConcededPerMatch: 1.1, BonusPointSystemScore: 400, ActualPoints: 150},
			{PlayerID: 2, Name: "Back", Position: model.Defender, MinutesPlayed: 1800, MatchesPlayed: 20, ExpectedGoals: 1, ExpectedAssists: 2, ExpectedGoalsConcededPerMatch: 0.9, BonusPointSystemScore: 450, ActualPoints: 90},
			{PlayerID: 3, Name: "Sub", Position: model.Midfielder, MinutesPlayed: 300, MatchesPlayed: 8, ExpectedGoals: 0.5, ExpectedAssists: 0.4, ExpectedGoalsConcededPerMatch: 1.2, BonusPointSystemScore: 60, ActualPoints: 12},
		}
		svc := service.New(service.WithProvider(staticProvider{records: records}), service.WithRefreshInterval(0))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		mux := http.NewServeMux()
		api.NewServer(svc, svc, 50).Register(context.Background(), mux)

		Convey("When reading the leaderboard", func() {
			w := do(mux, http.MethodGet, "/leaderboard?limit=10")
			var got []types.Entry
			So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)

			Convey("Then all players are ranked by per 90 output", func() {
				So(got, ShouldHaveLength, 3)
				So(got[0].Rank, ShouldEqual, 1)
				So(got[0].PlayerID, ShouldEqual, 1)
				for i := 1; i < len(got); i++ {
					So(got[i].ExpectedPointsPer90, ShouldBeLessThanOrEqualTo, got[i-1].ExpectedPointsPer90)
				}
			})
		})

		Convey("When a refresh is posted", func() {
			first, _ := svc.LastRun()
			w := do(mux, http.MethodPost, "/refresh")
			So(w.Code, ShouldEqual, http.StatusAccepted)

			Convey("Then a new run is eventually published", func() {
				deadline := time.Now().Add(2 * time.Second)
				for time.Now().Before(deadline) {
					if run, _ := svc.LastRun(); run.RunID != first.RunID {
						break
					}
					time.Sleep(5 * time.Millisecond)
				}
				So(do(mux, http.MethodGet, "/players/3").Code, ShouldEqual, http.StatusOK)
			})
		})
	})
}
