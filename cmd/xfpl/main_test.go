package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/xfpl/internal/config"
	"github.com/okian/xfpl/pkg/logger"
	"github.com/okian/xfpl/pkg/metrics"
)

const sample = `[
  {"player_id": 1, "name": "Striker", "position": "FWD", "minutes_played": 1800, "matches_played": 20,
   "expected_goals": 14, "expected_assists": 3, "expected_goals_conceded_per_match": 1.1,
   "bonus_point_system_score": 400, "actual_points": 150},
  {"player_id": 2, "name": "Keeper", "position": "GKP", "minutes_played": 900, "matches_played": 10,
   "expected_goals_conceded_per_match": 0.8, "bonus_point_system_score": 250, "actual_points": 50}
]`

func TestMainWiring(t *testing.T) {
	convey.Convey("Given a config pointing at a local stats file", t, func() {
		path := filepath.Join(t.TempDir(), "stats.json")
		convey.So(os.WriteFile(path, []byte(sample), 0o600), convey.ShouldBeNil)

		cfg := config.New()
		cfg.SourceFile = path
		cfg.RefreshIntervalS = 0

		convey.Convey("When the service and mux are built and started", func() {
			ctx := context.Background()
			svc, err := newService(cfg, logger.Nop())
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer svc.Stop()
			mux := newMux(ctx, svc, cfg.MaxListLimit)

			convey.Convey("Then API and docs routes respond", func() {
				for _, target := range []string{"/leaderboard?limit=5", "/players/2", "/summary", "/failures", "/stats", "/healthz", "/api-docs", "/openapi.yaml"} {
					w := httptest.NewRecorder()
					mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, http.NoBody))
					convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				}
			})
		})

		convey.Convey("When thresholds are invalid", func() {
			cfg.BuyPercentile = 1.5
			_, err := newService(cfg, logger.Nop())

			convey.Convey("Then wiring fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.Convey("When updating once", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)

			convey.Convey("Then the registry exposes the gauges", func() {
				families, err := metrics.GetRegistry().Gather()
				convey.So(err, convey.ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "xfpl_engine_system_goroutine_count" {
						found = true
					}
				}
				convey.So(found, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			convey.Convey("Then the updater returns", func() {
				convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
			})
		})
	})
}
