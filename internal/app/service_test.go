package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/xfpl/internal/adapters/repository"
	service "github.com/okian/xfpl/internal/app"
	"github.com/okian/xfpl/internal/domain/engine"
	"github.com/okian/xfpl/internal/domain/model"
	"github.com/okian/xfpl/internal/domain/ranking"
	"github.com/okian/xfpl/pkg/logger"
	"github.com/okian/xfpl/pkg/metrics"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	_ = logger.SetLevelString("error")
}

type stubProvider struct {
	records []model.PlayerStatRecord
	err     error
	calls   int
}

func (p *stubProvider) Fetch(ctx context.Context) ([]model.PlayerStatRecord, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.records, nil
}

type blockingProvider struct {
	entered chan struct{}
	release chan struct{}
}

func (p *blockingProvider) Fetch(ctx context.Context) ([]model.PlayerStatRecord, error) {
	select {
	case p.entered <- struct{}{}:
	default:
	}
	<-p.release
	return sampleRecords(), nil
}

func sampleRecords() []model.PlayerStatRecord {
	return []model.PlayerStatRecord{
		{PlayerID: 1, Name: "Keeper", Team: "ARS", Position: model.Goalkeeper, MinutesPlayed: 900, MatchesPlayed: 10, ExpectedGoalsConcededPerMatch: 0.9, BonusPointSystemScore: 220, ActualPoints: 45},
		{PlayerID: 2, Name: "Winger", Team: "ARS", Position: model.Midfielder, MinutesPlayed: 1710, MatchesPlayed: 19, ExpectedGoals: 6.4, ExpectedAssists: 5.1, ExpectedGoalsConcededPerMatch: 1.0, BonusPointSystemScore: 420, ActualPoints: 110},
		{PlayerID: 3, Name: "Striker", Team: "MCI", Position: model.Forward, MinutesPlayed: 1200, MatchesPlayed: 14, ExpectedGoals: 11.5, ExpectedAssists: 1.9, ExpectedGoalsConcededPerMatch: 0.8, BonusPointSystemScore: 380, ActualPoints: 120},
		{PlayerID: 4, Name: "Broken", Team: "MCI", Position: model.Position("COACH"), MinutesPlayed: 90, MatchesPlayed: 1},
	}
}

func newEngine() *engine.Engine {
	e, err := engine.New(engine.WithWorkerCount(2))
	if err != nil {
		panic(err)
	}
	return e
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it is not started and has no data", func() {
			So(svc, ShouldNotBeNil)
			So(svc.GetStats()["started"], ShouldEqual, false)
			_, err := svc.TopN(context.Background(), 10)
			So(errors.Is(err, repository.ErrNoSnapshot), ShouldBeTrue)
			_, ok := svc.LastRun()
			So(ok, ShouldBeFalse)
		})

		Convey("When started without a provider", func() {
			err := svc.Start(context.Background())

			Convey("Then it refuses", func() {
				So(errors.Is(err, service.ErrNoProvider), ShouldBeTrue)
			})
		})
	})
}

func TestService_Start(t *testing.T) {
	Convey("Given a service with a working provider", t, func() {
		prov := &stubProvider{records: sampleRecords()}
		svc := service.New(service.WithProvider(prov), service.WithRefreshInterval(0))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		defer svc.Stop()

		Convey("When starting the service", func() {
			err := svc.Start(ctx)

			Convey("Then the first snapshot is published", func() {
				So(err, ShouldBeNil)
				So(prov.calls, ShouldEqual, 1)

				top, err := svc.TopN(ctx, 10)
				So(err, ShouldBeNil)
				So(top, ShouldHaveLength, 3)
				So(top[0].Rank, ShouldEqual, 1)

				entry, err := svc.Player(ctx, 2)
				So(err, ShouldBeNil)
				So(entry.Name, ShouldEqual, "Winger")

				failures, err := svc.Failures(ctx)
				So(err, ShouldBeNil)
				So(failures, ShouldHaveLength, 1)
				So(failures[0].PlayerID, ShouldEqual, 4)

				summary, err := svc.Summary(ctx)
				So(err, ShouldBeNil)
				So(summary.Players, ShouldEqual, 3)

				view, err := svc.View(ctx, ranking.ViewAll, 2)
				So(err, ShouldBeNil)
				So(view, ShouldHaveLength, 2)
			})

			Convey("And stats describe the run", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["players"], ShouldEqual, 3)
				So(stats["failures"], ShouldEqual, 1)
				So(stats["runId"], ShouldNotBeEmpty)

				run, ok := svc.LastRun()
				So(ok, ShouldBeTrue)
				So(run.Fetched, ShouldEqual, 4)
				So(run.Evaluated, ShouldEqual, 3)
				So(run.Failures, ShouldEqual, 1)
				So(run.Error, ShouldBeEmpty)
			})

			Convey("And starting twice is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
				So(prov.calls, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a service whose provider fails", t, func() {
		prov := &stubProvider{err: errors.New("upstream down")}
		svc := service.New(service.WithProvider(prov), service.WithRefreshInterval(0))
		defer svc.Stop()

		Convey("When starting", func() {
			err := svc.Start(context.Background())

			Convey("Then the service still starts without data", func() {
				So(err, ShouldBeNil)
				So(svc.GetStats()["started"], ShouldEqual, true)
				_, err := svc.Summary(context.Background())
				So(errors.Is(err, repository.ErrNoSnapshot), ShouldBeTrue)

				run, ok := svc.LastRun()
				So(ok, ShouldBeTrue)
				So(run.Error, ShouldContainSubstring, "upstream down")
			})
		})
	})
}

func TestService_Refresh(t *testing.T) {
	Convey("Given a service with explicit components", t, func() {
		ctx := context.Background()
		prov := &stubProvider{records: sampleRecords()}
		store := repository.NewSnapshotStore()
		svc := service.New(
			service.WithProvider(prov),
			service.WithEngine(newEngine()),
			service.WithStore(store),
			service.WithRefreshInterval(0),
		)

		Convey("When refreshing", func() {
			snap, err := svc.Refresh(ctx)

			Convey("Then a snapshot with a run id is published", func() {
				So(err, ShouldBeNil)
				So(snap.RunID, ShouldNotBeEmpty)
				So(store.Current(), ShouldEqual, snap)
			})

			Convey("And a later failed refresh keeps the previous snapshot", func() {
				prov.err = errors.New("boom")
				_, err := svc.Refresh(ctx)
				So(errors.Is(err, service.ErrRefresh), ShouldBeTrue)
				So(store.Current(), ShouldEqual, snap)
			})

			Convey("And a second refresh gets a new run id", func() {
				next, err := svc.Refresh(ctx)
				So(err, ShouldBeNil)
				So(next.RunID, ShouldNotEqual, snap.RunID)
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := svc.Refresh(cctx)

			Convey("Then the compute step fails and nothing is published", func() {
				So(errors.Is(err, service.ErrRefresh), ShouldBeTrue)
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				So(store.Current(), ShouldBeNil)
			})
		})
	})

	Convey("Given a refresh in progress", t, func() {
		ctx := context.Background()
		bp := &blockingProvider{entered: make(chan struct{}, 1), release: make(chan struct{})}
		svc := service.New(
			service.WithProvider(bp),
			service.WithEngine(newEngine()),
			service.WithStore(repository.NewSnapshotStore()),
		)

		done := make(chan error, 1)
		go func() {
			_, err := svc.Refresh(ctx)
			done <- err
		}()
		<-bp.entered

		Convey("When another refresh is requested", func() {
			_, err := svc.Refresh(ctx)
			close(bp.release)
			first := <-done

			Convey("Then it is rejected and the first one completes", func() {
				So(errors.Is(err, service.ErrRefreshInFlight), ShouldBeTrue)
				So(first, ShouldBeNil)
			})
		})
	})
}

func TestService_PeriodicRefresh(t *testing.T) {
	Convey("Given a short refresh interval", t, func() {
		prov := &countingProvider{}
		svc := service.New(service.WithProvider(prov), service.WithRefreshInterval(10*time.Millisecond))

		Convey("When the service runs for a while", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			deadline := time.Now().Add(2 * time.Second)
			for prov.count() < 3 && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}
			svc.Stop()

			Convey("Then it refreshed more than once", func() {
				So(prov.count(), ShouldBeGreaterThanOrEqualTo, 3)
			})
		})
	})
}

type countingProvider struct {
	mu sync.Mutex
	n  int
}

func (p *countingProvider) Fetch(ctx context.Context) ([]model.PlayerStatRecord, error) {
	p.mu.Lock()
	p.n++
	p.mu.Unlock()
	return sampleRecords(), nil
}

func (p *countingProvider) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.n
}

func TestService_RefreshAsync(t *testing.T) {
	Convey("Given a service with a blocking provider", t, func() {
		bp := &blockingProvider{entered: make(chan struct{}, 1), release: make(chan struct{})}
		store := repository.NewSnapshotStore()
		svc := service.New(
			service.WithProvider(bp),
			service.WithEngine(newEngine()),
			service.WithStore(store),
		)

		Convey("When an async refresh is requested twice", func() {
			ctx, cancel := context.WithCancel(context.Background())
			first := svc.RefreshAsync(ctx)
			<-bp.entered
			second := svc.RefreshAsync(ctx)
			cancel()
			close(bp.release)

			deadline := time.Now().Add(2 * time.Second)
			for store.Current() == nil && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}

			Convey("Then only the first is accepted and it survives request cancellation", func() {
				So(first, ShouldBeNil)
				So(errors.Is(second, service.ErrRefreshInFlight), ShouldBeTrue)
				So(store.Current(), ShouldNotBeNil)
			})
		})
	})
}

func gaugeValue(name string) float64 {
	families, err := metrics.GetRegistry().Gather()
	if err != nil {
		panic(err)
	}
	for _, f := range families {
		if f.GetName() == name && len(f.GetMetric()) > 0 {
			return f.GetMetric()[0].GetGauge().GetValue()
		}
	}
	return -1
}

func TestService_WorkerGauge(t *testing.T) {
	Convey("Given a service whose engine runs three workers", t, func() {
		eng, err := engine.New(engine.WithWorkerCount(3))
		So(err, ShouldBeNil)
		svc := service.New(
			service.WithProvider(&stubProvider{records: sampleRecords()}),
			service.WithEngine(eng),
			service.WithRefreshInterval(0),
		)
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		Convey("Then the worker gauge is set once at start", func() {
			So(gaugeValue("xfpl_engine_worker_active_count"), ShouldEqual, 3)
		})

		Convey("When another engine computes with a different worker count", func() {
			other, err := engine.New(engine.WithWorkerCount(7))
			So(err, ShouldBeNil)
			_, err = other.Compute(context.Background(), sampleRecords())
			So(err, ShouldBeNil)

			Convey("Then the gauge still reports the service engine", func() {
				So(gaugeValue("xfpl_engine_worker_active_count"), ShouldEqual, 3)
			})
		})
	})
}
