// Package service runs the refresh cycle (fetch raw stats, compute expected
// points, publish a snapshot) and exposes the published data to the API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/xfpl/internal/adapters/provider"
	"github.com/okian/xfpl/internal/adapters/repository"
	"github.com/okian/xfpl/internal/domain/engine"
	"github.com/okian/xfpl/internal/domain/model"
	"github.com/okian/xfpl/internal/domain/ranking"
	"github.com/okian/xfpl/internal/domain/scoring"
	"github.com/okian/xfpl/internal/domain/types"
	"github.com/okian/xfpl/pkg/logger"
	"github.com/okian/xfpl/pkg/metrics"
)

// Computer turns raw records into an engine result.
type Computer interface {
	Compute(ctx context.Context, records []model.PlayerStatRecord) (*engine.Result, error)
}

// RunInfo describes the most recent refresh attempt.
type RunInfo struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs float64   `json:"duration_ms"`
	Fetched    int       `json:"fetched"`
	Evaluated  int       `json:"evaluated"`
	Failures   int       `json:"failures"`
	Error      string    `json:"error,omitempty"`
}

// Service implements the API dependencies for the expected points system.
type Service struct {
	mu        sync.RWMutex
	refreshMu sync.Mutex

	// Core components
	engine   Computer
	provider provider.Provider
	store    repository.Store

	// Configuration
	refreshInterval time.Duration

	// State
	started bool
	lastRun *RunInfo
	stopCh  chan struct{}
	doneCh  chan struct{}

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithEngine sets the expected points engine.
func WithEngine(e Computer) Option {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithProvider sets the raw stats source.
func WithProvider(p provider.Provider) Option {
	return func(s *Service) {
		if p != nil {
			s.provider = p
		}
	}
}

// WithStore sets the snapshot store.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithRefreshInterval sets the periodic refresh interval. Zero disables it.
func WithRefreshInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.refreshInterval = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		refreshInterval: time.Hour,
		logger:          logger.Default().Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start fills in missing components, runs a first refresh and then keeps
// refreshing on the configured interval until Stop or ctx is done. A failed
// first refresh is logged and does not prevent the service from starting.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	if s.provider == nil {
		s.mu.Unlock()
		return ErrNoProvider
	}
	if s.engine == nil {
		e, err := engine.New(engine.WithLogger(s.logger))
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("create engine: %w", err)
		}
		s.engine = e
	}
	if s.store == nil {
		s.store = repository.NewSnapshotStore()
	}
	if sized, ok := s.engine.(interface{ Workers() int }); ok {
		metrics.UpdateWorkerActiveCount(sized.Workers())
	}
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.started = true
	s.mu.Unlock()

	s.logger.Info(ctx, "starting expected points service",
		logger.String("refresh_interval", s.refreshInterval.String()),
	)

	if _, err := s.Refresh(ctx); err != nil {
		s.logger.Warn(ctx, "initial refresh failed", logger.Error(err))
	}

	go s.loop(ctx)
	return nil
}

func (s *Service) loop(ctx context.Context) {
	defer close(s.doneCh)
	if s.refreshInterval <= 0 {
		select {
		case <-ctx.Done():
		case <-s.stopCh:
		}
		return
	}

	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			if _, err := s.Refresh(ctx); err != nil && !errors.Is(err, ErrRefreshInFlight) {
				s.logger.Warn(ctx, "scheduled refresh failed", logger.Error(err))
			}
		}
	}
}

// Stop ends the refresh loop and waits for it to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	close(s.stopCh)
	done := s.doneCh
	s.mu.Unlock()

	<-done
	s.logger.Info(context.Background(), "expected points service stopped")
}

// Refresh fetches, computes and publishes one snapshot. Only one refresh runs
// at a time; a concurrent call returns ErrRefreshInFlight immediately. The
// previous snapshot stays published when any step fails.
func (s *Service) Refresh(ctx context.Context) (*repository.Snapshot, error) {
	if !s.refreshMu.TryLock() {
		return nil, ErrRefreshInFlight
	}
	defer s.refreshMu.Unlock()
	return s.refresh(ctx)
}

// RefreshAsync starts a refresh in the background and returns at once. It
// returns ErrRefreshInFlight when a refresh is already running. The refresh
// outlives the request that triggered it.
func (s *Service) RefreshAsync(ctx context.Context) error {
	if !s.refreshMu.TryLock() {
		return ErrRefreshInFlight
	}
	bg := context.WithoutCancel(ctx)
	go func() {
		defer s.refreshMu.Unlock()
		if _, err := s.refresh(bg); err != nil {
			s.logger.Warn(bg, "requested refresh failed", logger.Error(err))
		}
	}()
	return nil
}

func (s *Service) refresh(ctx context.Context) (*repository.Snapshot, error) {
	s.mu.RLock()
	prov, eng, store := s.provider, s.engine, s.store
	s.mu.RUnlock()
	if prov == nil {
		return nil, ErrNoProvider
	}
	if eng == nil || store == nil {
		return nil, fmt.Errorf("%w: service not started", ErrRefresh)
	}

	run := &RunInfo{RunID: uuid.NewString(), StartedAt: time.Now()}
	log := s.logger
	log.Info(ctx, "refresh started", logger.String("run_id", run.RunID))

	fail := func(outcome string, err error) (*repository.Snapshot, error) {
		run.DurationMs = float64(time.Since(run.StartedAt).Milliseconds())
		run.Error = err.Error()
		s.setLastRun(run)
		metrics.RecordEngineRun(outcome, run.DurationMs)
		metrics.RecordErrorByComponent("service", outcome)
		log.Error(ctx, "refresh failed",
			logger.String("run_id", run.RunID),
			logger.String("outcome", outcome),
			logger.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", ErrRefresh, err)
	}

	records, err := prov.Fetch(ctx)
	if err != nil {
		return fail("fetch_error", err)
	}
	run.Fetched = len(records)

	res, err := eng.Compute(ctx, records)
	if err != nil {
		return fail("compute_error", err)
	}
	run.Evaluated = len(res.Records)
	run.Failures = len(res.Failures)

	snap := store.Publish(ctx, run.RunID, res)

	run.DurationMs = float64(time.Since(run.StartedAt).Milliseconds())
	s.setLastRun(run)
	recordRunMetrics(res, run.DurationMs, snap.PublishedAt)

	for _, f := range res.Failures {
		log.Debug(ctx, "record rejected",
			logger.Int("player_id", f.PlayerID),
			logger.String("field", f.Field),
			logger.String("reason", f.Reason),
		)
	}
	log.Info(ctx, "refresh finished",
		logger.String("run_id", run.RunID),
		logger.Int("fetched", run.Fetched),
		logger.Int("evaluated", run.Evaluated),
		logger.Int("failures", run.Failures),
		logger.Int("buy_targets", res.Summary.BuyTargets),
		logger.Int("sell_candidates", res.Summary.SellCandidates),
		logger.Float64("duration_ms", run.DurationMs),
	)
	if res.Summary.PercentileBelowSellThreshold {
		log.Warn(ctx, "per 90 percentile is below the sell threshold",
			logger.Float64("percentile", res.Population.Percentile),
		)
	}
	return snap, nil
}

func recordRunMetrics(res *engine.Result, ms float64, at time.Time) {
	metrics.RecordEngineRun("ok", ms)
	metrics.RecordPlayersEvaluated(len(res.Records))
	for _, f := range res.Failures {
		metrics.RecordValidationFailure(f.Field)
	}
	metrics.UpdatePopulation(res.Population.Size, res.Population.Ranked)
	if res.Population.PercentileDefined {
		metrics.UpdatePer90Percentile(res.Population.Percentile)
	}
	metrics.UpdateRecommendations(res.Summary.BuyTargets, res.Summary.SellCandidates)
	metrics.UpdateLastRefresh(at)
}

func (s *Service) setLastRun(run *RunInfo) {
	s.mu.Lock()
	s.lastRun = run
	s.mu.Unlock()
}

// LastRun returns a copy of the most recent refresh attempt, if any.
func (s *Service) LastRun() (RunInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastRun == nil {
		return RunInfo{}, false
	}
	return *s.lastRun, true
}

func (s *Service) currentStore() repository.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

// TopN returns the top n players by expected points per 90.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	st := s.currentStore()
	if st == nil {
		return nil, repository.ErrNoSnapshot
	}
	return st.TopN(ctx, n)
}

// Player returns one player's ranked entry.
func (s *Service) Player(ctx context.Context, playerID int) (types.Entry, error) {
	st := s.currentStore()
	if st == nil {
		return types.Entry{}, repository.ErrNotFound
	}
	return st.Player(ctx, playerID)
}

// View returns up to n entries of a named view.
func (s *Service) View(ctx context.Context, name string, n int) ([]types.Entry, error) {
	st := s.currentStore()
	if st == nil {
		return nil, repository.ErrNoSnapshot
	}
	return st.View(ctx, name, n)
}

// Failures returns the rejected records of the published run.
func (s *Service) Failures(ctx context.Context) ([]*scoring.ValidationError, error) {
	st := s.currentStore()
	if st == nil {
		return nil, repository.ErrNoSnapshot
	}
	return st.Failures(ctx)
}

// Summary returns the population summary of the published run.
func (s *Service) Summary(_ context.Context) (ranking.Summary, error) {
	st := s.currentStore()
	if st == nil {
		return ranking.Summary{}, repository.ErrNoSnapshot
	}
	snap := st.Current()
	if snap == nil {
		return ranking.Summary{}, repository.ErrNoSnapshot
	}
	return snap.Summary, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":          s.started,
		"refreshIntervalS": s.refreshInterval.Seconds(),
	}
	if s.store != nil {
		if snap := s.store.Current(); snap != nil {
			stats["runId"] = snap.RunID
			stats["publishedAt"] = snap.PublishedAt.UTC().Format(time.RFC3339)
			stats["players"] = len(snap.Entries)
			stats["failures"] = len(snap.Failures)
			stats["buyTargets"] = snap.Summary.BuyTargets
			stats["sellCandidates"] = snap.Summary.SellCandidates
		}
	}
	if s.lastRun != nil {
		stats["lastRun"] = *s.lastRun
	}
	return stats
}
