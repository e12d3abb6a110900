package repository

import (
	"cmp"
	"context"
	"slices"
	"sync/atomic"
	"time"

	"github.com/okian/xfpl/internal/domain/engine"
	"github.com/okian/xfpl/internal/domain/ranking"
	"github.com/okian/xfpl/internal/domain/scoring"
	"github.com/okian/xfpl/internal/domain/types"
	"github.com/okian/xfpl/pkg/metrics"
)

// Snapshot is an immutable, ranked view of one engine result.
type Snapshot struct {
	RunID       string
	PublishedAt time.Time

	// Entries are ordered by expected points per 90 desc, then player id asc.
	Entries []types.Entry

	// Views index into Entries.
	Views      map[string][]int
	Failures   []*scoring.ValidationError
	Population ranking.Population
	Summary    ranking.Summary

	byPlayer map[int]int
}

// SnapshotStore publishes snapshots through an atomic pointer, so readers
// never block a refresh and never see a half-built snapshot.
type SnapshotStore struct {
	snapshot atomic.Pointer[Snapshot]
	now      func() time.Time
}

// NewSnapshotStore creates an empty store.
func NewSnapshotStore(opts ...Option) *SnapshotStore {
	s := &SnapshotStore{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Publish builds a ranked snapshot of res and swaps it in.
func (s *SnapshotStore) Publish(_ context.Context, runID string, res *engine.Result) *Snapshot {
	snap := buildSnapshot(runID, s.now(), res)
	s.snapshot.Store(snap)
	metrics.RecordSnapshotPublished(len(snap.Entries), snap.PublishedAt)
	return snap
}

// Current returns the published snapshot or nil.
func (s *SnapshotStore) Current() *Snapshot {
	return s.snapshot.Load()
}

// TopN returns the top n entries.
func (s *SnapshotStore) TopN(_ context.Context, n int) ([]types.Entry, error) {
	defer observe(time.Now())

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}
	snap := s.snapshot.Load()
	if snap == nil {
		return []types.Entry{}, nil
	}
	n = min(n, len(snap.Entries))
	return slices.Clone(snap.Entries[:n]), nil
}

// Player returns the ranked entry of one player.
func (s *SnapshotStore) Player(_ context.Context, playerID int) (types.Entry, error) {
	defer observe(time.Now())

	snap := s.snapshot.Load()
	if snap == nil {
		return types.Entry{}, ErrNotFound
	}
	i, ok := snap.byPlayer[playerID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return types.Entry{}, ErrNotFound
	}
	return snap.Entries[i], nil
}

// View returns up to n entries of the named view.
func (s *SnapshotStore) View(_ context.Context, name string, n int) ([]types.Entry, error) {
	defer observe(time.Now())

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}
	if !knownView(name) {
		metrics.RecordErrorByComponent("repository", "unknown_view")
		return nil, ErrUnknownView
	}
	snap := s.snapshot.Load()
	if snap == nil {
		return []types.Entry{}, nil
	}
	idx := snap.Views[name]
	n = min(n, len(idx))
	out := make([]types.Entry, n)
	for i := 0; i < n; i++ {
		out[i] = snap.Entries[idx[i]]
	}
	return out, nil
}

// Failures returns the validation failures of the published run.
func (s *SnapshotStore) Failures(_ context.Context) ([]*scoring.ValidationError, error) {
	snap := s.snapshot.Load()
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	return snap.Failures, nil
}

// Count returns the number of ranked players.
func (s *SnapshotStore) Count(_ context.Context) int {
	snap := s.snapshot.Load()
	if snap == nil {
		return 0
	}
	return len(snap.Entries)
}

func observe(start time.Time) {
	metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
}

func knownView(name string) bool {
	return slices.Contains(ranking.ViewNames(), name)
}

// buildSnapshot sorts the records for the leaderboard and remaps the
// result's views from record indexes to entry indexes.
func buildSnapshot(runID string, at time.Time, res *engine.Result) *Snapshot {
	order := make([]int, len(res.Records))
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int {
		ra, rb := &res.Records[a], &res.Records[b]
		if c := cmp.Compare(rb.ExpectedPointsPer90, ra.ExpectedPointsPer90); c != 0 {
			return c
		}
		return cmp.Compare(ra.PlayerID, rb.PlayerID)
	})

	entries := make([]types.Entry, len(order))
	entryOf := make([]int, len(res.Records))
	byPlayer := make(map[int]int, len(order))
	for pos, i := range order {
		entries[pos] = types.Entry{ExpectedPointsRecord: res.Records[i]}
		entryOf[i] = pos
		byPlayer[res.Records[i].PlayerID] = pos
	}
	assignCompetitionRanks(entries)

	views := make(map[string][]int, len(res.Views))
	for name, idx := range res.Views {
		remapped := make([]int, len(idx))
		for k, i := range idx {
			remapped[k] = entryOf[i]
		}
		views[name] = remapped
	}

	return &Snapshot{
		RunID:       runID,
		PublishedAt: at,
		Entries:     entries,
		Views:       views,
		Failures:    res.Failures,
		Population:  res.Population,
		Summary:     res.Summary,
		byPlayer:    byPlayer,
	}
}

// assignCompetitionRanks gives tied players the same rank and skips the
// following ranks, e.g. 1, 2, 2, 4.
func assignCompetitionRanks(entries []types.Entry) {
	for i := range entries {
		if i > 0 && entries[i].ExpectedPointsPer90 == entries[i-1].ExpectedPointsPer90 {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}
}
