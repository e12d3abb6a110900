// Package repository holds the latest published engine result and serves
// ranked reads from it.
package repository

import (
	"context"

	"github.com/okian/xfpl/internal/domain/engine"
	"github.com/okian/xfpl/internal/domain/scoring"
	"github.com/okian/xfpl/internal/domain/types"
)

// Store provides read access to the latest result and a way to replace it.
type Store interface {
	// Publish replaces the current snapshot with one built from res.
	Publish(ctx context.Context, runID string, res *engine.Result) *Snapshot

	// Current returns the published snapshot, or nil before the first publish.
	Current() *Snapshot

	// TopN returns the first n players by expected points per 90.
	TopN(ctx context.Context, n int) ([]types.Entry, error)

	// Player returns one player's ranked entry. Returns ErrNotFound if unknown.
	Player(ctx context.Context, playerID int) (types.Entry, error)

	// View returns up to n entries of a named view in view order.
	View(ctx context.Context, name string, n int) ([]types.Entry, error)

	// Failures returns the validation failures of the published run.
	Failures(ctx context.Context) ([]*scoring.ValidationError, error)

	// Count returns the number of ranked players.
	Count(ctx context.Context) int
}
