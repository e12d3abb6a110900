// Package dedupe tracks player IDs already accepted in a run.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records seen player IDs so later duplicates in the same input are rejected.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id int) bool
}

// inMemoryDeduper implements Deduper with a mutex-guarded set.
type inMemoryDeduper struct {
	mu   sync.Mutex
	seen map[int]struct{}
	hint int
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[int]struct{}, d.hint)
	return d
}

// SeenAndRecord reports whether id was seen before and records it.
func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; exists {
		return true
	}
	d.seen[id] = struct{}{}
	return false
}
