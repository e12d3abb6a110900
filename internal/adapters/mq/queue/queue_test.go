package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/xfpl/internal/domain/model"
)

func job(i, id int) Job {
	return Job{Index: i, Record: model.PlayerStatRecord{PlayerID: id, Position: model.Forward}}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if err := q.Enqueue(ctx, job(0, 11)); err != nil {
		t.Fatalf("expected enqueue to succeed: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	j := <-q.Dequeue(ctx)
	if j.Index != 0 || j.Record.PlayerID != 11 {
		t.Errorf("unexpected job %+v", j)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := q.Enqueue(ctx, job(i, i+1)); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}

	if err := q.Enqueue(ctx, job(2, 3)); !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
}

func TestInMemoryQueue_CloseDrains(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := q.Enqueue(ctx, job(i, i+1)); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Errorf("second close should be a no-op: %v", err)
	}
	if err := q.Enqueue(ctx, job(9, 9)); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("expected ErrQueueClosed, got %v", err)
	}

	got := 0
	for range q.Dequeue(ctx) {
		got++
	}
	if got != 3 {
		t.Errorf("expected 3 drained jobs, got %d", got)
	}
}

func TestInMemoryQueue_DequeueStopsOnCancel(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	ch := q.Dequeue(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected closed channel after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("dequeue channel not closed after cancel")
	}
}

func TestInMemoryQueue_EnqueueCancelled(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A cancelled context may still win the select against a free slot, so
	// only a full queue gives a deterministic answer.
	_ = q.Enqueue(context.Background(), job(0, 1))
	if err := q.Enqueue(ctx, job(1, 2)); err == nil {
		t.Error("expected an error on a full queue with a cancelled context")
	}
}
