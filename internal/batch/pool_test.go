package batch

import (
	"context"
	"errors"
	"testing"
)

func TestPool_ProcessesAllUnits(t *testing.T) {
	pool := NewPool(PoolConfig{
		WorkerCount: 3,
		QueueSize:   10,
		Handler: func(_ context.Context, u *Unit) Result {
			if u.Index == 4 {
				return Result{Err: errors.New("boom")}
			}
			return Result{}
		},
	})
	pool.Start(context.Background())

	for i := 0; i < 10; i++ {
		if err := pool.Submit(&Unit{Index: i}); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}

	seen := make(map[int]bool)
	failed := 0
	for i := 0; i < 10; i++ {
		res := <-pool.Results()
		if res.Unit == nil {
			t.Fatal("result missing unit")
		}
		seen[res.Unit.Index] = true
		if res.Err != nil {
			failed++
		}
	}
	pool.Close()

	if len(seen) != 10 {
		t.Errorf("expected 10 distinct units, got %d", len(seen))
	}
	if failed != 1 {
		t.Errorf("expected 1 failure, got %d", failed)
	}
	if _, ok := <-pool.Results(); ok {
		t.Error("results channel should be closed after Close")
	}
}

func TestPool_QueueFull(t *testing.T) {
	pool := NewPool(PoolConfig{QueueSize: 1, WorkerCount: 1})
	// Not started: nothing drains the queue.
	if err := pool.Submit(&Unit{Index: 0}); err != nil {
		t.Fatalf("first Submit failed: %v", err)
	}
	if err := pool.Submit(&Unit{Index: 1}); !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
	if st := pool.Status(); st.QueueDepth != 1 || st.Workers != 1 {
		t.Errorf("unexpected status %+v", st)
	}
}

func TestPool_HandlerPanic(t *testing.T) {
	pool := NewPool(PoolConfig{
		WorkerCount: 1,
		Handler: func(context.Context, *Unit) Result {
			panic("bad input")
		},
	})
	pool.Start(context.Background())
	if err := pool.Submit(&Unit{Path: "a.pdf"}); err != nil {
		t.Fatal(err)
	}
	res := <-pool.Results()
	pool.Close()
	if res.Err == nil {
		t.Error("expected panic to surface as an error")
	}
}

func TestPool_NoHandler(t *testing.T) {
	pool := NewPool(PoolConfig{WorkerCount: 1})
	pool.Start(context.Background())
	if err := pool.Submit(&Unit{Path: "a.pdf"}); err != nil {
		t.Fatal(err)
	}
	res := <-pool.Results()
	pool.Close()
	if res.Err == nil {
		t.Error("expected error without handler")
	}
}
