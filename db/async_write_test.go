package db

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func TestAsyncWriterRunsOps(t *testing.T) {
	w := NewAsyncWriter(zaptest.NewLogger(t))
	w.Start()

	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		if !w.Enqueue(func(ctx context.Context) error {
			ran.Add(1)
			return nil
		}) {
			t.Fatal("Enqueue() returned false with room in the queue")
		}
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := ran.Load(); got != 5 {
		t.Errorf("ran %d ops, want 5", got)
	}
}

func TestAsyncWriterDropsWhenFull(t *testing.T) {
	w := NewAsyncWriterWithConfig(zaptest.NewLogger(t), AsyncWriterConfig{
		QueueCapacity: 1,
		DrainTimeout:  time.Second,
	})
	// Not started: nothing consumes the queue.

	if !w.Enqueue(func(ctx context.Context) error { return nil }) {
		t.Fatal("first enqueue should fit")
	}
	if w.Enqueue(func(ctx context.Context) error { return nil }) {
		t.Fatal("second enqueue should be dropped")
	}
	if got := w.Dropped(); got != 1 {
		t.Errorf("dropped = %d, want 1", got)
	}
}

func TestAsyncWriterEnqueueAfterCloseIsDropped(t *testing.T) {
	w := NewAsyncWriter(zaptest.NewLogger(t))
	w.Start()
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if w.Enqueue(func(ctx context.Context) error { return nil }) {
		t.Error("Enqueue() after Close reported success")
	}
	if w.Dropped() != 1 {
		t.Errorf("dropped = %d, want 1", w.Dropped())
	}
}

func TestAsyncWriterContinuesAfterOpError(t *testing.T) {
	w := NewAsyncWriter(zaptest.NewLogger(t))
	w.Start()

	var ran atomic.Int32
	w.Enqueue(func(ctx context.Context) error { return errors.New("disk gone") })
	w.Enqueue(func(ctx context.Context) error {
		ran.Add(1)
		return nil
	})

	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if ran.Load() != 1 {
		t.Error("op after a failed op did not run")
	}
}
