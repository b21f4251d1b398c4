package db

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// DefaultQueueCapacity is the default buffer size for pending writes.
const DefaultQueueCapacity = 100

// DefaultDrainTimeout bounds the wait for pending writes during shutdown.
const DefaultDrainTimeout = 10 * time.Second

// WriteOp is one queued database write.
type WriteOp func(ctx context.Context) error

// AsyncWriter executes history writes on a background goroutine so the
// evaluation loop never blocks on the disk. Enqueue is non-blocking:
// when the queue is full the write is dropped and counted, never waited
// on.
type AsyncWriter struct {
	queue   chan WriteOp
	logger  *zap.Logger
	timeout time.Duration

	dropped atomic.Int64

	startOnce sync.Once
	closeOnce sync.Once
	done      chan struct{}
}

// AsyncWriterConfig holds configuration for the async writer.
type AsyncWriterConfig struct {
	QueueCapacity int
	DrainTimeout  time.Duration
}

// NewAsyncWriter creates a writer with default configuration.
func NewAsyncWriter(logger *zap.Logger) *AsyncWriter {
	return NewAsyncWriterWithConfig(logger, AsyncWriterConfig{})
}

// NewAsyncWriterWithConfig creates a writer with custom configuration.
// Zero-value fields use the defaults.
func NewAsyncWriterWithConfig(logger *zap.Logger, config AsyncWriterConfig) *AsyncWriter {
	if config.QueueCapacity <= 0 {
		config.QueueCapacity = DefaultQueueCapacity
	}
	if config.DrainTimeout <= 0 {
		config.DrainTimeout = DefaultDrainTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AsyncWriter{
		queue:   make(chan WriteOp, config.QueueCapacity),
		logger:  logger,
		timeout: config.DrainTimeout,
		done:    make(chan struct{}),
	}
}

// Start launches the background worker. Safe to call once.
func (w *AsyncWriter) Start() {
	w.startOnce.Do(func() {
		go w.run()
	})
}

func (w *AsyncWriter) run() {
	defer close(w.done)
	for op := range w.queue {
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		if err := op(ctx); err != nil {
			w.logger.Warn("history write failed", zap.Error(err))
		}
		cancel()
	}
}

// Enqueue schedules a write. Returns false if the queue is full or the
// writer is closed; the write is dropped in that case.
func (w *AsyncWriter) Enqueue(op WriteOp) bool {
	defer func() {
		// Enqueue after Close panics on the closed channel; a dropped
		// write during shutdown is acceptable.
		if recover() != nil {
			w.dropped.Add(1)
		}
	}()

	select {
	case w.queue <- op:
		return true
	default:
		w.dropped.Add(1)
		return false
	}
}

// Dropped returns the number of writes discarded due to backpressure.
func (w *AsyncWriter) Dropped() int64 { return w.dropped.Load() }

// Close stops accepting writes and waits for the queue to drain, bounded
// by the drain timeout.
func (w *AsyncWriter) Close() error {
	w.closeOnce.Do(func() {
		close(w.queue)
	})

	select {
	case <-w.done:
		return nil
	case <-time.After(w.timeout):
		return context.DeadlineExceeded
	}
}
