package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"go_backend/core"
)

// DefaultTimeout bounds the whole shutdown sequence.
const DefaultTimeout = 30 * time.Second

// Manager ties the cleanup registry to a cancellable context and OS
// signal handling. A first SIGINT/SIGTERM cancels the context; a second
// forces immediate exit.
type Manager struct {
	logger  *zap.Logger
	timeout time.Duration

	mu       sync.Mutex
	started  bool
	shutdown bool

	ctx    context.Context
	cancel context.CancelFunc

	registry *Registry
	sigChan  chan os.Signal

	// forceExit is replaceable in tests.
	forceExit func()
}

// Option configures a Manager.
type Option func(*Manager)

// WithTimeout sets the shutdown timeout. Default is 30 seconds.
func WithTimeout(timeout time.Duration) Option {
	return func(m *Manager) { m.timeout = timeout }
}

// NewManager creates a Manager ready to coordinate graceful shutdown.
func NewManager(logger *zap.Logger, opts ...Option) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		logger:    logger,
		timeout:   DefaultTimeout,
		ctx:       ctx,
		cancel:    cancel,
		registry:  NewRegistry(),
		sigChan:   make(chan os.Signal, 2),
		forceExit: func() { os.Exit(core.ExitCodeError) },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Context returns the managed context, cancelled when shutdown begins.
func (m *Manager) Context() context.Context { return m.ctx }

// Register adds a cleanup function. Lower priority values run first.
func (m *Manager) Register(name string, priority int, fn core.ShutdownFunc) {
	m.registry.Register(name, priority, fn)
	m.logger.Debug("registered shutdown handler",
		zap.String("name", name),
		zap.Int("priority", priority),
	)
}

// Start begins signal handling. Safe to call multiple times.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return
	}
	m.started = true

	signal.Notify(m.sigChan, os.Interrupt, syscall.SIGTERM)
	go m.watchSignals()
}

func (m *Manager) watchSignals() {
	sig, ok := <-m.sigChan
	if !ok {
		return
	}
	m.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	m.cancel()

	if _, ok := <-m.sigChan; ok {
		m.logger.Warn("received second signal, forcing immediate exit")
		m.forceExit()
	}
}

// Trigger initiates shutdown programmatically (e.g. from a parent
// context or service-stop request).
func (m *Manager) Trigger() { m.cancel() }

// Shutdown cancels the context and runs the cleanup sequence, bounded by
// the configured timeout. Safe to call once; later calls are no-ops.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		return
	}
	m.shutdown = true
	m.mu.Unlock()

	m.cancel()
	signal.Stop(m.sigChan)

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	m.logger.Info("running shutdown sequence",
		zap.Strings("handlers", m.registry.Names()),
		zap.Duration("timeout", m.timeout),
	)

	for _, err := range m.registry.Shutdown(ctx) {
		m.logger.Error("shutdown handler failed", zap.Error(err))
	}

	m.logger.Info("shutdown complete")
}
