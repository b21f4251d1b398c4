package input

// Source is the raw capture collaborator. Implementations hook the
// platform's input APIs and feed events into the Collector from their own
// callback threads. Capture is optional: when Start fails the engine
// keeps running on an inert collector and scoring degrades to the neutral
// default.
type Source interface {
	// Start begins delivering events into the collector.
	Start(c *Collector) error

	// Stop releases capture resources. Safe to call after a failed Start.
	Stop() error
}

// NoopSource is the degraded-mode source used when no platform capture is
// available. It delivers no events, so drained samples stay empty and
// idle time grows.
type NoopSource struct{}

// NewNoopSource returns an inert capture source.
func NewNoopSource() *NoopSource { return &NoopSource{} }

// Start is a no-op.
func (*NoopSource) Start(*Collector) error { return nil }

// Stop is a no-op.
func (*NoopSource) Stop() error { return nil }
