package metrics

import (
	"sync"
	"time"
)

// DefaultReadingCapacity holds 30 minutes of readings at the default
// 5-second sample period.
const DefaultReadingCapacity = 360

// StoreConfig configures the Store.
type StoreConfig struct {
	// ReadingCapacity is the max number of focus readings retained.
	ReadingCapacity int
}

// DefaultStoreConfig returns the default configuration.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{ReadingCapacity: DefaultReadingCapacity}
}

// Store is the thread-safe in-memory telemetry store. The evaluation
// loop writes readings and alert counters; the control surface reads
// them for the focus graph and status endpoints.
type Store struct {
	mu sync.RWMutex

	// Focus reading ring buffer
	readings []FocusReading
	cap      int
	head     int
	size     int

	// Alert aggregation
	totalRaised int64
	byKind      map[string]int64
	responses   map[string]int64

	startTime time.Time
}

// NewStore creates a Store. A zero ReadingCapacity falls back to the
// default.
func NewStore(config StoreConfig, startTime time.Time) *Store {
	capacity := config.ReadingCapacity
	if capacity <= 0 {
		capacity = DefaultReadingCapacity
	}
	return &Store{
		readings:  make([]FocusReading, capacity),
		cap:       capacity,
		byKind:    make(map[string]int64),
		responses: make(map[string]int64),
		startTime: startTime,
	}
}

// RecordReading appends a focus reading, evicting the oldest beyond
// capacity.
func (s *Store) RecordReading(r FocusReading) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.readings[s.head] = r
	s.head = (s.head + 1) % s.cap
	if s.size < s.cap {
		s.size++
	}
}

// RecentReadings returns up to limit readings, newest first. A
// non-positive limit returns everything retained.
func (s *Store) RecentReadings(limit int) []FocusReading {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := s.size
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]FocusReading, 0, n)
	for i := 0; i < n; i++ {
		idx := (s.head - 1 - i + s.cap) % s.cap
		out = append(out, s.readings[idx])
	}
	return out
}

// LatestReading returns the most recent reading, if any.
func (s *Store) LatestReading() (FocusReading, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.size == 0 {
		return FocusReading{}, false
	}
	return s.readings[(s.head-1+s.cap)%s.cap], true
}

// RecordAlert counts one raised alert of the given kind.
func (s *Store) RecordAlert(kind string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalRaised++
	s.byKind[kind]++
}

// RecordResponse counts one applied alert response outcome (for example
// "snoozed" or "dismissed").
func (s *Store) RecordResponse(outcome string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[outcome]++
}

// Stats returns a copy of the alert aggregation.
func (s *Store) Stats() AlertStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := AlertStats{
		TotalRaised: s.totalRaised,
		ByKind:      make(map[string]int64, len(s.byKind)),
		Responses:   make(map[string]int64, len(s.responses)),
	}
	for k, v := range s.byKind {
		stats.ByKind[k] = v
	}
	for k, v := range s.responses {
		stats.Responses[k] = v
	}
	return stats
}

// Status returns the uptime and retention counters. The most recent
// reading is exposed separately via LatestReading.
func (s *Store) Status() EngineStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return EngineStatus{
		StartTime:    s.startTime,
		Uptime:       time.Since(s.startTime),
		ReadingCount: s.size,
	}
}
