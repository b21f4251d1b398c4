// Package metrics provides in-memory engine telemetry backing the
// dashboard: a bounded history of focus readings plus alert counters.
package metrics

import "time"

// FocusReading is one published focus level.
type FocusReading struct {
	Timestamp time.Time `json:"timestamp"`
	Level     float64   `json:"level"`
}

// AlertStats aggregates alert activity since startup.
type AlertStats struct {
	TotalRaised int64            `json:"total_raised"`
	ByKind      map[string]int64 `json:"by_kind"`
	Responses   map[string]int64 `json:"responses"`
}

// EngineStatus summarizes the store for the dashboard health view.
type EngineStatus struct {
	StartTime     time.Time     `json:"start_time"`
	Uptime        time.Duration `json:"uptime"`
	ReadingCount  int           `json:"reading_count"`
	LatestReading *FocusReading `json:"latest_reading,omitempty"`
}
