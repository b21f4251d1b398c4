package metrics

import (
	"testing"
	"time"
)

func reading(level float64, offset time.Duration) FocusReading {
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	return FocusReading{Timestamp: base.Add(offset), Level: level}
}

func TestRecentReadingsNewestFirst(t *testing.T) {
	s := NewStore(StoreConfig{ReadingCapacity: 10}, time.Now())

	for i := 0; i < 5; i++ {
		s.RecordReading(reading(float64(i)/10, time.Duration(i)*time.Second))
	}

	got := s.RecentReadings(3)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Level != 0.4 || got[1].Level != 0.3 || got[2].Level != 0.2 {
		t.Errorf("readings = %v, want newest first", got)
	}
}

func TestRingBufferEviction(t *testing.T) {
	s := NewStore(StoreConfig{ReadingCapacity: 3}, time.Now())

	for i := 0; i < 10; i++ {
		s.RecordReading(reading(float64(i), time.Duration(i)*time.Second))
	}

	got := s.RecentReadings(0)
	if len(got) != 3 {
		t.Fatalf("len = %d, want capacity 3", len(got))
	}
	if got[0].Level != 9 || got[2].Level != 7 {
		t.Errorf("readings = %v, want the 3 newest", got)
	}
}

func TestLatestReading(t *testing.T) {
	s := NewStore(StoreConfig{}, time.Now())

	if _, ok := s.LatestReading(); ok {
		t.Fatal("LatestReading on empty store reported ok")
	}

	s.RecordReading(reading(0.5, 0))
	s.RecordReading(reading(0.7, time.Second))

	latest, ok := s.LatestReading()
	if !ok || latest.Level != 0.7 {
		t.Errorf("latest = %v, %v; want 0.7, true", latest, ok)
	}
}

func TestAlertAggregation(t *testing.T) {
	s := NewStore(StoreConfig{}, time.Now())

	s.RecordAlert("focus_drop")
	s.RecordAlert("focus_drop")
	s.RecordAlert("break_suggestion")
	s.RecordResponse("snoozed")
	s.RecordResponse("dismissed")
	s.RecordResponse("dismissed")

	stats := s.Stats()
	if stats.TotalRaised != 3 {
		t.Errorf("total raised = %d, want 3", stats.TotalRaised)
	}
	if stats.ByKind["focus_drop"] != 2 || stats.ByKind["break_suggestion"] != 1 {
		t.Errorf("by kind = %v", stats.ByKind)
	}
	if stats.Responses["dismissed"] != 2 || stats.Responses["snoozed"] != 1 {
		t.Errorf("responses = %v", stats.Responses)
	}

	// Mutating the returned maps must not affect the store.
	stats.ByKind["focus_drop"] = 999
	if s.Stats().ByKind["focus_drop"] != 2 {
		t.Error("Stats returned aliased map")
	}
}

func TestStatus(t *testing.T) {
	start := time.Now().Add(-time.Minute)
	s := NewStore(StoreConfig{}, start)

	status := s.Status()
	if !status.StartTime.Equal(start) {
		t.Errorf("start time = %v, want %v", status.StartTime, start)
	}
	if status.ReadingCount != 0 {
		t.Errorf("empty store status = %+v", status)
	}
	if status.Uptime < time.Minute {
		t.Errorf("uptime = %v, want at least a minute", status.Uptime)
	}

	s.RecordReading(reading(0.9, 0))
	status = s.Status()
	if status.ReadingCount != 1 {
		t.Fatalf("status after reading = %+v", status)
	}
}

func TestZeroCapacityFallsBackToDefault(t *testing.T) {
	s := NewStore(StoreConfig{}, time.Now())
	for i := 0; i < DefaultReadingCapacity+5; i++ {
		s.RecordReading(reading(0.5, time.Duration(i)*time.Second))
	}
	if got := len(s.RecentReadings(0)); got != DefaultReadingCapacity {
		t.Errorf("retained = %d, want %d", got, DefaultReadingCapacity)
	}
}
