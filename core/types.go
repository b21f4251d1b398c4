package core

import (
	"context"
	"time"

	"go_backend/alert"
)

// ShutdownFunc is a cleanup function invoked during graceful shutdown.
// Implementations should respect the context deadline.
type ShutdownFunc func(ctx context.Context) error

// Settings holds the user-adjustable engine settings exposed to the
// control surface.
type Settings struct {
	// AutoStartEnabled starts monitoring at process launch instead of
	// waiting for an explicit start request.
	AutoStartEnabled bool `json:"auto_start_enabled"`

	// SnoozeFeatureEnabled is relayed to the watch with every alert push
	// so the watch knows whether to offer its snooze button.
	SnoozeFeatureEnabled bool `json:"snooze_feature_enabled"`
}

// SettingsUpdate is a partial settings change. Nil fields are left
// untouched, mirroring the PUT /api/settings contract.
type SettingsUpdate struct {
	AutoStartEnabled     *bool `json:"auto_start_enabled,omitempty"`
	SnoozeFeatureEnabled *bool `json:"snooze_feature_enabled,omitempty"`
}

// StateSnapshot is an atomic copy of the engine state, safe to hand to
// callers on other goroutines. All reference fields are deep-copied by
// the engine before the snapshot is released.
type StateSnapshot struct {
	MonitoringActive     bool         `json:"monitoring_active"`
	AutoStartEnabled     bool         `json:"auto_start_enabled"`
	SnoozeFeatureEnabled bool         `json:"snooze_feature_enabled"`
	CurrentAlert         *alert.Alert `json:"current_alert"`
	LastBreakTime        *time.Time   `json:"last_break_time"`
	FocusLevel           float64      `json:"focus_level"`
	IsSnoozed            bool         `json:"is_snoozed"`
	SnoozeUntil          *time.Time   `json:"snooze_until"`
}
