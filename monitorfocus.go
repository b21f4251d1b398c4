package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"go_backend/alert"
	"go_backend/core"
	"go_backend/db"
	"go_backend/focus"
	"go_backend/input"
	"go_backend/logging"
	"go_backend/metrics"
	"go_backend/watchlink"
)

// watchLoadAlert is the load value sent with every alert push. The watch
// renders it as an urgency gauge; the value is fixed by the device
// firmware contract.
const watchLoadAlert = 95

// stopJoinTimeout bounds the wait for the evaluation loop to exit after
// a stop request.
const stopJoinTimeout = 2 * time.Second

// Engine is the focus monitoring engine: it drains the input collector on
// a fixed period, scores the window, manages the alert lifecycle with
// cooldown and snooze suppression, and pushes alert state to the watch.
type Engine struct {
	config    *core.Config
	logger    *logging.Logger
	collector *input.Collector
	source    input.Source
	analyzer  *focus.Analyzer
	alerts    *alert.Manager
	store     *metrics.Store
	repo      *db.Repository // nil when persistence is disabled

	mu            sync.Mutex
	active        bool
	focusLevel    float64
	snoozed       bool
	snoozeUntil   time.Time
	currentAlert  *alert.Alert
	lastAlertAt   time.Time
	lastBreakTime *time.Time
	settings      core.Settings

	cancel       context.CancelFunc
	loopDone     chan struct{}
	listenerDone chan struct{}

	// Injected for tests.
	now  func() time.Time
	push func(watchlink.PushPayload) error
}

// EngineDeps are the collaborators an Engine composes. Source and Repo
// are optional; a nil Source means no capture and a nil Repo disables
// history persistence.
type EngineDeps struct {
	Collector *input.Collector
	Source    input.Source
	Store     *metrics.Store
	Repo      *db.Repository
}

// NewEngine creates an Engine. Monitoring is not started; call
// StartMonitoring (or rely on auto-start in main).
func NewEngine(cfg *core.Config, deps EngineDeps, logger *logging.Logger) *Engine {
	collector := deps.Collector
	if collector == nil {
		collector = input.NewCollector()
	}
	store := deps.Store
	if store == nil {
		store = metrics.NewStore(metrics.DefaultStoreConfig(), time.Now())
	}

	pusher := watchlink.NewPusher(cfg.WatchAddr, cfg.PushTimeout, logger.Zap())

	return &Engine{
		config:    cfg,
		logger:    logger,
		collector: collector,
		source:    deps.Source,
		analyzer:  focus.NewAnalyzer(cfg.HistoryCapacity, cfg.CalibrationSamples),
		alerts: alert.NewManager(alert.ManagerConfig{
			ShortPattern: cfg.ShortVibrationPattern,
			LongPattern:  cfg.LongVibrationPattern,
		}),
		store:      store,
		repo:       deps.Repo,
		focusLevel: focus.NeutralScore,
		settings: core.Settings{
			AutoStartEnabled:     cfg.AutoStartEnabled,
			SnoozeFeatureEnabled: cfg.SnoozeFeatureEnabled,
		},
		now:  time.Now,
		push: pusher.Push,
	}
}

// StartMonitoring begins the evaluation loop and the watch command
// listener. Returns "already_running" if monitoring is active.
func (e *Engine) StartMonitoring() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active {
		return "already_running", nil
	}

	if e.source != nil {
		if err := e.source.Start(e.collector); err != nil {
			// Degraded mode: scoring continues on an inert collector.
			e.logger.Warn("input capture unavailable, running degraded",
				zap.Error(err))
			e.source = nil
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.loopDone = make(chan struct{})
	e.listenerDone = make(chan struct{})

	listener := watchlink.NewListener(e.config.ListenerPort, e.handleWatchSnooze, e.logger.Zap())
	go func() {
		defer close(e.listenerDone)
		if err := listener.Run(ctx); err != nil {
			e.logger.Error("watch listener failed", zap.Error(err))
		}
	}()

	go e.runLoop(ctx)

	e.active = true
	e.logger.Info("monitoring started",
		zap.Duration("sample_period", e.config.SamplePeriod),
		zap.Int("listener_port", e.config.ListenerPort))
	return "started", nil
}

// StopMonitoring halts the evaluation loop and the listener. Returns
// "not_running" if monitoring is inactive.
func (e *Engine) StopMonitoring() (string, error) {
	e.mu.Lock()
	if !e.active {
		e.mu.Unlock()
		return "not_running", nil
	}
	e.active = false
	cancel := e.cancel
	loopDone := e.loopDone
	listenerDone := e.listenerDone
	source := e.source
	e.mu.Unlock()

	cancel()

	// Join both goroutines so a restart cannot race the old listener's
	// port release.
	deadline := time.Now().Add(stopJoinTimeout)
	for name, done := range map[string]chan struct{}{
		"evaluation loop": loopDone,
		"snooze listener": listenerDone,
	} {
		select {
		case <-done:
		case <-time.After(time.Until(deadline)):
			e.logger.Warn("component did not stop in time", zap.String("component", name))
		}
	}

	if source != nil {
		if err := source.Stop(); err != nil {
			e.logger.Warn("input capture stop failed", zap.Error(err))
		}
	}

	e.logger.Info("monitoring stopped")
	return "stopped", nil
}

// Shutdown stops monitoring as part of process teardown.
func (e *Engine) Shutdown(ctx context.Context) error {
	_, err := e.StopMonitoring()
	return err
}

// runLoop drives runCycle on the sample period. A failed cycle backs off
// before the next attempt instead of tightening the loop.
func (e *Engine) runLoop(ctx context.Context) {
	defer close(e.loopDone)

	timer := time.NewTimer(e.config.SamplePeriod)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		delay := e.config.SamplePeriod
		if err := e.runCycle(); err != nil {
			e.logger.Error("evaluation cycle failed", zap.Error(err))
			delay = e.config.FailureBackoff
		}
		timer.Reset(delay)
	}
}

// runCycle executes one evaluation: drain, score, evaluate alert policy,
// publish. A panic anywhere in the cycle is contained and surfaced as an
// error so one bad cycle never kills the loop.
func (e *Engine) runCycle() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle panic: %v", r)
		}
	}()

	sample := e.collector.Drain()
	e.analyzer.AddSample(sample)

	score := -1.0
	scored := e.analyzer.SampleCount() >= focus.ScoreWindow
	if scored {
		score = e.analyzer.Score()
	}

	e.persistSample(sample, score)

	if !scored {
		return nil
	}

	now := e.now()
	e.store.RecordReading(metrics.FocusReading{Timestamp: now, Level: score})

	e.mu.Lock()
	e.focusLevel = score

	if e.snoozed && now.After(e.snoozeUntil) {
		e.snoozed = false
		e.logger.Info("snooze window expired")
	}

	// Recovery above the threshold cancels an armed snooze early.
	if e.snoozed && score > e.config.FocusRecoveryThreshold {
		e.snoozed = false
		e.logger.Info("focus recovered, clearing snooze",
			zap.Float64("focus_level", score))
	}

	raise := score < e.config.FocusDropThreshold &&
		!e.snoozed &&
		now.Sub(e.lastAlertAt) >= e.config.AlertCooldown
	snoozeEnabled := e.settings.SnoozeFeatureEnabled
	e.mu.Unlock()

	if raise {
		e.raiseAlert(alert.KindFocusDrop, score, snoozeEnabled)
	}

	return nil
}

// raiseAlert creates and publishes an alert. Called without the engine
// lock held; alert creation and the watch push must not run under it.
func (e *Engine) raiseAlert(kind alert.Kind, focusLevel float64, snoozeEnabled bool) alert.Alert {
	a := e.alerts.Create(kind, focusLevel)

	e.mu.Lock()
	current := a
	e.currentAlert = &current
	e.lastAlertAt = e.now()
	e.mu.Unlock()

	e.store.RecordAlert(string(a.Kind))
	e.persistAlert(a)

	// A missed push is logged and otherwise ignored; the alert stays
	// active and the desktop client still sees it.
	if err := e.push(watchlink.PushPayload{
		Load:    watchLoadAlert,
		Vibrate: true,
		Snooze:  snoozeEnabled,
	}); err != nil {
		e.logger.Warn("watch push failed", zap.Error(err))
	}

	e.logger.Info("alert raised",
		zap.String("alert_id", a.ID),
		zap.String("kind", string(a.Kind)),
		zap.Float64("intensity", a.Intensity))
	return a
}

// handleWatchSnooze reacts to the snooze command from the watch: it arms
// the engine suppression window and snoozes the current alert, if any.
func (e *Engine) handleWatchSnooze() {
	now := e.now()

	e.mu.Lock()
	e.snoozed = true
	e.snoozeUntil = now.Add(e.config.SnoozeDuration)
	var alertID string
	if e.currentAlert != nil {
		alertID = e.currentAlert.ID
	}
	e.mu.Unlock()

	e.logger.Info("snooze armed from watch",
		zap.Time("until", now.Add(e.config.SnoozeDuration)))

	if alertID != "" {
		if result, err := e.alerts.Respond(alertID, alert.ResponseSnooze); err == nil {
			e.store.RecordResponse(result.Response)
		}
	}
}

// State returns an atomic snapshot of the engine state.
func (e *Engine) State() core.StateSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := core.StateSnapshot{
		MonitoringActive:     e.active,
		AutoStartEnabled:     e.settings.AutoStartEnabled,
		SnoozeFeatureEnabled: e.settings.SnoozeFeatureEnabled,
		FocusLevel:           e.focusLevel,
		IsSnoozed:            e.snoozed,
	}
	if e.currentAlert != nil {
		a := *e.currentAlert
		a.Pattern = append([]int(nil), a.Pattern...)
		snap.CurrentAlert = &a
	}
	if e.lastBreakTime != nil {
		t := *e.lastBreakTime
		snap.LastBreakTime = &t
	}
	if e.snoozed {
		t := e.snoozeUntil
		snap.SnoozeUntil = &t
	}
	return snap
}

// Settings returns the current settings.
func (e *Engine) Settings() core.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// UpdateSettings applies a partial update and returns the result.
func (e *Engine) UpdateSettings(update core.SettingsUpdate) core.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()

	if update.AutoStartEnabled != nil {
		e.settings.AutoStartEnabled = *update.AutoStartEnabled
	}
	if update.SnoozeFeatureEnabled != nil {
		e.settings.SnoozeFeatureEnabled = *update.SnoozeFeatureEnabled
	}
	return e.settings
}

// PendingAlerts lists the currently active alerts.
func (e *Engine) PendingAlerts() []alert.Alert {
	return e.alerts.Pending()
}

// RespondToAlert applies a user response from the control surface.
//
// A snooze arms the engine suppression window before the manager
// transition so the next cycle cannot race a new alert in between.
// Take-break additionally records the break time.
func (e *Engine) RespondToAlert(alertID string, response alert.Response) (alert.Result, error) {
	now := e.now()

	if response == alert.ResponseSnooze {
		e.mu.Lock()
		e.snoozed = true
		e.snoozeUntil = now.Add(e.config.SnoozeDuration)
		e.mu.Unlock()
	}

	result, err := e.alerts.Respond(alertID, response)
	if err != nil {
		return alert.Result{}, err
	}

	if response == alert.ResponseTakeBreak {
		e.mu.Lock()
		t := now
		e.lastBreakTime = &t
		e.mu.Unlock()
	}

	e.store.RecordResponse(result.Response)

	if e.repo != nil && response != alert.ResponseSnooze {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.repo.MarkAlertResolved(ctx, alertID, result.Response); err != nil {
			e.logger.Warn("failed to persist alert resolution",
				zap.String("alert_id", alertID), zap.Error(err))
		}
	}

	e.logger.Info("alert response applied",
		zap.String("alert_id", alertID),
		zap.String("response", result.Response))
	return result, nil
}

// TriggerAlert raises an alert at the given focus level immediately,
// bypassing thresholds and cooldown. Used by the setup wizard to verify
// the watch link.
func (e *Engine) TriggerAlert(kind alert.Kind, focusLevel float64) (alert.Alert, error) {
	e.mu.Lock()
	snoozeEnabled := e.settings.SnoozeFeatureEnabled
	e.mu.Unlock()

	return e.raiseAlert(kind, focusLevel, snoozeEnabled), nil
}

// FocusLevel returns the most recent focus score.
func (e *Engine) FocusLevel() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.focusLevel
}

// FocusHistory returns up to limit recent readings, newest first.
func (e *Engine) FocusHistory(limit int) []metrics.FocusReading {
	return e.store.RecentReadings(limit)
}

// AlertStats returns alert counters since startup.
func (e *Engine) AlertStats() metrics.AlertStats {
	return e.store.Stats()
}

// Status returns engine telemetry for the status endpoint.
func (e *Engine) Status() metrics.EngineStatus {
	status := e.store.Status()
	if latest, ok := e.store.LatestReading(); ok {
		status.LatestReading = &latest
	}
	return status
}

// SampleHistory returns up to limit persisted interaction samples,
// newest first. Nil when persistence is disabled.
func (e *Engine) SampleHistory(ctx context.Context, limit int) ([]db.FocusSampleRecord, error) {
	if e.repo == nil {
		return nil, nil
	}
	return e.repo.RecentFocusSamples(ctx, limit)
}

// AlertHistory returns up to limit persisted alert records, newest
// first. Nil when persistence is disabled.
func (e *Engine) AlertHistory(ctx context.Context, limit int) ([]db.AlertRecord, error) {
	if e.repo == nil {
		return nil, nil
	}
	return e.repo.RecentAlerts(ctx, limit)
}

func (e *Engine) persistSample(s input.Sample, score float64) {
	if e.repo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.repo.InsertFocusSample(ctx, db.FocusSampleRecord{
		Timestamp:     s.Timestamp,
		Keystrokes:    s.KeystrokeCount,
		MouseDistance: s.MouseMovementDistance,
		MouseClicks:   s.MouseClickCount,
		IdleSeconds:   s.IdleTime,
		Score:         score,
	}); err != nil {
		e.logger.Warn("failed to persist sample", zap.Error(err))
	}
}

func (e *Engine) persistAlert(a alert.Alert) {
	if e.repo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.repo.InsertAlert(ctx, db.AlertRecord{
		AlertID:    a.ID,
		Kind:       string(a.Kind),
		Message:    a.Message,
		Intensity:  a.Intensity,
		DurationMS: a.DurationMS,
		Pattern:    a.Pattern,
		CreatedAt:  a.Timestamp,
	}); err != nil {
		e.logger.Warn("failed to persist alert", zap.Error(err))
	}
}
