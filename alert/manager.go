package alert

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// longPatternThreshold selects the long vibration pattern once the alert
// intensity reaches it.
const longPatternThreshold = 0.4

// messages is the fixed per-kind message lookup.
var messages = map[Kind]string{
	KindFocusDrop:       "Focus dropping. Consider a short break.",
	KindBreakSuggestion: "Good time for a scheduled break.",
}

// ManagerConfig shapes the vibration patterns used for new alerts.
// Zero-value fields fall back to the built-in patterns.
type ManagerConfig struct {
	ShortPattern []int
	LongPattern  []int
}

// Manager owns the set of currently active alerts. It is safe for
// concurrent use: the evaluation loop creates alerts while the watch
// listener and control surface apply responses.
type Manager struct {
	mu     sync.Mutex
	active map[string]Alert
	short  []int
	long   []int
	now    func() time.Time
}

// NewManager creates an empty alert manager.
func NewManager(cfg ManagerConfig) *Manager {
	short := cfg.ShortPattern
	if len(short) == 0 {
		short = []int{150, 100, 150}
	}
	long := cfg.LongPattern
	if len(long) == 0 {
		long = []int{200, 100, 200, 100, 200}
	}
	return &Manager{
		active: make(map[string]Alert),
		short:  append([]int(nil), short...),
		long:   append([]int(nil), long...),
		now:    time.Now,
	}
}

// Create raises a new alert for the given kind at the given focus level
// and adds it to the active set. Intensity is 1 - focusLevel clamped to
// [0, 1]; mild intensities get the short pattern, severe ones the long.
func (m *Manager) Create(kind Kind, focusLevel float64) Alert {
	intensity := 1.0 - focusLevel
	if intensity < 0 {
		intensity = 0
	} else if intensity > 1 {
		intensity = 1
	}

	pattern := m.long
	if intensity < longPatternThreshold {
		pattern = m.short
	}

	total := 0
	for _, ms := range pattern {
		total += ms
	}

	a := Alert{
		ID:         uuid.NewString(),
		Kind:       kind,
		Message:    messages[kind],
		Timestamp:  m.now(),
		Intensity:  intensity,
		DurationMS: total,
		Pattern:    append([]int(nil), pattern...),
	}

	m.mu.Lock()
	m.active[a.ID] = a
	m.mu.Unlock()

	return a.clone()
}

// Respond applies a user response to an active alert.
//
// SNOOZE leaves the alert in the active set; DISMISS and TAKE_BREAK
// remove it. An unknown id fails with ErrNotFound and an unknown
// response with ErrInvalidResponse, both leaving the set unchanged.
func (m *Manager) Respond(alertID string, response Response) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.active[alertID]; !ok {
		return Result{}, ErrNotFound
	}

	switch response {
	case ResponseSnooze:
		return Result{AlertID: alertID, Response: "snoozed"}, nil
	case ResponseDismiss:
		delete(m.active, alertID)
		return Result{AlertID: alertID, Response: "dismissed"}, nil
	case ResponseTakeBreak:
		delete(m.active, alertID)
		return Result{AlertID: alertID, Response: "break_taken"}, nil
	default:
		return Result{}, ErrInvalidResponse
	}
}

// Pending returns a copy of the active set. Order is not significant.
func (m *Manager) Pending() []Alert {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Alert, 0, len(m.active))
	for _, a := range m.active {
		out = append(out, a.clone())
	}
	return out
}

// Get looks up a single active alert by id.
func (m *Manager) Get(alertID string) (Alert, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.active[alertID]
	if !ok {
		return Alert{}, false
	}
	return a.clone(), true
}
