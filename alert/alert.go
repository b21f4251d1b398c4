// Package alert owns the active alert set: alert creation with a
// device-vibration pattern, and the snooze/dismiss/take-break response
// transitions applied from the control surface or the watch.
package alert

import (
	"errors"
	"fmt"
	"time"
)

// Kind identifies the category of an alert.
type Kind string

const (
	// KindFocusDrop is raised when the focus score falls below the drop
	// threshold.
	KindFocusDrop Kind = "focus_drop"

	// KindBreakSuggestion is raised for scheduled break reminders.
	KindBreakSuggestion Kind = "break_suggestion"
)

// Response identifies a user reaction to an alert.
type Response string

const (
	ResponseSnooze    Response = "snooze"
	ResponseDismiss   Response = "dismiss"
	ResponseTakeBreak Response = "take_break"
)

// Rejected-operation errors surfaced to callers. These never crash the
// engine; the control surface maps them to 4xx responses.
var (
	ErrNotFound        = errors.New("alert not found")
	ErrInvalidResponse = errors.New("invalid response")
	ErrInvalidKind     = errors.New("invalid alert kind")
)

// ParseKind converts a wire string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindFocusDrop, KindBreakSuggestion:
		return Kind(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

// ParseResponse converts a wire string into a Response.
func ParseResponse(s string) (Response, error) {
	switch Response(s) {
	case ResponseSnooze, ResponseDismiss, ResponseTakeBreak:
		return Response(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidResponse, s)
}

// Alert is a raised focus alert. Immutable once created; the pattern is
// an ordered sequence of millisecond durations alternating vibrate/pause.
type Alert struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"type"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
	Intensity  float64   `json:"intensity"`
	DurationMS int       `json:"duration_ms"`
	Pattern    []int     `json:"pattern"`
}

// Result reports the outcome of a response applied to an alert.
type Result struct {
	AlertID  string `json:"alert_id"`
	Response string `json:"response"`
}

// clone returns a copy with its own pattern slice so callers cannot
// mutate the stored alert.
func (a Alert) clone() Alert {
	out := a
	out.Pattern = append([]int(nil), a.Pattern...)
	return out
}
