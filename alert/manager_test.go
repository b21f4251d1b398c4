package alert

import (
	"errors"
	"testing"
)

func TestCreateAssignsPatternByIntensity(t *testing.T) {
	m := NewManager(ManagerConfig{})

	tests := []struct {
		name          string
		focusLevel    float64
		wantIntensity float64
		wantPattern   []int
		wantDuration  int
	}{
		{"severe drop gets long pattern", 0.3, 0.7, []int{200, 100, 200, 100, 200}, 800},
		{"mild drop gets short pattern", 0.65, 0.35, []int{150, 100, 150}, 400},
		{"boundary intensity gets long pattern", 0.6, 0.4, []int{200, 100, 200, 100, 200}, 800},
		{"negative intensity clamps to zero", 1.5, 0, []int{150, 100, 150}, 400},
		{"intensity clamps to one", -0.5, 1, []int{200, 100, 200, 100, 200}, 800},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := m.Create(KindFocusDrop, tt.focusLevel)

			if a.ID == "" {
				t.Fatal("alert has no id")
			}
			if a.Intensity != tt.wantIntensity {
				t.Errorf("intensity = %v, want %v", a.Intensity, tt.wantIntensity)
			}
			if a.DurationMS != tt.wantDuration {
				t.Errorf("duration = %d, want %d", a.DurationMS, tt.wantDuration)
			}
			if len(a.Pattern) != len(tt.wantPattern) {
				t.Fatalf("pattern = %v, want %v", a.Pattern, tt.wantPattern)
			}
			for i := range a.Pattern {
				if a.Pattern[i] != tt.wantPattern[i] {
					t.Fatalf("pattern = %v, want %v", a.Pattern, tt.wantPattern)
				}
			}
		})
	}
}

func TestCreateMessages(t *testing.T) {
	m := NewManager(ManagerConfig{})

	if got := m.Create(KindFocusDrop, 0.5).Message; got != "Focus dropping. Consider a short break." {
		t.Errorf("focus drop message = %q", got)
	}
	if got := m.Create(KindBreakSuggestion, 0.5).Message; got != "Good time for a scheduled break." {
		t.Errorf("break suggestion message = %q", got)
	}
}

func TestRespondTransitions(t *testing.T) {
	tests := []struct {
		name        string
		response    Response
		wantOutcome string
		wantRemoved bool
	}{
		{"snooze keeps alert active", ResponseSnooze, "snoozed", false},
		{"dismiss removes alert", ResponseDismiss, "dismissed", true},
		{"take break removes alert", ResponseTakeBreak, "break_taken", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(ManagerConfig{})
			a := m.Create(KindFocusDrop, 0.4)

			result, err := m.Respond(a.ID, tt.response)
			if err != nil {
				t.Fatalf("Respond() error = %v", err)
			}
			if result.AlertID != a.ID {
				t.Errorf("result alert id = %q, want %q", result.AlertID, a.ID)
			}
			if result.Response != tt.wantOutcome {
				t.Errorf("result response = %q, want %q", result.Response, tt.wantOutcome)
			}

			_, stillActive := m.Get(a.ID)
			if stillActive == tt.wantRemoved {
				t.Errorf("alert active = %v, want removed = %v", stillActive, tt.wantRemoved)
			}
		})
	}
}

func TestRespondUnknownAlert(t *testing.T) {
	m := NewManager(ManagerConfig{})

	_, err := m.Respond("no-such-id", ResponseDismiss)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Respond() error = %v, want ErrNotFound", err)
	}
}

func TestRespondInvalidResponseLeavesAlert(t *testing.T) {
	m := NewManager(ManagerConfig{})
	a := m.Create(KindFocusDrop, 0.4)

	_, err := m.Respond(a.ID, Response("explode"))
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("Respond() error = %v, want ErrInvalidResponse", err)
	}
	if _, ok := m.Get(a.ID); !ok {
		t.Fatal("alert removed by a rejected response")
	}
}

func TestPendingReturnsCopies(t *testing.T) {
	m := NewManager(ManagerConfig{})
	m.Create(KindFocusDrop, 0.4)
	m.Create(KindBreakSuggestion, 0.5)

	pending := m.Pending()
	if len(pending) != 2 {
		t.Fatalf("pending = %d alerts, want 2", len(pending))
	}

	// Mutating a returned pattern must not touch the stored alert.
	pending[0].Pattern[0] = 9999
	fresh, ok := m.Get(pending[0].ID)
	if !ok {
		t.Fatal("alert missing")
	}
	if fresh.Pattern[0] == 9999 {
		t.Fatal("stored alert pattern aliased by Pending copy")
	}
}

func TestParseKind(t *testing.T) {
	if _, err := ParseKind("focus_drop"); err != nil {
		t.Errorf("ParseKind(focus_drop) error = %v", err)
	}
	if _, err := ParseKind("break_suggestion"); err != nil {
		t.Errorf("ParseKind(break_suggestion) error = %v", err)
	}
	if _, err := ParseKind("nonsense"); !errors.Is(err, ErrInvalidKind) {
		t.Errorf("ParseKind(nonsense) error = %v, want ErrInvalidKind", err)
	}
}

func TestParseResponse(t *testing.T) {
	for _, valid := range []string{"snooze", "dismiss", "take_break"} {
		if _, err := ParseResponse(valid); err != nil {
			t.Errorf("ParseResponse(%s) error = %v", valid, err)
		}
	}
	if _, err := ParseResponse("ignore"); !errors.Is(err, ErrInvalidResponse) {
		t.Errorf("ParseResponse(ignore) error = %v, want ErrInvalidResponse", err)
	}
}

func TestCustomPatterns(t *testing.T) {
	m := NewManager(ManagerConfig{
		ShortPattern: []int{50},
		LongPattern:  []int{500, 500},
	})

	if a := m.Create(KindFocusDrop, 0.9); a.DurationMS != 50 {
		t.Errorf("short pattern duration = %d, want 50", a.DurationMS)
	}
	if a := m.Create(KindFocusDrop, 0.1); a.DurationMS != 1000 {
		t.Errorf("long pattern duration = %d, want 1000", a.DurationMS)
	}
}
