package core

import (
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
)

// StepStatus represents the status of a validation step.
type StepStatus int

const (
	StepPassed StepStatus = iota
	StepFailed
	StepWarning
)

// ValidationStep is the outcome of a single startup check.
type ValidationStep struct {
	Name    string
	Status  StepStatus
	Message string
	Error   error
}

// SuiteResult is the outcome of a full validation run.
type SuiteResult struct {
	Steps       []ValidationStep
	PassedSteps int
	FailedSteps int
	Warnings    int
	Duration    time.Duration
	Success     bool
}

// ValidationSuite runs the startup checks with colored console progress,
// so a misconfigured deployment fails loudly before the engine starts.
type ValidationSuite struct {
	cfg          *Config
	output       io.Writer
	showProgress bool
}

// NewValidationSuite creates a suite for the given configuration.
func NewValidationSuite(cfg *Config) *ValidationSuite {
	return &ValidationSuite{
		cfg:          cfg,
		output:       os.Stdout,
		showProgress: true,
	}
}

// WithOutput sets the output writer for progress messages.
func (s *ValidationSuite) WithOutput(w io.Writer) *ValidationSuite {
	s.output = w
	return s
}

// WithShowProgress enables or disables progress output.
func (s *ValidationSuite) WithShowProgress(show bool) *ValidationSuite {
	s.showProgress = show
	return s
}

// Validate runs all startup checks in sequence.
func (s *ValidationSuite) Validate() SuiteResult {
	start := time.Now()

	if s.showProgress {
		header := color.New(color.FgCyan, color.Bold)
		fmt.Fprintln(s.output)
		header.Fprintln(s.output, "━━━ FocusWatch Startup Validation ━━━")
		fmt.Fprintln(s.output)
	}

	steps := []ValidationStep{
		s.runStep("Watch Address", s.checkWatchAddr),
		s.runStep("Listener Port", s.checkListenerPort),
		s.runStep("Vibration Patterns", s.checkPatterns),
		s.runStep("History Database", s.checkDatabaseDir),
	}

	result := SuiteResult{
		Steps:    steps,
		Duration: time.Since(start),
		Success:  true,
	}
	for _, step := range steps {
		switch step.Status {
		case StepPassed:
			result.PassedSteps++
		case StepFailed:
			result.FailedSteps++
			result.Success = false
		case StepWarning:
			result.Warnings++
		}
	}

	if s.showProgress {
		s.printSummary(result)
	}
	return result
}

func (s *ValidationSuite) checkWatchAddr() ValidationStep {
	host, _, err := net.SplitHostPort(s.cfg.WatchAddr)
	if err != nil || host == "" {
		return ValidationStep{
			Status:  StepFailed,
			Message: "watch address is not host:port",
			Error:   ErrInvalidWatchAddr(s.cfg.WatchAddr, err),
		}
	}
	return ValidationStep{Status: StepPassed, Message: s.cfg.WatchAddr}
}

func (s *ValidationSuite) checkListenerPort() ValidationStep {
	if s.cfg.ListenerPort == s.cfg.UIPort {
		return ValidationStep{
			Status:  StepFailed,
			Message: "listener port collides with the control surface port",
			Error:   ErrInvalidPort("LISTENER_PORT", s.cfg.ListenerPort),
		}
	}
	return ValidationStep{Status: StepPassed, Message: fmt.Sprintf("port %d", s.cfg.ListenerPort)}
}

func (s *ValidationSuite) checkPatterns() ValidationStep {
	for _, pattern := range [][]int{s.cfg.ShortVibrationPattern, s.cfg.LongVibrationPattern} {
		for _, ms := range pattern {
			if ms <= 0 {
				return ValidationStep{
					Status:  StepFailed,
					Message: "pattern segments must be positive milliseconds",
					Error:   ErrInvalidTunable("vibration pattern", fmt.Sprint(pattern), "all segments must be > 0"),
				}
			}
		}
	}
	return ValidationStep{Status: StepPassed, Message: "patterns well-formed"}
}

func (s *ValidationSuite) checkDatabaseDir() ValidationStep {
	if s.cfg.DatabasePath == "" {
		return ValidationStep{Status: StepWarning, Message: "persistence disabled (DB_PATH empty)"}
	}
	dir := filepath.Dir(s.cfg.DatabasePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		// Degraded, not fatal: the engine runs without history persistence.
		return ValidationStep{
			Status:  StepWarning,
			Message: fmt.Sprintf("cannot create %s, history disabled", dir),
			Error:   err,
		}
	}
	return ValidationStep{Status: StepPassed, Message: s.cfg.DatabasePath}
}

// runStep executes a check, stamps its name, and prints the result line.
func (s *ValidationSuite) runStep(name string, fn func() ValidationStep) ValidationStep {
	step := fn()
	step.Name = name
	if s.showProgress {
		s.printStep(step)
	}
	return step
}

func (s *ValidationSuite) printStep(step ValidationStep) {
	var icon string
	var clr *color.Color

	switch step.Status {
	case StepPassed:
		icon = "✓"
		clr = color.New(color.FgGreen)
	case StepFailed:
		icon = "✗"
		clr = color.New(color.FgRed)
	default:
		icon = "!"
		clr = color.New(color.FgYellow)
	}

	clr.Fprintf(s.output, "  %s %s", icon, step.Name)
	if step.Message != "" {
		color.New(color.FgHiBlack).Fprintf(s.output, " - %s", step.Message)
	}
	fmt.Fprintln(s.output)

	if step.Status == StepFailed && step.Error != nil {
		color.New(color.FgRed).Fprintf(s.output, "    └─ %s\n", step.Error.Error())
	}
}

func (s *ValidationSuite) printSummary(result SuiteResult) {
	fmt.Fprintln(s.output)
	if result.Success {
		color.New(color.FgGreen, color.Bold).Fprintf(s.output, "━━━ Validation Passed ")
		color.New(color.FgHiBlack).Fprintf(s.output, "(%d checks in %v)",
			result.PassedSteps, result.Duration.Round(time.Millisecond))
	} else {
		color.New(color.FgRed, color.Bold).Fprintf(s.output, "━━━ Validation Failed ")
		color.New(color.FgHiBlack).Fprintf(s.output, "(%d passed, %d failed)",
			result.PassedSteps, result.FailedSteps)
	}
	fmt.Fprintln(s.output, " ━━━")
	fmt.Fprintln(s.output)
}

// GetFirstError returns the first error from failed steps, or nil.
func (r SuiteResult) GetFirstError() error {
	for _, step := range r.Steps {
		if step.Status == StepFailed && step.Error != nil {
			return step.Error
		}
	}
	return nil
}
