package core

import (
	"fmt"
)

// ConfigError represents a configuration-related error with an actionable
// instruction for the operator.
type ConfigError struct {
	Code    string // Error code for programmatic handling
	Message string // Human-readable error message
	Action  string // Actionable instruction for resolution
}

func (e *ConfigError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("%s. %s", e.Message, e.Action)
	}
	return e.Message
}

// Error codes for configuration errors
const (
	ErrCodeConfigFileUnreadable = "CONFIG_FILE_UNREADABLE"
	ErrCodeInvalidWatchAddr     = "INVALID_WATCH_ADDR"
	ErrCodeInvalidPort          = "INVALID_PORT"
	ErrCodeInvalidTunable       = "INVALID_TUNABLE"
)

// ErrConfigFileUnreadable returns an error for an overlay file that could
// not be read or parsed.
func ErrConfigFileUnreadable(path string, reason error) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeConfigFileUnreadable,
		Message: fmt.Sprintf("Cannot load config file %s: %v", path, reason),
		Action:  "Fix the file named by FOCUS_CONFIG or unset the variable",
	}
}

// ErrInvalidWatchAddr returns an error for a malformed watch address.
func ErrInvalidWatchAddr(addr string, reason error) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeInvalidWatchAddr,
		Message: fmt.Sprintf("Invalid WATCH_ADDR '%s': %v", addr, reason),
		Action:  "Set WATCH_ADDR to host:port of the watch (e.g. 10.0.0.12:8080)",
	}
}

// ErrInvalidPort returns an error for a port outside the valid range.
func ErrInvalidPort(name string, port int) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeInvalidPort,
		Message: fmt.Sprintf("Invalid %s: %d", name, port),
		Action:  fmt.Sprintf("Set %s to a port between 1 and 65535", name),
	}
}

// ErrInvalidTunable returns an error for an engine tunable outside its
// allowed range.
func ErrInvalidTunable(name, value, constraint string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeInvalidTunable,
		Message: fmt.Sprintf("Invalid %s %q: %s", name, value, constraint),
		Action:  "Adjust the value in the environment or FOCUS_CONFIG overlay",
	}
}

// IsConfigError checks if an error is a ConfigError and returns it if so.
func IsConfigError(err error) (*ConfigError, bool) {
	if configErr, ok := err.(*ConfigError); ok {
		return configErr, true
	}
	return nil, false
}
