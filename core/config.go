package core

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration values for the focus monitoring backend.
// Values come from environment variables with sensible defaults; an
// optional YAML file (FOCUS_CONFIG) can override the engine tunables and
// vibration patterns.
type Config struct {
	// Device link
	WatchAddr    string        // host:port the watch listens on for pushes
	ListenerPort int           // local port for inbound watch commands
	PushTimeout  time.Duration // connect+send deadline for one push

	// Engine tunables
	SamplePeriod           time.Duration // evaluation loop period
	FailureBackoff         time.Duration // sleep after a failed cycle
	AlertCooldown          time.Duration // minimum gap between raised alerts
	SnoozeDuration         time.Duration // suppression window armed by a snooze
	FocusDropThreshold     float64       // score below this raises an alert
	FocusRecoveryThreshold float64       // score above this cancels a snooze
	HistoryCapacity        int           // rolling sample history size
	CalibrationSamples     int           // baselines computed once history exceeds this

	// Alert shaping
	ShortVibrationPattern []int // used when alert intensity is mild
	LongVibrationPattern  []int // used when alert intensity is severe

	// Default settings (adjustable at runtime via the control surface)
	AutoStartEnabled     bool
	SnoozeFeatureEnabled bool

	// Session history storage
	DatabasePath   string // empty disables persistence
	MigrationsPath string // file:// URL to the migrations directory

	// Control surface
	UIHost     string
	UIPort     int
	UIPassword string // empty disables dashboard auth
}

// fileConfig is the YAML overlay schema. Pointer fields distinguish
// "absent" from zero values.
type fileConfig struct {
	Engine struct {
		SamplePeriodSeconds    *int     `yaml:"sample_period_seconds"`
		FailureBackoffSeconds  *int     `yaml:"failure_backoff_seconds"`
		AlertCooldownSeconds   *int     `yaml:"alert_cooldown_seconds"`
		SnoozeDurationSeconds  *int     `yaml:"snooze_duration_seconds"`
		FocusDropThreshold     *float64 `yaml:"focus_drop_threshold"`
		FocusRecoveryThreshold *float64 `yaml:"focus_recovery_threshold"`
		HistoryCapacity        *int     `yaml:"history_capacity"`
		CalibrationSamples     *int     `yaml:"calibration_samples"`
	} `yaml:"engine"`
	Alerts struct {
		ShortPattern []int `yaml:"short_pattern"`
		LongPattern  []int `yaml:"long_pattern"`
	} `yaml:"alerts"`
}

// LoadConfig loads configuration from environment variables, then applies
// the optional YAML overlay named by FOCUS_CONFIG, then validates.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		WatchAddr:    getEnvOrDefault("WATCH_ADDR", "127.0.0.1:8080"),
		ListenerPort: parseIntEnv("LISTENER_PORT", 8081),
		PushTimeout:  parseSecondsEnv("PUSH_TIMEOUT_SECONDS", 2),

		SamplePeriod:           parseSecondsEnv("SAMPLE_PERIOD_SECONDS", 5),
		FailureBackoff:         parseSecondsEnv("FAILURE_BACKOFF_SECONDS", 10),
		AlertCooldown:          parseSecondsEnv("ALERT_COOLDOWN_SECONDS", 120),
		SnoozeDuration:         parseSecondsEnv("SNOOZE_DURATION_SECONDS", 300),
		FocusDropThreshold:     parseFloatEnv("FOCUS_DROP_THRESHOLD", 0.6),
		FocusRecoveryThreshold: parseFloatEnv("FOCUS_RECOVERY_THRESHOLD", 0.8),
		HistoryCapacity:        parseIntEnv("HISTORY_CAPACITY", 60),
		CalibrationSamples:     parseIntEnv("CALIBRATION_SAMPLES", 10),

		ShortVibrationPattern: []int{150, 100, 150},
		LongVibrationPattern:  []int{200, 100, 200, 100, 200},

		AutoStartEnabled:     parseBoolEnv("AUTO_START_ENABLED", false),
		SnoozeFeatureEnabled: parseBoolEnv("SNOOZE_FEATURE_ENABLED", true),

		DatabasePath:   getEnvOrDefault("DB_PATH", "./focuswatch.db"),
		MigrationsPath: getEnvOrDefault("MIGRATIONS_PATH", "file://db/migrations"),

		UIHost:     getEnvOrDefault("UI_HOST", "localhost"),
		UIPort:     parseIntEnv("UI_PORT", 5000),
		UIPassword: os.Getenv("UI_PASSWORD"),
	}

	if path := os.Getenv("FOCUS_CONFIG"); path != "" {
		if err := cfg.applyOverlay(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyOverlay merges the YAML file at path into the config. Only fields
// present in the file are overridden.
func (c *Config) applyOverlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return ErrConfigFileUnreadable(path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return ErrConfigFileUnreadable(path, err)
	}

	e := fc.Engine
	if e.SamplePeriodSeconds != nil {
		c.SamplePeriod = time.Duration(*e.SamplePeriodSeconds) * time.Second
	}
	if e.FailureBackoffSeconds != nil {
		c.FailureBackoff = time.Duration(*e.FailureBackoffSeconds) * time.Second
	}
	if e.AlertCooldownSeconds != nil {
		c.AlertCooldown = time.Duration(*e.AlertCooldownSeconds) * time.Second
	}
	if e.SnoozeDurationSeconds != nil {
		c.SnoozeDuration = time.Duration(*e.SnoozeDurationSeconds) * time.Second
	}
	if e.FocusDropThreshold != nil {
		c.FocusDropThreshold = *e.FocusDropThreshold
	}
	if e.FocusRecoveryThreshold != nil {
		c.FocusRecoveryThreshold = *e.FocusRecoveryThreshold
	}
	if e.HistoryCapacity != nil {
		c.HistoryCapacity = *e.HistoryCapacity
	}
	if e.CalibrationSamples != nil {
		c.CalibrationSamples = *e.CalibrationSamples
	}
	if len(fc.Alerts.ShortPattern) > 0 {
		c.ShortVibrationPattern = fc.Alerts.ShortPattern
	}
	if len(fc.Alerts.LongPattern) > 0 {
		c.LongVibrationPattern = fc.Alerts.LongPattern
	}
	return nil
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.WatchAddr); err != nil {
		return ErrInvalidWatchAddr(c.WatchAddr, err)
	}
	if c.ListenerPort < 1 || c.ListenerPort > 65535 {
		return ErrInvalidPort("LISTENER_PORT", c.ListenerPort)
	}
	if c.UIPort < 1 || c.UIPort > 65535 {
		return ErrInvalidPort("UI_PORT", c.UIPort)
	}
	if c.SamplePeriod < time.Second {
		return ErrInvalidTunable("sample period", c.SamplePeriod.String(), "must be at least 1s")
	}
	if c.FocusDropThreshold <= 0 || c.FocusDropThreshold >= 1 {
		return ErrInvalidTunable("focus drop threshold",
			strconv.FormatFloat(c.FocusDropThreshold, 'f', -1, 64), "must be inside (0, 1)")
	}
	if c.FocusRecoveryThreshold < c.FocusDropThreshold || c.FocusRecoveryThreshold > 1 {
		return ErrInvalidTunable("focus recovery threshold",
			strconv.FormatFloat(c.FocusRecoveryThreshold, 'f', -1, 64),
			fmt.Sprintf("must be within [%g, 1]", c.FocusDropThreshold))
	}
	if c.HistoryCapacity < c.CalibrationSamples {
		return ErrInvalidTunable("history capacity",
			strconv.Itoa(c.HistoryCapacity), "must be at least the calibration sample count")
	}
	if len(c.ShortVibrationPattern) == 0 || len(c.LongVibrationPattern) == 0 {
		return ErrInvalidTunable("vibration pattern", "", "patterns must not be empty")
	}
	return nil
}
