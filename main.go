package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"go_backend/core"
	"go_backend/db"
	"go_backend/input"
	"go_backend/logging"
	"go_backend/metrics"
	"go_backend/shutdown"
	"go_backend/webui"
)

func main() {
	// Service management commands (install/uninstall/...) exit here.
	if HandleServiceCommand(os.Args) {
		return
	}

	// When launched by the service manager, the service wrapper drives
	// runApp through its own lifecycle.
	if ranAsService, err := RunAsService(); err != nil {
		fmt.Fprintf(os.Stderr, "service error: %v\n", err)
		os.Exit(core.ExitCodeError)
	} else if ranAsService {
		return
	}

	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Use fmt here since logger isn't initialized yet
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	config, err := core.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(core.ExitCodeError)
	}

	isDevelopment := os.Getenv("DEV_MODE") == "true"

	logger, err := logging.NewLogger(isDevelopment, "focuswatch.log")
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(core.ExitCodeError)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Printf("Failed to sync logger: %v\n", syncErr)
		}
	}()

	if exitCode := runStartupValidation(config, logger); exitCode != core.ExitCodeSuccess {
		os.Exit(exitCode)
	}

	logger.Info("Configuration loaded",
		zap.String("watch_addr", config.WatchAddr),
		zap.Int("listener_port", config.ListenerPort),
		zap.Duration("sample_period", config.SamplePeriod),
		zap.Duration("alert_cooldown", config.AlertCooldown),
		zap.Duration("snooze_duration", config.SnoozeDuration),
		zap.Float64("drop_threshold", config.FocusDropThreshold),
		zap.Float64("recovery_threshold", config.FocusRecoveryThreshold),
		zap.String("db_path", config.DatabasePath),
		zap.Bool("auto_start", config.AutoStartEnabled),
		zap.Bool("dev_mode", isDevelopment),
	)

	os.Exit(runApp(config, logger))
}

// runApp wires the engine, storage and control surface together and
// blocks until shutdown. Shared by foreground mode and the service
// wrapper.
func runApp(config *core.Config, logger *logging.Logger) int {
	sd := shutdown.NewManager(logger.Zap())
	sd.Start()

	// History persistence is best-effort: a broken database degrades to
	// in-memory operation instead of blocking startup.
	var repo *db.Repository
	if config.DatabasePath != "" {
		database, err := db.NewDatabase(config.DatabasePath, config.MigrationsPath)
		if err != nil {
			logger.Warn("history database unavailable, continuing without persistence",
				zap.String("path", config.DatabasePath),
				zap.Error(err))
		} else {
			writer := db.NewAsyncWriter(logger.Zap())
			writer.Start()
			repo = db.NewRepository(database, writer)

			sd.Register("history-writer", 30, func(ctx context.Context) error {
				return writer.Close()
			})
			sd.Register("database", 31, func(ctx context.Context) error {
				return database.Close()
			})
		}
	}

	store := metrics.NewStore(metrics.DefaultStoreConfig(), time.Now())

	engine := NewEngine(config, EngineDeps{
		Source: input.NewNoopSource(),
		Store:  store,
		Repo:   repo,
	}, logger)
	sd.Register("engine", 20, engine.Shutdown)

	server, err := webui.NewServer(webui.ServerConfig{
		Host:         config.UIHost,
		Port:         config.UIPort,
		Password:     config.UIPassword,
		LogSkipPaths: []string{"/api/health"},
	}, engine, logger.Zap())
	if err != nil {
		logger.Error("Failed to create control surface", zap.Error(err))
		return core.ExitCodeError
	}
	sd.Register("control-surface", 10, server.Shutdown)

	go func() {
		if err := server.Start(sd.Context()); err != nil {
			logger.Error("Control surface failed", zap.Error(err))
			sd.Trigger()
		}
	}()

	if config.AutoStartEnabled {
		if _, err := engine.StartMonitoring(); err != nil {
			logger.Error("Auto-start failed", zap.Error(err))
		}
	} else {
		logger.Info("Waiting for start request on the control surface",
			zap.String("addr", server.Addr()))
	}

	<-sd.Context().Done()
	sd.Shutdown()

	logger.Info("Goodbye!")
	return core.ExitCodeSuccess
}

// runStartupValidation performs the startup checks before any heavy
// initialization. Returns ExitCodeSuccess when all checks pass.
func runStartupValidation(config *core.Config, logger *logging.Logger) int {
	logger.Info("Starting startup validation...")

	suite := core.NewValidationSuite(config).WithShowProgress(true)
	result := suite.Validate()

	if !result.Success {
		logger.Error("Configuration validation failed",
			zap.Int("passed", result.PassedSteps),
			zap.Int("failed", result.FailedSteps),
			zap.Duration("duration", result.Duration),
		)
		for _, step := range result.Steps {
			if step.Status == core.StepFailed {
				logger.Error("Validation step failed",
					zap.String("step", step.Name),
					zap.String("message", step.Message),
					zap.Error(step.Error),
				)
			}
		}
		return core.ExitCodeError
	}

	logger.Info("Configuration validation passed",
		zap.Int("checks_passed", result.PassedSteps),
		zap.Int("warnings", result.Warnings),
		zap.Duration("duration", result.Duration),
	)
	return core.ExitCodeSuccess
}
