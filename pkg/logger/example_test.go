package logger_test

import (
	"errors"

	"github.com/wonny/argos/pkg/config"
	"github.com/wonny/argos/pkg/logger"
)

// Example_basic demonstrates basic logger usage
func Example_basic() {
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "info",
		LogFormat: "console",
	}

	log := logger.New(cfg)

	// Basic logging
	log.Debug("This won't appear (level is info)")
	log.Info("Application started")
	log.Warn("Low disk space")
	log.Error("Failed to connect")

	// Formatted logging
	log.Infof("Captured snapshot for %d tickers", 25)
	log.Warnf("Retry attempt %d of %d", 3, 5)
}

// Example_withFields demonstrates structured logging with fields
func Example_withFields() {
	cfg := &config.Config{
		Env:       "production",
		LogLevel:  "info",
		LogFormat: "json",
	}

	log := logger.New(cfg)

	// Add single field
	runLog := log.WithField("run_id", "8f14e45f")
	runLog.Info("Backtest started")

	// Add multiple fields
	rankLog := log.WithFields(map[string]interface{}{
		"ticker":   "NVDA",
		"score":    82.4,
		"quintile": 5,
		"sector":   "Technology",
	})
	rankLog.Info("Ticker ranked")
}

// Example_withError demonstrates error logging
func Example_withError() {
	cfg := &config.Config{
		Env:       "production",
		LogLevel:  "error",
		LogFormat: "json",
	}

	log := logger.New(cfg)

	// Log with error
	err := errors.New("database connection timeout")
	log.WithError(err).Error("Failed to load price history")

	// Combine error with fields
	log.WithError(err).
		WithFields(map[string]interface{}{
			"retry_count": 3,
			"timeout_ms":  5000,
		}).
		Error("Connection failed after retries")
}

// Example_environments demonstrates different log formats
func Example_environments() {
	// Development: Pretty console logs
	devCfg := &config.Config{
		Env:       "development",
		LogLevel:  "debug",
		LogFormat: "console",
	}
	devLog := logger.New(devCfg)
	devLog.Debug("Debugging application flow")
	devLog.Info("Request received")

	// Production: JSON logs
	prodCfg := &config.Config{
		Env:       "production",
		LogLevel:  "info",
		LogFormat: "json",
	}
	prodLog := logger.New(prodCfg)
	prodLog.Info("Service started")
	prodLog.Warn("High memory usage detected")
}
