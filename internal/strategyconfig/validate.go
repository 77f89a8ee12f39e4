package strategyconfig

import (
	"fmt"

	"github.com/wonny/argos/internal/backtest"
	"github.com/wonny/argos/internal/contracts"
)

// ValidationError is a constraint violation that stops the program.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning is an advisory: the config is usable but likely not what the
// author intended.
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints.
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === Universe ===
	if len(cfg.Universe.Tickers) == 0 {
		return ValidationError{"universe.tickers", "required"}
	}
	seen := make(map[string]bool, len(cfg.Universe.Tickers))
	for i, ticker := range cfg.Universe.Tickers {
		if ticker == "" {
			return ValidationError{fmt.Sprintf("universe.tickers[%d]", i), "must not be empty"}
		}
		if seen[ticker] {
			return ValidationError{"universe.tickers", fmt.Sprintf("duplicate ticker %s", ticker)}
		}
		seen[ticker] = true
	}

	// === Indicators ===
	if cfg.Indicators.StalenessDays < 0 {
		return ValidationError{"indicators.staleness_days", "must be >= 0"}
	}

	// === Scoring ===
	if err := cfg.Scoring.Weights.Validate(); err != nil {
		return ValidationError{"scoring.weights", err.Error()}
	}
	if err := cfg.Scoring.Thresholds.Validate(); err != nil {
		return ValidationError{"scoring.thresholds", err.Error()}
	}

	// === Backtest ===
	if cfg.Backtest.Frequency != "" {
		if _, err := backtest.ParseFrequency(cfg.Backtest.Frequency); err != nil {
			return ValidationError{"backtest.frequency", err.Error()}
		}
	}
	if len(cfg.Backtest.Horizons) == 0 {
		return ValidationError{"backtest.horizons", "required"}
	}
	if _, err := contracts.ParseHorizons(cfg.Backtest.Horizons); err != nil {
		return ValidationError{"backtest.horizons", err.Error()}
	}
	if cfg.Backtest.MinTickers < 0 {
		return ValidationError{"backtest.min_tickers", "must be >= 0"}
	}
	if cfg.Backtest.WarmupDays < 0 {
		return ValidationError{"backtest.warmup_days", "must be >= 0"}
	}
	if cfg.Backtest.ToleranceDays < 0 {
		return ValidationError{"backtest.tolerance_days", "must be >= 0"}
	}
	if cfg.Backtest.Workers < 0 {
		return ValidationError{"backtest.workers", "must be >= 0"}
	}

	return nil
}

// Warn collects advisories for configs that validate but will behave in
// ways the author may not expect.
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	if len(cfg.Universe.Tickers) < 5 {
		warnings = append(warnings, Warning{
			Code:    "SMALL_UNIVERSE",
			Message: fmt.Sprintf("universe has %d tickers; quintile buckets need at least 5 eligible", len(cfg.Universe.Tickers)),
		})
	}

	if cfg.Backtest.WarmupDays > 0 && cfg.Backtest.WarmupDays < backtest.DefaultWarmupDays {
		warnings = append(warnings, Warning{
			Code:    "SHORT_WARMUP",
			Message: fmt.Sprintf("warmup_days=%d is below the ~%d bars the 12-1 momentum window needs; early checkpoints will exclude most tickers", cfg.Backtest.WarmupDays, backtest.DefaultWarmupDays),
		})
	}

	if cfg.Backtest.ToleranceDays > 10 {
		warnings = append(warnings, Warning{
			Code:    "WIDE_TOLERANCE",
			Message: fmt.Sprintf("tolerance_days=%d lets forward returns match bars far from their target dates", cfg.Backtest.ToleranceDays),
		})
	}

	return warnings
}
