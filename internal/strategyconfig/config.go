package strategyconfig

import (
	"github.com/wonny/argos/internal/scoring"
)

// Config is the full description of one scoring strategy: which tickers
// it covers, how indicators are judged fresh, how the composite score is
// weighted, and how backtests of it are parameterized. One YAML file is
// one strategy version; the file's hash ties reports back to it.
type Config struct {
	Meta       Meta       `yaml:"meta" json:"meta"`
	Universe   Universe   `yaml:"universe" json:"universe"`
	Indicators Indicators `yaml:"indicators" json:"indicators"`
	Scoring    Scoring    `yaml:"scoring" json:"scoring"`
	Backtest   Backtest   `yaml:"backtest" json:"backtest"`
}

// Meta identifies the strategy.
type Meta struct {
	StrategyID  string `yaml:"strategy_id" json:"strategy_id"`
	Version     string `yaml:"version" json:"version"`
	Description string `yaml:"description" json:"description"`
}

// Universe is the fixed ticker list the strategy scores.
type Universe struct {
	Tickers []string `yaml:"tickers" json:"tickers"`
}

// Indicators holds indicator construction parameters.
type Indicators struct {
	StalenessDays int `yaml:"staleness_days" json:"staleness_days"`
}

// Scoring holds the composite weights and the recommendation cutoffs.
type Scoring struct {
	Weights    scoring.Weights    `yaml:"weights" json:"weights"`
	Thresholds scoring.Thresholds `yaml:"thresholds" json:"thresholds"`
}

// Backtest holds default run parameters. Horizon and frequency names are
// validated here; the engine parses them again when a run starts.
type Backtest struct {
	Frequency     string   `yaml:"frequency" json:"frequency"`
	Horizons      []string `yaml:"horizons" json:"horizons"`
	MinTickers    int      `yaml:"min_tickers" json:"min_tickers"`
	WarmupDays    int      `yaml:"warmup_days" json:"warmup_days"`
	ToleranceDays int      `yaml:"tolerance_days" json:"tolerance_days"`
	Workers       int      `yaml:"workers" json:"workers"`
}
