package contracts

import (
	"fmt"
	"time"
)

// QuintileCount is the number of cross-sectional buckets.
const QuintileCount = 5

// Horizon is a forward-return measurement window in calendar days.
type Horizon struct {
	Name string `json:"name"`
	Days int    `json:"days"`
}

// Target returns the date Days after from.
func (h Horizon) Target(from time.Time) time.Time {
	return from.AddDate(0, 0, h.Days)
}

var horizonDays = map[string]int{
	"1w":  7,
	"1m":  30,
	"3m":  91,
	"6m":  182,
	"12m": 365,
}

// ParseHorizon maps a horizon name (1w, 1m, 3m, 6m, 12m) to its calendar
// window. Unknown names are a configuration error.
func ParseHorizon(name string) (Horizon, error) {
	days, ok := horizonDays[name]
	if !ok {
		return Horizon{}, fmt.Errorf("unknown horizon %q", name)
	}
	return Horizon{Name: name, Days: days}, nil
}

// ParseHorizons maps a list of horizon names, failing on the first unknown.
func ParseHorizons(names []string) ([]Horizon, error) {
	horizons := make([]Horizon, 0, len(names))
	for _, name := range names {
		h, err := ParseHorizon(name)
		if err != nil {
			return nil, err
		}
		horizons = append(horizons, h)
	}
	return horizons, nil
}

// QuintileAssignment is one ticker's place in a checkpoint's ranking.
type QuintileAssignment struct {
	Ticker         string  `json:"ticker"`
	Score          float64 `json:"score"`
	RankPercentile float64 `json:"rank_percentile"` // 0-100, strictly-lower basis
	Quintile       int     `json:"quintile"`        // 1 (lowest) to 5; 0 when undefined
}

// HorizonOutcome is everything measured at one checkpoint for one horizon.
type HorizonOutcome struct {
	Returns       map[string]*float64 `json:"returns"` // ticker -> simple pct; nil = undefined
	Covered       int                 `json:"covered"` // tickers with a defined return
	QuintileMeans map[int]float64     `json:"quintile_means,omitempty"`
	Spread        *float64            `json:"spread,omitempty"`      // Q5 mean - Q1 mean, pct points
	Correlation   *float64            `json:"correlation,omitempty"` // Spearman rank vs return
}

// CheckpointResult is the full evaluation of one historical date.
type CheckpointResult struct {
	Date             time.Time                  `json:"date"`
	TickersRanked    int                        `json:"tickers_ranked"`
	Excluded         map[string]string          `json:"excluded,omitempty"` // ticker -> reason
	QuintilesDefined bool                       `json:"quintiles_defined"`
	Assignments      []QuintileAssignment       `json:"assignments,omitempty"`
	Horizons         map[string]*HorizonOutcome `json:"horizons,omitempty"` // keyed by horizon name
	Error            string                     `json:"error,omitempty"`    // set when evaluation failed
}

// Failed reports whether this checkpoint errored and was skipped.
func (c *CheckpointResult) Failed() bool {
	return c.Error != ""
}

// HorizonAggregate summarizes one horizon across all aggregated checkpoints.
type HorizonAggregate struct {
	MeanSpread      *float64 `json:"mean_spread,omitempty"`
	MeanCorrelation *float64 `json:"mean_correlation,omitempty"`
	HitRate         *float64 `json:"hit_rate,omitempty"` // fraction with Q5 mean > Q1 mean
	Checkpoints     int      `json:"checkpoints"`        // sample count behind the means
}

// CoverageStats counts how much of the requested run actually evaluated.
type CoverageStats struct {
	CheckpointsPlanned   int            `json:"checkpoints_planned"`
	CheckpointsEvaluated int            `json:"checkpoints_evaluated"`
	CheckpointsDegraded  int            `json:"checkpoints_degraded"` // evaluated, quintiles undefined
	CheckpointsFailed    int            `json:"checkpoints_failed"`
	ExclusionReasons     map[string]int `json:"exclusion_reasons,omitempty"` // reason -> ticker-checkpoint count
}

// RunStatus is the lifecycle state of a backtest run.
type RunStatus string

const (
	RunConfigured RunStatus = "configured"
	RunRunning    RunStatus = "running"
	RunCompleted  RunStatus = "completed"
	RunFailed     RunStatus = "failed"
)

// BacktestParams echoes the configuration a report was produced with.
type BacktestParams struct {
	Universe   []string  `json:"universe"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Frequency  string    `json:"frequency"`
	Horizons   []Horizon `json:"horizons"`
	MinTickers int       `json:"min_tickers"`
	WarmupDays int       `json:"warmup_days"`
	Workers    int       `json:"workers"`
}

// BacktestReport is the product of one backtest run.
type BacktestReport struct {
	RunID        string                       `json:"run_id"`
	Status       RunStatus                    `json:"status"`
	StrategyHash string                       `json:"strategy_hash,omitempty"`
	Params       BacktestParams               `json:"params"`
	StartedAt    time.Time                    `json:"started_at"`
	FinishedAt   time.Time                    `json:"finished_at"`
	Checkpoints  []CheckpointResult           `json:"checkpoints"`
	Aggregates   map[string]*HorizonAggregate `json:"aggregates"` // keyed by horizon name
	Coverage     CoverageStats                `json:"coverage"`
}
