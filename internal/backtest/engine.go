package backtest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wonny/argos/internal/contracts"
	"github.com/wonny/argos/internal/indicators"
)

// Defaults for optional config fields.
const (
	DefaultMinTickers = 5
	DefaultWarmupDays = 254 // enough bars for the 12-1 momentum window
)

// Config holds one run's parameters. Universe, Start, End and Horizons are
// required; the rest default sensibly.
type Config struct {
	Universe     []string
	Start        time.Time
	End          time.Time
	Frequency    Frequency
	Horizons     []contracts.Horizon
	MinTickers   int
	WarmupDays   int
	Tolerance    int // calendar days, forward-return date resolution
	Workers      int
	StrategyHash string
}

func (c *Config) applyDefaults() {
	if c.Frequency == "" {
		c.Frequency = Monthly
	}
	if c.MinTickers <= 0 {
		c.MinTickers = DefaultMinTickers
	}
	if c.WarmupDays <= 0 {
		c.WarmupDays = DefaultWarmupDays
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
}

func (c *Config) validate() error {
	if len(c.Universe) == 0 {
		return errors.New("universe is empty")
	}
	if c.Start.IsZero() || c.End.IsZero() {
		return errors.New("start and end dates are required")
	}
	if c.End.Before(c.Start) {
		return fmt.Errorf("end date %s before start date %s",
			c.End.Format("2006-01-02"), c.Start.Format("2006-01-02"))
	}
	if _, err := ParseFrequency(string(c.Frequency)); err != nil {
		return err
	}
	if len(c.Horizons) == 0 {
		return errors.New("no horizons configured")
	}
	for _, h := range c.Horizons {
		if h.Name == "" || h.Days <= 0 {
			return fmt.Errorf("invalid horizon %+v", h)
		}
	}
	return nil
}

// Engine runs point-in-time backtests of the cross-sectional scoring. Each
// checkpoint reconstructs exactly what a live run on that date would have
// seen, ranks it, and measures what happened afterwards.
type Engine struct {
	prices  contracts.PriceReader
	sectors contracts.SectorLookup
	builder *indicators.Builder
	ranker  *Ranker
	log     zerolog.Logger
}

// NewEngine wires an Engine. sectors may be nil when no sector data
// exists; the sector-relative field then stays absent everywhere.
func NewEngine(
	prices contracts.PriceReader,
	sectors contracts.SectorLookup,
	builder *indicators.Builder,
	ranker *Ranker,
	log zerolog.Logger,
) *Engine {
	return &Engine{
		prices:  prices,
		sectors: sectors,
		builder: builder,
		ranker:  ranker,
		log:     log.With().Str("component", "backtest").Logger(),
	}
}

// Run executes a backtest. Configuration errors fail before any
// computation: the returned report then carries RunFailed and the error
// explains. Per-checkpoint evaluation errors never abort the run; they are
// recorded on the checkpoint and skipped in the aggregates.
func (e *Engine) Run(ctx context.Context, cfg Config) (*contracts.BacktestReport, error) {
	cfg.applyDefaults()

	report := &contracts.BacktestReport{
		RunID:        uuid.NewString(),
		Status:       contracts.RunConfigured,
		StrategyHash: cfg.StrategyHash,
		Params: contracts.BacktestParams{
			Universe:   cfg.Universe,
			Start:      cfg.Start,
			End:        cfg.End,
			Frequency:  string(cfg.Frequency),
			Horizons:   cfg.Horizons,
			MinTickers: cfg.MinTickers,
			WarmupDays: cfg.WarmupDays,
			Workers:    cfg.Workers,
		},
		StartedAt: time.Now(),
	}

	if err := cfg.validate(); err != nil {
		report.Status = contracts.RunFailed
		report.FinishedAt = time.Now()
		return report, fmt.Errorf("invalid backtest config: %w", err)
	}
	report.Status = contracts.RunRunning

	e.log.Info().
		Str("run_id", report.RunID).
		Time("start", cfg.Start).
		Time("end", cfg.End).
		Str("frequency", string(cfg.Frequency)).
		Int("universe", len(cfg.Universe)).
		Int("workers", cfg.Workers).
		Msg("starting backtest")

	series, err := e.loadSeries(ctx, cfg.Universe)
	if err != nil {
		report.Status = contracts.RunFailed
		report.FinishedAt = time.Now()
		return report, err
	}
	sectors := e.loadSectors(ctx, cfg.Universe)

	checkpointer := NewCheckpointer(cfg.Frequency, cfg.MinTickers, cfg.WarmupDays, e.log)
	checkpoints, planned := checkpointer.Generate(cfg.Start, cfg.End, series)

	forward := NewForwardMeasurer(cfg.Tolerance, e.log)

	results := make([]contracts.CheckpointResult, len(checkpoints))
	if err := e.evaluateAll(ctx, cfg, checkpoints, series, sectors, forward, results); err != nil {
		report.Checkpoints = results
		report.Status = contracts.RunFailed
		report.FinishedAt = time.Now()
		return report, err
	}

	report.Checkpoints = results
	report.Aggregates, report.Coverage = aggregate(results, cfg.Horizons)
	report.Coverage.CheckpointsPlanned = planned
	report.Status = contracts.RunCompleted
	report.FinishedAt = time.Now()

	e.log.Info().
		Str("run_id", report.RunID).
		Int("checkpoints", len(checkpoints)).
		Int("failed", report.Coverage.CheckpointsFailed).
		Dur("elapsed", report.FinishedAt.Sub(report.StartedAt)).
		Msg("backtest completed")

	return report, nil
}

// loadSeries fetches the universe's price history once per run. A missing
// ticker is tolerated (it becomes a per-checkpoint exclusion); any other
// reader error aborts the run.
func (e *Engine) loadSeries(ctx context.Context, universe []string) (map[string]contracts.PriceSeries, error) {
	series := make(map[string]contracts.PriceSeries, len(universe))
	for _, ticker := range universe {
		s, err := e.prices.GetSeries(ctx, ticker)
		if err != nil {
			if errors.Is(err, contracts.ErrTickerNotFound) {
				e.log.Warn().Str("ticker", ticker).Msg("no price data for ticker")
				series[ticker] = nil
				continue
			}
			return nil, fmt.Errorf("loading prices for %s: %w", ticker, err)
		}
		series[ticker] = s
	}
	return series, nil
}

// loadSectors fetches sector identifiers, tolerating lookup failures:
// sector membership only enables the sector-relative field.
func (e *Engine) loadSectors(ctx context.Context, universe []string) map[string]string {
	sectors := make(map[string]string, len(universe))
	if e.sectors == nil {
		return sectors
	}
	for _, ticker := range universe {
		sector, err := e.sectors.GetSector(ctx, ticker)
		if err != nil || sector == "" {
			e.log.Debug().Str("ticker", ticker).Msg("no sector for ticker")
			continue
		}
		sectors[ticker] = sector
	}
	return sectors
}

// evaluateAll fills results[i] for every checkpoint, fanning out to a
// bounded worker pool when configured. Slot writes keep the output order
// identical to the checkpoint order regardless of worker scheduling.
func (e *Engine) evaluateAll(
	ctx context.Context,
	cfg Config,
	checkpoints []time.Time,
	series map[string]contracts.PriceSeries,
	sectors map[string]string,
	forward *ForwardMeasurer,
	results []contracts.CheckpointResult,
) error {
	workers := cfg.Workers
	if workers > len(checkpoints) && len(checkpoints) > 0 {
		workers = len(checkpoints)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = e.evaluateCheckpoint(cfg, checkpoints[i], series, sectors, forward)
			}
		}()
	}

	var runErr error
feed:
	for i := range checkpoints {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	return runErr
}

// evaluateCheckpoint reconstructs one date: snapshots, ranking, forward
// returns, per-horizon statistics. A panic in evaluation is converted into
// a recorded checkpoint failure so one bad date cannot take down a run.
func (e *Engine) evaluateCheckpoint(
	cfg Config,
	date time.Time,
	series map[string]contracts.PriceSeries,
	sectors map[string]string,
	forward *ForwardMeasurer,
) (result contracts.CheckpointResult) {
	result.Date = date
	defer func() {
		if r := recover(); r != nil {
			result.Error = fmt.Sprintf("checkpoint evaluation panicked: %v", r)
			e.log.Error().Time("checkpoint", date).Str("panic", fmt.Sprint(r)).Msg("checkpoint failed")
		}
	}()

	snapshots := make(map[string]*contracts.IndicatorSnapshot, len(cfg.Universe))
	for _, ticker := range cfg.Universe {
		snapshots[ticker] = e.builder.Build(ticker, series[ticker], date)
	}

	ranking := e.ranker.Rank(snapshots, sectors)
	result.Excluded = ranking.Excluded
	result.Assignments = ranking.Assignments
	result.TickersRanked = len(ranking.Assignments)
	result.QuintilesDefined = ranking.QuintilesDefined

	if len(ranking.Assignments) == 0 {
		result.Error = "no eligible tickers at checkpoint"
		return result
	}

	result.Horizons = make(map[string]*contracts.HorizonOutcome, len(cfg.Horizons))
	for _, h := range cfg.Horizons {
		result.Horizons[h.Name] = e.measureHorizon(ranking, series, date, h, forward)
	}
	return result
}

// measureHorizon computes one horizon's outcome at one checkpoint.
func (e *Engine) measureHorizon(
	ranking *Ranking,
	series map[string]contracts.PriceSeries,
	date time.Time,
	h contracts.Horizon,
	forward *ForwardMeasurer,
) *contracts.HorizonOutcome {
	outcome := &contracts.HorizonOutcome{
		Returns: make(map[string]*float64, len(ranking.Assignments)),
	}

	var scores, returns []float64
	byQuintile := make(map[int][]float64)
	for _, a := range ranking.Assignments {
		ret := forward.Measure(series[a.Ticker], date, h)
		outcome.Returns[a.Ticker] = ret
		if ret == nil {
			continue
		}
		outcome.Covered++
		scores = append(scores, a.Score)
		returns = append(returns, *ret)
		if a.Quintile > 0 {
			byQuintile[a.Quintile] = append(byQuintile[a.Quintile], *ret)
		}
	}

	if ranking.QuintilesDefined {
		outcome.QuintileMeans = make(map[int]float64, contracts.QuintileCount)
		for q, rets := range byQuintile {
			if m, ok := mean(rets); ok {
				outcome.QuintileMeans[q] = m
			}
		}
		top, hasTop := outcome.QuintileMeans[contracts.QuintileCount]
		bottom, hasBottom := outcome.QuintileMeans[1]
		if hasTop && hasBottom {
			outcome.Spread = contracts.Ptr(top - bottom)
		}
	}

	if corr, ok := Spearman(scores, returns); ok {
		outcome.Correlation = contracts.Ptr(corr)
	}
	return outcome
}

// aggregate folds per-checkpoint results into per-horizon summaries and
// coverage counts. Failed checkpoints and checkpoints without defined
// quintiles stay in the report but contribute nothing to the means.
func aggregate(results []contracts.CheckpointResult, horizons []contracts.Horizon) (map[string]*contracts.HorizonAggregate, contracts.CoverageStats) {
	coverage := contracts.CoverageStats{
		ExclusionReasons: make(map[string]int),
	}
	spreads := make(map[string][]float64, len(horizons))
	correlations := make(map[string][]float64, len(horizons))
	hits := make(map[string]int, len(horizons))

	for i := range results {
		r := &results[i]
		if r.Failed() {
			coverage.CheckpointsFailed++
			continue
		}
		coverage.CheckpointsEvaluated++
		for _, reason := range r.Excluded {
			coverage.ExclusionReasons[reason]++
		}
		if !r.QuintilesDefined {
			coverage.CheckpointsDegraded++
			continue
		}
		for name, outcome := range r.Horizons {
			if outcome.Spread != nil {
				spreads[name] = append(spreads[name], *outcome.Spread)
				if *outcome.Spread > 0 {
					hits[name]++
				}
			}
			if outcome.Correlation != nil {
				correlations[name] = append(correlations[name], *outcome.Correlation)
			}
		}
	}

	aggregates := make(map[string]*contracts.HorizonAggregate, len(horizons))
	for _, h := range horizons {
		agg := &contracts.HorizonAggregate{Checkpoints: len(spreads[h.Name])}
		if m, ok := mean(spreads[h.Name]); ok {
			agg.MeanSpread = contracts.Ptr(m)
			agg.HitRate = contracts.Ptr(float64(hits[h.Name]) / float64(len(spreads[h.Name])))
		}
		if m, ok := mean(correlations[h.Name]); ok {
			agg.MeanCorrelation = contracts.Ptr(m)
		}
		aggregates[h.Name] = agg
	}
	return aggregates, coverage
}
