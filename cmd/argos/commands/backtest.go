package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/argos/internal/backtest"
	"github.com/wonny/argos/internal/contracts"
	"github.com/wonny/argos/internal/strategyconfig"
)

// backtestCmd represents the backtest command
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Point-in-time backtesting",
	Long: `Replays the scoring strategy over history and measures it against
realized forward returns.

A backtest validates:
- Quintile spread (Q5 mean return - Q1 mean return) per horizon
- Rank correlation between score and forward return
- Hit rate (fraction of checkpoints where Q5 beat Q1)
- Coverage (how many checkpoints actually evaluated)

Example:
  go run ./cmd/argos backtest run --from 2023-01-01 --to 2024-06-30
  go run ./cmd/argos backtest run --from 2023-01-01 --frequency weekly --horizons 1w,1m`,
}

var (
	backtestRunCmd = &cobra.Command{
		Use:   "run",
		Short: "Run a backtest",
		Long: `Runs a backtest over the given period.

Flags:
  --from       start date (YYYY-MM-DD, required)
  --to         end date (YYYY-MM-DD, default: today)
  --frequency  checkpoint frequency: weekly|monthly|quarterly (default: strategy)
  --horizons   forward-return horizons, comma separated (default: strategy)
  --workers    parallel checkpoint workers (default: strategy)
  --source     price source override: postgres|parquet (default: DATA_SOURCE)
  --output     write the full JSON report to this file

Example:
  go run ./cmd/argos backtest run --from 2023-01-01 --to 2023-12-31
  go run ./cmd/argos backtest run --from 2023-01-01 --horizons 1m,3m --workers 4
  go run ./cmd/argos backtest run --from 2023-01-01 --source parquet --output report.json`,
		RunE: runBacktest,
	}

	// Flags
	backtestFrom      string
	backtestTo        string
	backtestFrequency string
	backtestHorizons  []string
	backtestWorkers   int
	backtestSource    string
	backtestOutput    string
)

func init() {
	rootCmd.AddCommand(backtestCmd)
	backtestCmd.AddCommand(backtestRunCmd)

	// Flags
	backtestRunCmd.Flags().StringVar(&backtestFrom, "from", "", "start date (YYYY-MM-DD, required)")
	backtestRunCmd.Flags().StringVar(&backtestTo, "to", "", "end date (YYYY-MM-DD, default: today)")
	backtestRunCmd.Flags().StringVar(&backtestFrequency, "frequency", "", "checkpoint frequency (weekly|monthly|quarterly)")
	backtestRunCmd.Flags().StringSliceVar(&backtestHorizons, "horizons", nil, "forward-return horizons (1w,1m,3m,6m,12m)")
	backtestRunCmd.Flags().IntVar(&backtestWorkers, "workers", 0, "parallel checkpoint workers")
	backtestRunCmd.Flags().StringVar(&backtestSource, "source", "", "price source override (postgres|parquet)")
	backtestRunCmd.Flags().StringVar(&backtestOutput, "output", "", "write JSON report to file")

	backtestRunCmd.MarkFlagRequired("from")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Argos Backtest Engine ===")

	// Parse dates
	startDate, err := time.Parse("2006-01-02", backtestFrom)
	if err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}

	var endDate time.Time
	if backtestTo != "" {
		endDate, err = time.Parse("2006-01-02", backtestTo)
		if err != nil {
			return fmt.Errorf("invalid end date: %w", err)
		}
	} else {
		endDate = time.Now().UTC().Truncate(24 * time.Hour)
	}

	// Initialize dependencies
	engine, strat, hash, st, err := initBacktestEngine()
	if err != nil {
		return fmt.Errorf("init backtest engine: %w", err)
	}
	defer st.Close()

	// Strategy defaults, flag overrides
	frequency := strat.Backtest.Frequency
	if backtestFrequency != "" {
		frequency = backtestFrequency
	}
	if frequency == "" {
		frequency = string(backtest.Monthly)
	}
	horizonNames := strat.Backtest.Horizons
	if len(backtestHorizons) > 0 {
		horizonNames = backtestHorizons
	}
	horizons, err := contracts.ParseHorizons(horizonNames)
	if err != nil {
		return fmt.Errorf("invalid horizons: %w", err)
	}
	workers := strat.Backtest.Workers
	if backtestWorkers > 0 {
		workers = backtestWorkers
	}

	backtestConfig := backtest.Config{
		Universe:     strat.Universe.Tickers,
		Start:        startDate,
		End:          endDate,
		Frequency:    backtest.Frequency(frequency),
		Horizons:     horizons,
		MinTickers:   strat.Backtest.MinTickers,
		WarmupDays:   strat.Backtest.WarmupDays,
		Tolerance:    strat.Backtest.ToleranceDays,
		Workers:      workers,
		StrategyHash: hash,
	}

	fmt.Printf("\n📅 Period: %s ~ %s\n", startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
	fmt.Printf("🎯 Universe: %d tickers\n", len(backtestConfig.Universe))
	fmt.Printf("🔄 Frequency: %s\n", frequency)
	fmt.Printf("📐 Horizons: %s\n", strings.Join(horizonNames, ", "))
	fmt.Printf("🧵 Workers: %d\n\n", workers)

	fmt.Println("🚀 Starting backtest...")
	fmt.Println()

	// Run backtest
	report, err := engine.Run(cmd.Context(), backtestConfig)
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	// Print results
	printBacktestReport(report)

	if backtestOutput != "" {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		if err := os.WriteFile(backtestOutput, data, 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		PrintSuccess(fmt.Sprintf("Report written to %s", backtestOutput))
	}

	return nil
}

func initBacktestEngine() (*backtest.Engine, *strategyconfig.Config, string, *stores, error) {
	// 1. Load config
	rt, err := initRuntime()
	if err != nil {
		return nil, nil, "", nil, err
	}
	if backtestSource != "" {
		rt.cfg.Data.Source = backtestSource
	}

	// 2. Load strategy
	strat, hash, err := loadStrategy(rt, strategyFile)
	if err != nil {
		return nil, nil, "", nil, err
	}

	// 3. Open data stores
	st, err := openStores(rt)
	if err != nil {
		return nil, nil, "", nil, err
	}

	// 4. Build scoring stack
	builder, ranker := buildScoringStack(strat, rt.log)

	// 5. Create backtest engine
	engine := backtest.NewEngine(st.prices, st.sectors, builder, ranker, rt.log.Zerolog())

	return engine, strat, hash, st, nil
}

func printBacktestReport(report *contracts.BacktestReport) {
	fmt.Println("\n✅ Backtest Completed")
	fmt.Println("=" + strings.Repeat("=", 60))
	fmt.Println()

	// Summary
	fmt.Println("📊 Summary")
	fmt.Printf("Run ID:      %s\n", report.RunID)
	if report.StrategyHash != "" {
		fmt.Printf("Strategy:    %s\n", shortHash(report.StrategyHash))
	}
	fmt.Printf("Period:      %s ~ %s (%s)\n",
		report.Params.Start.Format("2006-01-02"),
		report.Params.End.Format("2006-01-02"),
		report.Params.Frequency)
	fmt.Printf("Checkpoints: %d planned, %d evaluated, %d degraded, %d failed\n",
		report.Coverage.CheckpointsPlanned,
		report.Coverage.CheckpointsEvaluated,
		report.Coverage.CheckpointsDegraded,
		report.Coverage.CheckpointsFailed)
	fmt.Printf("Duration:    %.2f seconds\n", report.FinishedAt.Sub(report.StartedAt).Seconds())
	fmt.Println()

	// Predictive power per horizon
	fmt.Println("📈 Predictive Power")
	for _, h := range report.Params.Horizons {
		agg, ok := report.Aggregates[h.Name]
		if !ok {
			continue
		}
		fmt.Printf("%s (n=%d):\n", h.Name, agg.Checkpoints)

		fmt.Printf("  Mean Spread (Q5-Q1): %s", formatPct(agg.MeanSpread))
		if agg.MeanSpread != nil {
			switch {
			case *agg.MeanSpread > 2.0:
				fmt.Print(" 🌟 (Strong)")
			case *agg.MeanSpread > 0:
				fmt.Print(" ✅ (Positive)")
			default:
				fmt.Print(" ❌ (Inverted)")
			}
		}
		fmt.Println()

		fmt.Printf("  Mean Correlation:    %s\n", formatCorr(agg.MeanCorrelation))

		fmt.Printf("  Hit Rate:            %s", formatRate(agg.HitRate))
		if agg.HitRate != nil {
			switch {
			case *agg.HitRate > 0.7:
				fmt.Print(" 🌟 (Consistent)")
			case *agg.HitRate >= 0.5:
				fmt.Print(" ✅ (Fair)")
			default:
				fmt.Print(" ❌ (Unreliable)")
			}
		}
		fmt.Println()
	}
	fmt.Println()

	// Exclusions
	if len(report.Coverage.ExclusionReasons) > 0 {
		fmt.Println("🚫 Exclusions (ticker-checkpoints)")
		for _, reason := range []string{backtest.ExcludeNoHistory, backtest.ExcludeStale, backtest.ExcludeUnscored} {
			if count, ok := report.Coverage.ExclusionReasons[reason]; ok {
				fmt.Printf("%-29s %d\n", reason+":", count)
			}
		}
		fmt.Println()
	}

	// Verdict
	fmt.Println("💡 Verdict")
	positive, total := 0, 0
	for _, agg := range report.Aggregates {
		if agg.MeanSpread == nil {
			continue
		}
		total++
		if *agg.MeanSpread > 0 {
			positive++
		}
	}
	switch {
	case total == 0:
		fmt.Println("⚠️  No horizon produced a defined spread - widen the period or universe")
	case positive == total:
		fmt.Println("✅ Ranking shows predictive power on every measured horizon")
	case positive > 0:
		fmt.Printf("⚠️  Mixed results - %d of %d horizons show a positive spread\n", positive, total)
	default:
		fmt.Println("❌ Ranking is inverted - top quintile underperforms the bottom")
	}
	fmt.Println()
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
