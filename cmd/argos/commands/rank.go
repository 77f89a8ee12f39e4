package commands

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/argos/internal/contracts"
	"github.com/wonny/argos/internal/scoring"
)

// rankCmd represents the rank command
var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank the universe cross-sectionally",
	Long: `Scores every ticker in the strategy universe as of a date and prints
the cross-sectional ranking, best score first.

Flags:
  --date  as-of date (YYYY-MM-DD, default: today)
  --top   show only the top N tickers (default: all)

Example:
  go run ./cmd/argos rank
  go run ./cmd/argos rank --date 2024-06-28 --top 10`,
	RunE: runRank,
}

var (
	// Flags
	rankDate string
	rankTop  int
)

func init() {
	rootCmd.AddCommand(rankCmd)

	// Flags
	rankCmd.Flags().StringVar(&rankDate, "date", "", "as-of date (YYYY-MM-DD, default: today)")
	rankCmd.Flags().IntVar(&rankTop, "top", 0, "show only the top N tickers")
}

func runRank(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Argos Cross-Sectional Ranking ===")
	ctx := cmd.Context()

	// Parse date
	asOf := time.Now().UTC()
	if rankDate != "" {
		var err error
		asOf, err = time.Parse("2006-01-02", rankDate)
		if err != nil {
			return fmt.Errorf("invalid date: %w", err)
		}
	}

	// 1. Load config
	rt, err := initRuntime()
	if err != nil {
		return err
	}

	// 2. Load strategy
	strat, _, err := loadStrategy(rt, strategyFile)
	if err != nil {
		return err
	}

	// 3. Open data stores
	st, err := openStores(rt)
	if err != nil {
		return err
	}
	defer st.Close()

	// 4. Build scoring stack
	builder, ranker := buildScoringStack(strat, rt.log)

	fmt.Printf("\n📅 As of: %s\n", asOf.Format("2006-01-02"))
	fmt.Printf("🎯 Universe: %d tickers\n\n", len(strat.Universe.Tickers))

	// 5. Build snapshots as of the date
	snapshots := make(map[string]*contracts.IndicatorSnapshot, len(strat.Universe.Tickers))
	sectors := make(map[string]string)
	for _, ticker := range strat.Universe.Tickers {
		series, err := st.prices.GetSeries(ctx, ticker)
		if err != nil {
			if errors.Is(err, contracts.ErrTickerNotFound) {
				snapshots[ticker] = nil
				continue
			}
			return fmt.Errorf("load series for %s: %w", ticker, err)
		}
		snapshots[ticker] = builder.Build(ticker, series, asOf)

		if st.sectors != nil {
			if sector, err := st.sectors.GetSector(ctx, ticker); err == nil && sector != "" {
				sectors[ticker] = sector
			}
		}
	}

	// 6. Rank
	ranking := ranker.Rank(snapshots, sectors)

	if len(ranking.Assignments) == 0 {
		PrintWarning("No ticker was scorable on this date")
		printExclusions(ranking.Excluded)
		return nil
	}

	if !ranking.QuintilesDefined {
		PrintWarning(fmt.Sprintf("Only %d tickers eligible - quintile buckets need at least %d",
			len(ranking.Assignments), contracts.QuintileCount))
		fmt.Println()
	}

	// Assignments come back ascending; print best first.
	columns := []string{"RANK", "TICKER", "SCORE", "PCTL", "QUINTILE", "REC", "SECTOR"}
	widths := []int{4, 8, 6, 5, 8, 5, 20}
	PrintTableHeader(columns, widths)

	shown := 0
	for i := len(ranking.Assignments) - 1; i >= 0; i-- {
		if rankTop > 0 && shown >= rankTop {
			break
		}
		a := ranking.Assignments[i]
		rec := scoring.Recommend(a.Score, true, strat.Scoring.Thresholds)

		quintile := "-"
		if a.Quintile > 0 {
			quintile = fmt.Sprintf("Q%d", a.Quintile)
		}
		PrintTableRow([]string{
			fmt.Sprintf("%d", len(ranking.Assignments)-i),
			a.Ticker,
			formatScore(a.Score),
			fmt.Sprintf("%.0f", a.RankPercentile),
			quintile,
			string(rec),
			sectors[a.Ticker],
		}, widths)
		shown++
	}
	fmt.Println()

	printExclusions(ranking.Excluded)
	return nil
}

func printExclusions(excluded map[string]string) {
	if len(excluded) == 0 {
		return
	}
	tickers := make([]string, 0, len(excluded))
	for ticker := range excluded {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	fmt.Printf("🚫 Excluded (%d)\n", len(tickers))
	for _, ticker := range tickers {
		fmt.Printf("   %-8s %s\n", ticker, excluded[ticker])
	}
	fmt.Println()
}
