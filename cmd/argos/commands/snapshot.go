package commands

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/argos/internal/contracts"
	"github.com/wonny/argos/internal/snapshot"
	"github.com/wonny/argos/internal/strategyconfig"
)

// snapshotCmd represents the snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Capture and inspect daily indicator snapshots",
	Long: `Manages the point-in-time indicator snapshots the scoring pipeline
consumes. One record per calendar day at most; history is never replaced
unless --overwrite says so.

Example:
  go run ./cmd/argos snapshot capture
  go run ./cmd/argos snapshot capture --date 2024-06-28 --overwrite
  go run ./cmd/argos snapshot show --as-of 2024-07-15
  go run ./cmd/argos snapshot list`,
}

var (
	snapshotCaptureCmd = &cobra.Command{
		Use:   "capture",
		Short: "Capture a snapshot of the universe",
		Long: `Builds indicator snapshots for every ticker in the universe and
stores them under the given date.

Flags:
  --date       snapshot date (YYYY-MM-DD, default: today)
  --tickers    tickers to capture, comma separated (default: strategy universe)
  --overwrite  replace an existing record for the date

Example:
  go run ./cmd/argos snapshot capture
  go run ./cmd/argos snapshot capture --date 2024-06-28 --tickers AAPL,MSFT`,
		RunE: runSnapshotCapture,
	}

	snapshotShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Show a stored snapshot",
		Long: `Prints one stored snapshot record.

Flags:
  --date   exact record date (YYYY-MM-DD)
  --as-of  newest record dated on or before this date (default: today)

Example:
  go run ./cmd/argos snapshot show
  go run ./cmd/argos snapshot show --date 2024-06-28`,
		RunE: runSnapshotShow,
	}

	snapshotListCmd = &cobra.Command{
		Use:   "list",
		Short: "List stored snapshot dates",
		RunE:  runSnapshotList,
	}

	// Flags
	snapshotDate      string
	snapshotTickers   []string
	snapshotOverwrite bool
	snapshotAsOf      string
)

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.AddCommand(snapshotCaptureCmd)
	snapshotCmd.AddCommand(snapshotShowCmd)
	snapshotCmd.AddCommand(snapshotListCmd)

	// Flags
	snapshotCaptureCmd.Flags().StringVar(&snapshotDate, "date", "", "snapshot date (YYYY-MM-DD, default: today)")
	snapshotCaptureCmd.Flags().StringSliceVar(&snapshotTickers, "tickers", nil, "tickers to capture (default: strategy universe)")
	snapshotCaptureCmd.Flags().BoolVar(&snapshotOverwrite, "overwrite", false, "replace an existing record")

	snapshotShowCmd.Flags().StringVar(&snapshotDate, "date", "", "exact record date (YYYY-MM-DD)")
	snapshotShowCmd.Flags().StringVar(&snapshotAsOf, "as-of", "", "newest record on or before this date")
}

func runSnapshotCapture(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Argos Snapshot Capture ===")
	ctx := cmd.Context()

	date := time.Now().UTC()
	if snapshotDate != "" {
		var err error
		date, err = time.Parse("2006-01-02", snapshotDate)
		if err != nil {
			return fmt.Errorf("invalid date: %w", err)
		}
	}

	manager, strat, st, err := initSnapshotManager()
	if err != nil {
		return err
	}
	defer st.Close()

	tickers := strat.Universe.Tickers
	if len(snapshotTickers) > 0 {
		tickers = snapshotTickers
	}

	fmt.Printf("\n📸 Capturing %s (%d tickers)...\n\n", date.Format("2006-01-02"), len(tickers))

	rec, err := manager.Capture(ctx, tickers, date, snapshotOverwrite)
	if err != nil {
		if errors.Is(err, contracts.ErrSnapshotExists) {
			return fmt.Errorf("snapshot already exists for %s (use --overwrite to replace)", date.Format("2006-01-02"))
		}
		return fmt.Errorf("capture snapshot: %w", err)
	}

	stale := countStale(rec)
	PrintSuccess(fmt.Sprintf("Snapshot captured: %s (%d tickers, %d stale)",
		rec.Date.Format("2006-01-02"), len(rec.Payload), stale))
	if stale > 0 {
		PrintWarning(fmt.Sprintf("%d tickers have stale price history and will be excluded from rankings", stale))
	}
	return nil
}

func runSnapshotShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if snapshotDate != "" && snapshotAsOf != "" {
		return errors.New("--date and --as-of are mutually exclusive")
	}

	_, _, st, err := initSnapshotManager()
	if err != nil {
		return err
	}
	defer st.Close()

	var rec *snapshot.Record
	switch {
	case snapshotDate != "":
		date, err := time.Parse("2006-01-02", snapshotDate)
		if err != nil {
			return fmt.Errorf("invalid date: %w", err)
		}
		rec, err = st.snaps.Load(ctx, date)
		if err != nil {
			if errors.Is(err, contracts.ErrSnapshotNotFound) {
				return fmt.Errorf("no snapshot for %s", date.Format("2006-01-02"))
			}
			return err
		}
	default:
		asOf := time.Now().UTC()
		if snapshotAsOf != "" {
			asOf, err = time.Parse("2006-01-02", snapshotAsOf)
			if err != nil {
				return fmt.Errorf("invalid as-of date: %w", err)
			}
		}
		rec, err = st.snaps.LoadAsOf(ctx, asOf)
		if err != nil {
			if errors.Is(err, contracts.ErrSnapshotNotFound) {
				return fmt.Errorf("no snapshot at or before %s", asOf.Format("2006-01-02"))
			}
			return err
		}
	}

	PrintDoubleSeparator()
	fmt.Printf("📸 Snapshot %s\n", rec.Date.Format("2006-01-02"))
	PrintSeparator()
	PrintKeyValue("Saved at", rec.SavedAt.Format(time.RFC3339), 10)
	PrintKeyValue("Schema", fmt.Sprintf("v%d", rec.SchemaVersion), 10)
	PrintKeyValue("Tickers", fmt.Sprintf("%d", len(rec.Payload)), 10)
	PrintKeyValue("Stale", fmt.Sprintf("%d", countStale(rec)), 10)
	fmt.Println()

	tickers := make([]string, 0, len(rec.Payload))
	for ticker := range rec.Payload {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	columns := []string{"TICKER", "LAST BAR", "MOM 12-1", "RSI 14", "REL VOL", "STALE"}
	widths := []int{8, 10, 9, 7, 8, 5}
	PrintTableHeader(columns, widths)
	for _, ticker := range tickers {
		snap := rec.Payload[ticker]
		if snap == nil {
			continue
		}
		stale := ""
		if snap.Stale {
			stale = "yes"
		}
		PrintTableRow([]string{
			ticker,
			snap.LastPriceDate.Format("2006-01-02"),
			formatPct(snap.Momentum12_1),
			formatFloat2(snap.RSI14),
			formatFloat2(snap.RelativeVolume),
			stale,
		}, widths)
	}
	fmt.Println()
	return nil
}

func runSnapshotList(cmd *cobra.Command, args []string) error {
	_, _, st, err := initSnapshotManager()
	if err != nil {
		return err
	}
	defer st.Close()

	dates, err := st.snaps.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}
	if len(dates) == 0 {
		PrintInfo("No snapshots stored yet")
		return nil
	}

	fmt.Printf("📅 %d snapshots\n", len(dates))
	PrintSeparator()
	for _, date := range dates {
		fmt.Printf("   %s\n", date.Format("2006-01-02"))
	}
	return nil
}

func initSnapshotManager() (*snapshot.Manager, *strategyconfig.Config, *stores, error) {
	// 1. Load config
	rt, err := initRuntime()
	if err != nil {
		return nil, nil, nil, err
	}

	// 2. Load strategy
	strat, _, err := loadStrategy(rt, strategyFile)
	if err != nil {
		return nil, nil, nil, err
	}

	// 3. Open data stores
	st, err := openStores(rt)
	if err != nil {
		return nil, nil, nil, err
	}

	// 4. Build indicator builder
	builder, _ := buildScoringStack(strat, rt.log)

	// 5. Create snapshot manager
	manager := snapshot.NewManager(st.snaps, st.prices, st.sectors, builder, rt.log.Zerolog())

	return manager, strat, st, nil
}

func countStale(rec *snapshot.Record) int {
	stale := 0
	for _, snap := range rec.Payload {
		if snap != nil && snap.Stale {
			stale++
		}
	}
	return stale
}

func formatFloat2(p *float64) string {
	if p == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *p)
}
