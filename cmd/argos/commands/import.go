package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/wonny/argos/internal/marketdata"
	"github.com/wonny/argos/pkg/database"
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import price history from CSV",
	Long: `Loads daily bars (and optionally ticker metadata) from CSV files
into the configured data store.

The bars file needs ticker, date and close columns; open, high, low,
adj_close and volume are read when present. The stocks file needs a
ticker column; name and sector are read when present.

Flags:
  --bars    daily bars CSV (required)
  --stocks  ticker metadata CSV

Example:
  go run ./cmd/argos import --bars data/bars.csv
  go run ./cmd/argos import --bars data/bars.csv --stocks data/stocks.csv`,
	RunE: runImport,
}

var (
	// Flags
	importBars   string
	importStocks string
)

func init() {
	rootCmd.AddCommand(importCmd)

	// Flags
	importCmd.Flags().StringVar(&importBars, "bars", "", "daily bars CSV (required)")
	importCmd.Flags().StringVar(&importStocks, "stocks", "", "ticker metadata CSV")

	importCmd.MarkFlagRequired("bars")
}

func runImport(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Argos Data Import ===")
	ctx := cmd.Context()

	// 1. Load config
	rt, err := initRuntime()
	if err != nil {
		return err
	}

	// 2. Read and validate the CSV files before touching any store
	bars, err := marketdata.ReadBarsCSV(importBars)
	if err != nil {
		return fmt.Errorf("read bars: %w", err)
	}

	var stocks []marketdata.StockRow
	if importStocks != "" {
		stocks, err = marketdata.ReadStocksCSV(importStocks)
		if err != nil {
			return fmt.Errorf("read stocks: %w", err)
		}
	}

	tickers := make([]string, 0, len(bars))
	totalBars := 0
	for ticker, series := range bars {
		tickers = append(tickers, ticker)
		totalBars += len(series)
	}
	sort.Strings(tickers)

	fmt.Printf("\n📄 Bars: %d tickers, %d rows\n", len(tickers), totalBars)
	if importStocks != "" {
		fmt.Printf("📄 Stocks: %d rows\n", len(stocks))
	}
	fmt.Printf("💾 Target: %s\n\n", rt.cfg.Data.Source)

	// 3. Write into the configured store
	switch rt.cfg.Data.Source {
	case "postgres":
		db, err := database.New(rt.cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()

		repo := marketdata.NewPostgresRepository(db.Pool, rt.log.Zerolog())
		for i, ticker := range tickers {
			if err := repo.SaveBatch(ctx, bars[ticker]); err != nil {
				return fmt.Errorf("import %s: %w", ticker, err)
			}
			fmt.Printf("   %-8s %5d bars [%d/%d]\n", ticker, len(bars[ticker]), i+1, len(tickers))
		}
		for _, stock := range stocks {
			if err := repo.SaveStock(ctx, stock.Ticker, stock.Name, stock.Sector); err != nil {
				return fmt.Errorf("import stock %s: %w", stock.Ticker, err)
			}
		}

	case "parquet":
		store := marketdata.NewParquetStore(rt.cfg.Data.ParquetDir)
		for i, ticker := range tickers {
			if err := store.WriteSeries(ctx, bars[ticker]); err != nil {
				return fmt.Errorf("import %s: %w", ticker, err)
			}
			fmt.Printf("   %-8s %5d bars [%d/%d]\n", ticker, len(bars[ticker]), i+1, len(tickers))
		}
		if importStocks != "" {
			PrintWarning("Parquet store carries no ticker metadata; --stocks ignored")
		}

	default:
		return fmt.Errorf("unknown data source %q", rt.cfg.Data.Source)
	}

	fmt.Println()
	PrintSuccess(fmt.Sprintf("Imported %d bars across %d tickers", totalBars, len(tickers)))
	if len(stocks) > 0 && rt.cfg.Data.Source == "postgres" {
		PrintSuccess(fmt.Sprintf("Imported %d stock records", len(stocks)))
	}
	return nil
}
