package marketdata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/wonny/argos/internal/contracts"
)

var _ contracts.PriceReader = (*ParquetStore)(nil)

// ParquetStore reads and writes daily price history as Parquet files on
// disk, one file per ticker and year:
//
//	<DataDir>/daily/<TICKER>/<YYYY>.parquet
//
// It serves offline runs and local development without a database.
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a new ParquetStore rooted at the given data directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// BarRecord is the Parquet schema for daily bar data.
type BarRecord struct {
	Ticker    string  `parquet:"ticker"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	AdjClose  float64 `parquet:"adj_close"`
	Volume    int64   `parquet:"volume"`
}

// WriteSeries writes daily bars to Parquet files grouped by ticker and
// year, merging with whatever is already on disk. Duplicate dates prefer
// the incoming bar.
func (s *ParquetStore) WriteSeries(_ context.Context, points contracts.PriceSeries) error {
	if len(points) == 0 {
		return nil
	}

	type key struct {
		ticker string
		year   int
	}
	groups := make(map[key][]BarRecord)
	for _, p := range points {
		k := key{ticker: p.Ticker, year: p.Date.Year()}
		groups[k] = append(groups[k], BarRecord{
			Ticker:    p.Ticker,
			Timestamp: p.Date.UnixMilli(),
			Open:      p.Open,
			High:      p.High,
			Low:       p.Low,
			Close:     p.Close,
			AdjClose:  p.AdjClose,
			Volume:    p.Volume,
		})
	}

	for k, records := range groups {
		path := s.barPath(k.ticker, k.year)

		// Read existing records to merge.
		existing, _ := readParquetFile[BarRecord](path)
		merged := mergeBarRecords(existing, records)

		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("writing bars for %s/%d: %w", k.ticker, k.year, err)
		}
	}
	return nil
}

// GetSeries reads the full daily history for a ticker across all its
// year files, ascending by date.
func (s *ParquetStore) GetSeries(_ context.Context, ticker string) (contracts.PriceSeries, error) {
	dir := filepath.Join(s.DataDir, "daily", strings.ToUpper(ticker))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", ticker, contracts.ErrTickerNotFound)
		}
		return nil, err
	}

	var series contracts.PriceSeries
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".parquet") {
			continue
		}
		records, err := readParquetFile[BarRecord](filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		for _, r := range records {
			series = append(series, contracts.PricePoint{
				Ticker:   r.Ticker,
				Date:     time.UnixMilli(r.Timestamp).UTC(),
				Open:     r.Open,
				High:     r.High,
				Low:      r.Low,
				Close:    r.Close,
				AdjClose: r.AdjClose,
				Volume:   r.Volume,
			})
		}
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("%s: %w", ticker, contracts.ErrTickerNotFound)
	}

	sort.Slice(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})
	return series, nil
}

// ListTickers lists all tickers that have bar data on disk.
func (s *ParquetStore) ListTickers(_ context.Context) ([]string, error) {
	dir := filepath.Join(s.DataDir, "daily")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var tickers []string
	for _, e := range entries {
		if e.IsDir() {
			tickers = append(tickers, e.Name())
		}
	}
	sort.Strings(tickers)
	return tickers, nil
}

// barPath returns the filesystem path for a ticker's year file.
func (s *ParquetStore) barPath(ticker string, year int) string {
	return filepath.Join(s.DataDir, "daily", strings.ToUpper(ticker), fmt.Sprintf("%d.parquet", year))
}

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// mergeBarRecords deduplicates bar records by (ticker, timestamp),
// preferring incoming records over existing ones. Results are sorted by
// timestamp.
func mergeBarRecords(existing, incoming []BarRecord) []BarRecord {
	type key struct {
		ticker string
		ts     int64
	}
	seen := make(map[key]BarRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[key{r.Ticker, r.Timestamp}] = r
	}
	for _, r := range incoming {
		seen[key{r.Ticker, r.Timestamp}] = r
	}

	merged := make([]BarRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})
	return merged
}
