package marketdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/argos/internal/contracts"
)

// StockRow is one line of a listing CSV: ticker with its display name
// and sector classification.
type StockRow struct {
	Ticker string
	Name   string
	Sector string
}

// ReadBarsCSV parses a daily-bar export into per-ticker series, each
// sorted and validated. Expected header (case-insensitive): ticker, date,
// open, high, low, close, adj_close, volume. Only ticker, date and close
// are required; adj_close defaults to close, the other fields to zero.
func ReadBarsCSV(path string) (map[string]contracts.PriceSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bars file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := columnIndex(header)
	for _, required := range []string{"ticker", "date", "close"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("bars file missing column %q", required)
		}
	}

	series := make(map[string]contracts.PriceSeries)
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line+1, err)
		}
		line++

		ticker := strings.ToUpper(strings.TrimSpace(record[col["ticker"]]))
		if ticker == "" {
			return nil, fmt.Errorf("line %d: empty ticker", line)
		}
		date, err := parseBarDate(record[col["date"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		closePrice, err := strconv.ParseFloat(record[col["close"]], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: close: %w", line, err)
		}

		var parseErr error
		floatField := func(name string, fallback float64) float64 {
			idx, ok := col[name]
			if !ok || record[idx] == "" || parseErr != nil {
				return fallback
			}
			v, err := strconv.ParseFloat(record[idx], 64)
			if err != nil {
				parseErr = fmt.Errorf("%s: %w", name, err)
			}
			return v
		}

		p := contracts.PricePoint{
			Ticker:   ticker,
			Date:     date,
			Close:    closePrice,
			AdjClose: floatField("adj_close", closePrice),
			Open:     floatField("open", 0),
			High:     floatField("high", 0),
			Low:      floatField("low", 0),
		}
		if idx, ok := col["volume"]; ok && record[idx] != "" && parseErr == nil {
			p.Volume, parseErr = strconv.ParseInt(record[idx], 10, 64)
		}
		if parseErr != nil {
			return nil, fmt.Errorf("line %d: %w", line, parseErr)
		}

		series[ticker] = append(series[ticker], p)
	}

	for ticker, s := range series {
		sort.Slice(s, func(i, j int) bool { return s[i].Date.Before(s[j].Date) })
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", ticker, err)
		}
	}
	return series, nil
}

// ReadStocksCSV parses a listing export. Expected header
// (case-insensitive): ticker, name, sector; name and sector may be empty.
func ReadStocksCSV(path string) ([]StockRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stocks file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := columnIndex(header)
	if _, ok := col["ticker"]; !ok {
		return nil, fmt.Errorf("stocks file missing column %q", "ticker")
	}

	var rows []StockRow
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line+1, err)
		}
		line++

		row := StockRow{Ticker: strings.ToUpper(strings.TrimSpace(record[col["ticker"]]))}
		if row.Ticker == "" {
			return nil, fmt.Errorf("line %d: empty ticker", line)
		}
		if idx, ok := col["name"]; ok {
			row.Name = strings.TrimSpace(record[idx])
		}
		if idx, ok := col["sector"]; ok {
			row.Sector = strings.TrimSpace(record[idx])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func columnIndex(header []string) map[string]int {
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return col
}

func parseBarDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
