package marketdata

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/wonny/argos/internal/contracts"
)

var _ contracts.PriceReader = (*MemoryStore)(nil)
var _ contracts.SectorLookup = (*MemoryStore)(nil)

// MemoryStore holds price history and sector metadata in memory. It backs
// tests and small embedded runs; the backtest engine reads it from many
// workers at once, so access is guarded.
type MemoryStore struct {
	mu      sync.RWMutex
	series  map[string]contracts.PriceSeries
	sectors map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		series:  make(map[string]contracts.PriceSeries),
		sectors: make(map[string]string),
	}
}

// PutSeries replaces the stored history for the series' ticker. The
// series must already be ascending with no duplicate dates.
func (m *MemoryStore) PutSeries(ticker string, series contracts.PriceSeries) error {
	if err := series.Validate(); err != nil {
		return fmt.Errorf("series for %s: %w", ticker, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.series[ticker] = series
	return nil
}

// PutSector sets the sector for a ticker.
func (m *MemoryStore) PutSector(ticker, sector string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sectors[ticker] = sector
}

// GetSeries returns the stored history for a ticker.
func (m *MemoryStore) GetSeries(_ context.Context, ticker string) (contracts.PriceSeries, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	series, ok := m.series[ticker]
	if !ok {
		return nil, fmt.Errorf("%s: %w", ticker, contracts.ErrTickerNotFound)
	}
	return series, nil
}

// ListTickers returns all tickers with stored history, sorted.
func (m *MemoryStore) ListTickers(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tickers := make([]string, 0, len(m.series))
	for t := range m.series {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers, nil
}

// GetSector returns the sector for a ticker.
func (m *MemoryStore) GetSector(_ context.Context, ticker string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sector, ok := m.sectors[ticker]
	if !ok {
		return "", fmt.Errorf("%s: %w", ticker, contracts.ErrTickerNotFound)
	}
	return sector, nil
}
