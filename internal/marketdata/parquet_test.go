package marketdata

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/argos/internal/contracts"
)

func pricePoint(ticker string, date time.Time, adjClose float64) contracts.PricePoint {
	return contracts.PricePoint{
		Ticker:   ticker,
		Date:     date,
		Open:     adjClose - 1,
		High:     adjClose + 1,
		Low:      adjClose - 2,
		Close:    adjClose,
		AdjClose: adjClose,
		Volume:   1_000_000,
	}
}

func TestParquetStore_WriteReadAcrossYears(t *testing.T) {
	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()

	series := contracts.PriceSeries{
		pricePoint("AAPL", time.Date(2023, 12, 28, 0, 0, 0, 0, time.UTC), 192.5),
		pricePoint("AAPL", time.Date(2023, 12, 29, 0, 0, 0, 0, time.UTC), 193.0),
		pricePoint("AAPL", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), 185.5),
		pricePoint("AAPL", time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), 186.0),
	}
	require.NoError(t, ps.WriteSeries(ctx, series))

	got, err := ps.GetSeries(ctx, "AAPL")
	require.NoError(t, err)
	require.Len(t, got, 4)
	require.NoError(t, got.Validate())

	assert.Equal(t, 192.5, got[0].AdjClose)
	assert.Equal(t, 186.0, got[3].AdjClose)
	assert.True(t, got[0].Date.Equal(time.Date(2023, 12, 28, 0, 0, 0, 0, time.UTC)))

	// One file per year under the ticker directory.
	assert.FileExists(t, filepath.Join(ps.DataDir, "daily", "AAPL", "2023.parquet"))
	assert.FileExists(t, filepath.Join(ps.DataDir, "daily", "AAPL", "2024.parquet"))
}

func TestParquetStore_MergePrefersIncoming(t *testing.T) {
	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, ps.WriteSeries(ctx, contracts.PriceSeries{
		pricePoint("MSFT", day, 400.0),
		pricePoint("MSFT", day.AddDate(0, 0, 3), 403.0),
	}))

	// Rewrite the first day with a corrected adjusted close.
	require.NoError(t, ps.WriteSeries(ctx, contracts.PriceSeries{
		pricePoint("MSFT", day, 398.5),
	}))

	got, err := ps.GetSeries(ctx, "MSFT")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 398.5, got[0].AdjClose)
	assert.Equal(t, 403.0, got[1].AdjClose)
}

func TestParquetStore_UnknownTicker(t *testing.T) {
	ps := NewParquetStore(t.TempDir())

	_, err := ps.GetSeries(context.Background(), "GHOST")
	require.ErrorIs(t, err, contracts.ErrTickerNotFound)
}

func TestParquetStore_ListTickers(t *testing.T) {
	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()

	day := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	require.NoError(t, ps.WriteSeries(ctx, contracts.PriceSeries{
		pricePoint("NVDA", day, 900.0),
		pricePoint("AMD", day, 150.0),
	}))

	tickers, err := ps.ListTickers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AMD", "NVDA"}, tickers)
}

func TestParquetStore_ListTickersEmptyDir(t *testing.T) {
	ps := NewParquetStore(filepath.Join(t.TempDir(), "does-not-exist"))

	tickers, err := ps.ListTickers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tickers)
}
