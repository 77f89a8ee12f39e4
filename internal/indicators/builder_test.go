package indicators

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBuilder() *Builder {
	return New(Config{StalenessDays: 7}, zerolog.Nop())
}

func TestBuilder_Build_FullHistory(t *testing.T) {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	series := weekdaySeries("AAPL", start, ramp(300, 100)) // closes 100..399
	asOf := series[len(series)-1].Date

	snap := testBuilder().Build("AAPL", series, asOf)
	require.NotNil(t, snap)

	assert.Equal(t, "AAPL", snap.Ticker)
	assert.Equal(t, asOf, snap.AsOf)
	assert.Equal(t, asOf, snap.LastPriceDate)
	assert.False(t, snap.Stale)

	require.NotNil(t, snap.SMA20)
	assert.InDelta(t, 389.5, *snap.SMA20, 1e-9) // mean of closes 380..399
	require.NotNil(t, snap.SMA50)
	assert.InDelta(t, 374.5, *snap.SMA50, 1e-9)
	require.NotNil(t, snap.SMA200)
	assert.InDelta(t, 299.5, *snap.SMA200, 1e-9)
	require.NotNil(t, snap.MADistance)
	assert.InDelta(t, (374.5-299.5)/299.5, *snap.MADistance, 1e-12)

	// Index math: latest bar is i=299, so the 12-1 window runs from
	// close[46]=146 to close[278]=378.
	require.NotNil(t, snap.Momentum12_1)
	assert.InDelta(t, (378.0-146.0)/146.0, *snap.Momentum12_1, 1e-12)
	require.NotNil(t, snap.Momentum6M)
	assert.InDelta(t, (399.0-273.0)/273.0, *snap.Momentum6M, 1e-12)
	require.NotNil(t, snap.Momentum3M)
	assert.InDelta(t, (399.0-336.0)/336.0, *snap.Momentum3M, 1e-12)
	require.NotNil(t, snap.Momentum1M)
	assert.InDelta(t, (399.0-378.0)/378.0, *snap.Momentum1M, 1e-12)

	require.NotNil(t, snap.AvgVolume20D)
	assert.InDelta(t, 1289.5, *snap.AvgVolume20D, 1e-9)
	require.NotNil(t, snap.AvgVolume90D)
	assert.InDelta(t, 1254.5, *snap.AvgVolume90D, 1e-9)
	require.NotNil(t, snap.RelativeVolume)
	assert.InDelta(t, 1289.5/1254.5, *snap.RelativeVolume, 1e-12)

	require.NotNil(t, snap.RSI14)
	assert.Equal(t, 100.0, *snap.RSI14) // monotonic gains

	require.NotNil(t, snap.PriceAbove200MA)
	assert.True(t, *snap.PriceAbove200MA)

	assert.Nil(t, snap.SectorRelative6M, "sector-relative is a cross-sectional concern")
}

func TestBuilder_Build_ShortHistory(t *testing.T) {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	series := weekdaySeries("NVDA", start, ramp(100, 50))
	asOf := series[len(series)-1].Date

	snap := testBuilder().Build("NVDA", series, asOf)
	require.NotNil(t, snap)
	assert.False(t, snap.Stale)

	// 100 bars: short windows fill in, long windows stay absent.
	assert.NotNil(t, snap.SMA20)
	assert.NotNil(t, snap.SMA50)
	assert.Nil(t, snap.SMA200)
	assert.Nil(t, snap.MADistance)
	assert.Nil(t, snap.PriceAbove200MA)

	assert.Nil(t, snap.Momentum12_1)
	assert.Nil(t, snap.Momentum6M)
	assert.NotNil(t, snap.Momentum3M)
	assert.NotNil(t, snap.Momentum1M)

	assert.NotNil(t, snap.AvgVolume20D)
	assert.NotNil(t, snap.AvgVolume90D)
	assert.NotNil(t, snap.RelativeVolume)
	assert.NotNil(t, snap.RSI14)
}

func TestBuilder_Build_Staleness(t *testing.T) {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	series := weekdaySeries("MSFT", start, ramp(60, 100))
	lastDate := series[len(series)-1].Date

	tests := []struct {
		name      string
		asOf      time.Time
		wantStale bool
	}{
		{name: "same day", asOf: lastDate, wantStale: false},
		{name: "three days later", asOf: lastDate.AddDate(0, 0, 3), wantStale: false},
		{name: "exactly at the window", asOf: lastDate.AddDate(0, 0, 7), wantStale: false},
		{name: "past the window", asOf: lastDate.AddDate(0, 0, 8), wantStale: true},
		{name: "long gap", asOf: lastDate.AddDate(0, 0, 30), wantStale: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := testBuilder().Build("MSFT", series, tt.asOf)
			require.NotNil(t, snap)
			assert.Equal(t, tt.wantStale, snap.Stale)
			assert.Equal(t, lastDate, snap.LastPriceDate)
			if tt.wantStale {
				assert.Nil(t, snap.SMA20, "stale snapshots carry no indicator values")
			}
		})
	}
}

func TestBuilder_Build_NoVisibleHistory(t *testing.T) {
	start := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	series := weekdaySeries("TSLA", start, ramp(20, 200))

	snap := testBuilder().Build("TSLA", series, start.AddDate(0, 0, -10))
	assert.Nil(t, snap)

	snap = testBuilder().Build("TSLA", nil, start)
	assert.Nil(t, snap)
}

func TestBuilder_Build_IgnoresFutureBars(t *testing.T) {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	closes := ramp(260, 100)
	clean := weekdaySeries("AMZN", start, closes)
	asOf := clean[len(clean)-1].Date

	// Same history plus absurd bars after asOf.
	poisoned := weekdaySeries("AMZN", start, append(append([]float64{}, closes...), 1e6, 1, 1e6, 1))

	builder := testBuilder()
	fromClean := builder.Build("AMZN", clean, asOf)
	fromPoisoned := builder.Build("AMZN", poisoned, asOf)

	require.NotNil(t, fromClean)
	assert.Equal(t, fromClean, fromPoisoned, "bars after the as-of date must not influence the snapshot")
}
