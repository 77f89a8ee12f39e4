package indicators

import (
	"testing"
	"time"

	"github.com/wonny/argos/internal/contracts"
)

// weekdaySeries builds bars on consecutive weekdays starting at start,
// one per close value.
func weekdaySeries(ticker string, start time.Time, closes []float64) contracts.PriceSeries {
	series := make(contracts.PriceSeries, 0, len(closes))
	d := start
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	for i, c := range closes {
		series = append(series, contracts.PricePoint{
			Ticker:   ticker,
			Date:     d,
			Close:    c,
			AdjClose: c,
			Volume:   1000 + int64(i),
		})
		d = d.AddDate(0, 0, 1)
		for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			d = d.AddDate(0, 0, 1)
		}
	}
	return series
}

func ramp(n int, base float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = base + float64(i)
	}
	return closes
}

func TestSliceAsOf(t *testing.T) {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	series := weekdaySeries("AAPL", start, ramp(10, 100))

	tests := []struct {
		name    string
		asOf    time.Time
		wantLen int
	}{
		{name: "before first bar", asOf: start.AddDate(0, 0, -1), wantLen: 0},
		{name: "exactly first bar", asOf: series[0].Date, wantLen: 1},
		{name: "exactly third bar", asOf: series[2].Date, wantLen: 3},
		{name: "between bars", asOf: series[4].Date.Add(12 * time.Hour), wantLen: 5},
		{name: "after last bar", asOf: series[9].Date.AddDate(0, 0, 30), wantLen: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sliceAsOf(series, tt.asOf)
			if len(got) != tt.wantLen {
				t.Fatalf("sliceAsOf() len = %d, want %d", len(got), tt.wantLen)
			}
			for _, p := range got {
				if p.Date.After(tt.asOf) {
					t.Errorf("sliceAsOf() leaked bar dated %s past %s", p.Date, tt.asOf)
				}
			}
		})
	}
}

func TestSMA(t *testing.T) {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	flat := weekdaySeries("T", start, []float64{50, 50, 50, 50, 50})
	if got := sma(flat, 5); got == nil || *got != 50 {
		t.Errorf("sma(flat, 5) = %v, want 50", got)
	}

	ramped := weekdaySeries("T", start, ramp(25, 1)) // closes 1..25
	if got := sma(ramped, 20); got == nil || *got != 15.5 {
		// mean of 6..25
		t.Errorf("sma(ramp, 20) = %v, want 15.5", got)
	}

	if got := sma(ramped, 26); got != nil {
		t.Errorf("sma() on short series = %v, want nil", *got)
	}
}

func TestWindowReturn(t *testing.T) {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	series := weekdaySeries("T", start, []float64{100, 110, 121})

	tests := []struct {
		name     string
		from, to int
		want     float64
		wantNil  bool
	}{
		{name: "two days back to latest", from: 2, to: 0, want: 0.21},
		{name: "one day back to latest", from: 1, to: 0, want: 0.1},
		{name: "two back to one back", from: 2, to: 1, want: 0.1},
		{name: "window longer than series", from: 3, to: 0, wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := windowReturn(series, tt.from, tt.to)
			if tt.wantNil {
				if got != nil {
					t.Fatalf("windowReturn() = %v, want nil", *got)
				}
				return
			}
			if got == nil {
				t.Fatal("windowReturn() = nil, want value")
			}
			if diff := *got - tt.want; diff > 1e-12 || diff < -1e-12 {
				t.Errorf("windowReturn() = %v, want %v", *got, tt.want)
			}
		})
	}
}

func TestRSI(t *testing.T) {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	up := weekdaySeries("T", start, ramp(30, 100))
	if got := rsi(up, 14); got == nil || *got != 100 {
		t.Errorf("rsi(all gains) = %v, want 100", got)
	}

	downCloses := make([]float64, 30)
	for i := range downCloses {
		downCloses[i] = 200 - float64(i)
	}
	down := weekdaySeries("T", start, downCloses)
	if got := rsi(down, 14); got == nil || *got != 0 {
		t.Errorf("rsi(all losses) = %v, want 0", got)
	}

	short := weekdaySeries("T", start, ramp(14, 100))
	if got := rsi(short, 14); got != nil {
		t.Errorf("rsi() on 14 bars = %v, want nil (needs 15)", *got)
	}

	mixed := weekdaySeries("T", start, []float64{
		100, 102, 101, 104, 103, 106, 105, 108, 107, 110,
		109, 112, 111, 114, 113, 116, 115, 118, 117, 120,
	})
	got := rsi(mixed, 14)
	if got == nil {
		t.Fatal("rsi(mixed) = nil, want value")
	}
	if *got < 0 || *got > 100 {
		t.Errorf("rsi(mixed) = %v, want within [0, 100]", *got)
	}
}
