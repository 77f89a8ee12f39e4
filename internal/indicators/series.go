package indicators

import (
	"sort"
	"time"

	"github.com/wonny/argos/internal/contracts"
)

// sliceAsOf returns the prefix of series dated on or before asOf. Every
// indicator in this package works on the slice this returns; nothing may
// read past it.
func sliceAsOf(series contracts.PriceSeries, asOf time.Time) contracts.PriceSeries {
	n := sort.Search(len(series), func(i int) bool {
		return series[i].Date.After(asOf)
	})
	return series[:n]
}

// sma returns the mean adjusted close of the last window bars, or nil when
// the series is shorter than the window.
func sma(series contracts.PriceSeries, window int) *float64 {
	if window <= 0 || len(series) < window {
		return nil
	}
	var sum float64
	for _, p := range series[len(series)-window:] {
		sum += p.AdjClose
	}
	return contracts.Ptr(sum / float64(window))
}

// avgVolume returns the mean volume of the last window bars, or nil when
// the series is shorter than the window.
func avgVolume(series contracts.PriceSeries, window int) *float64 {
	if window <= 0 || len(series) < window {
		return nil
	}
	var sum int64
	for _, p := range series[len(series)-window:] {
		sum += p.Volume
	}
	return contracts.Ptr(float64(sum) / float64(window))
}

// windowReturn is the simple return between two trading-day offsets counted
// back from the end of the series: offset 0 is the latest bar. fromOffset
// must be the larger (older) offset. Nil when the series is too short or
// the base price is unusable.
func windowReturn(series contracts.PriceSeries, fromOffset, toOffset int) *float64 {
	n := len(series)
	if n <= fromOffset {
		return nil
	}
	base := series[n-1-fromOffset].AdjClose
	end := series[n-1-toOffset].AdjClose
	if base <= 0 {
		return nil
	}
	return contracts.Ptr((end - base) / base)
}

// rsi computes the Relative Strength Index with Wilder smoothing over the
// whole series. Needs period+1 bars; all-gain histories saturate at 100,
// all-loss at 0.
func rsi(series contracts.PriceSeries, period int) *float64 {
	if period <= 0 || len(series) < period+1 {
		return nil
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := series[i].AdjClose - series[i-1].AdjClose
		if change > 0 {
			avgGain += change
		} else {
			avgLoss += -change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(series); i++ {
		change := series[i].AdjClose - series[i-1].AdjClose
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return contracts.Ptr(100.0)
	}
	rs := avgGain / avgLoss
	return contracts.Ptr(100 - (100 / (1 + rs)))
}
