package backtest

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/argos/internal/contracts"
)

// DefaultToleranceDays bounds how far back a measurement date may slide to
// reach an actual trading day.
const DefaultToleranceDays = 5

// ForwardMeasurer computes realized returns between a checkpoint and its
// horizon target. Both endpoints resolve to the nearest trading day at or
// before the requested date; a date with no bar inside the tolerance
// window leaves the return undefined rather than approximated.
type ForwardMeasurer struct {
	toleranceDays int
	log           zerolog.Logger
}

// NewForwardMeasurer creates a ForwardMeasurer. A non-positive tolerance
// falls back to the default.
func NewForwardMeasurer(toleranceDays int, log zerolog.Logger) *ForwardMeasurer {
	if toleranceDays <= 0 {
		toleranceDays = DefaultToleranceDays
	}
	return &ForwardMeasurer{
		toleranceDays: toleranceDays,
		log:           log.With().Str("component", "forward").Logger(),
	}
}

// Measure returns the simple percentage return on adjusted close from the
// checkpoint to checkpoint+horizon, or nil when either endpoint has no bar
// within tolerance (series ended, long halt, horizon past the data).
func (m *ForwardMeasurer) Measure(series contracts.PriceSeries, checkpoint time.Time, h contracts.Horizon) *float64 {
	entry := m.closeAt(series, checkpoint)
	if entry == nil || entry.AdjClose <= 0 {
		return nil
	}
	exit := m.closeAt(series, h.Target(checkpoint))
	if exit == nil {
		return nil
	}
	return contracts.Ptr((exit.AdjClose - entry.AdjClose) / entry.AdjClose * 100)
}

// closeAt resolves a calendar date to the last bar at or before it, within
// the tolerance window.
func (m *ForwardMeasurer) closeAt(series contracts.PriceSeries, date time.Time) *contracts.PricePoint {
	n := sort.Search(len(series), func(i int) bool {
		return series[i].Date.After(date)
	})
	if n == 0 {
		return nil
	}
	p := series[n-1]
	if p.Date.Before(date.AddDate(0, 0, -m.toleranceDays)) {
		return nil
	}
	return &p
}
