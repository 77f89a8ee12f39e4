package indicators

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/argos/internal/contracts"
)

// Trading-day windows for the computed indicators.
const (
	smaShortWindow = 20
	smaMidWindow   = 50
	smaLongWindow  = 200

	momSkipDays = 21  // most recent month excluded from 12-1 momentum
	mom12Offset = 253 // ~12 months of trading days
	mom6Offset  = 126
	mom3Offset  = 63
	mom1Offset  = 21

	rsiPeriod = 14

	volShortWindow = 20
	volLongWindow  = 90
)

// DefaultStalenessDays is the freshness window when none is configured.
const DefaultStalenessDays = 7

// Config controls the builder's freshness guard.
type Config struct {
	StalenessDays int // calendar days; last bar older than asOf-N marks the snapshot stale
}

// Builder computes point-in-time indicator snapshots. It only ever sees
// the price series prefix dated on or before the requested date, so a
// snapshot for a past date is identical to what a live run on that date
// would have produced.
type Builder struct {
	cfg Config
	log zerolog.Logger
}

// New creates a Builder. A non-positive staleness window falls back to the
// default.
func New(cfg Config, log zerolog.Logger) *Builder {
	if cfg.StalenessDays <= 0 {
		cfg.StalenessDays = DefaultStalenessDays
	}
	return &Builder{
		cfg: cfg,
		log: log.With().Str("component", "indicators").Logger(),
	}
}

// Build computes the snapshot for one ticker as of a date. It returns nil
// when no bar is dated on or before asOf. Otherwise the snapshot always
// exists: fields the visible history cannot support are nil, each failing
// independently of the rest.
func (b *Builder) Build(ticker string, series contracts.PriceSeries, asOf time.Time) *contracts.IndicatorSnapshot {
	visible := sliceAsOf(series, asOf)
	if len(visible) == 0 {
		b.log.Debug().Str("ticker", ticker).Time("as_of", asOf).Msg("no history as of date")
		return nil
	}

	last := visible[len(visible)-1]
	snap := &contracts.IndicatorSnapshot{
		Ticker:        ticker,
		AsOf:          asOf,
		LastPriceDate: last.Date,
		Stale:         last.Date.Before(asOf.AddDate(0, 0, -b.cfg.StalenessDays)),
	}
	if snap.Stale {
		b.log.Debug().
			Str("ticker", ticker).
			Time("as_of", asOf).
			Time("last_price", last.Date).
			Msg("stale price history")
		return snap
	}

	snap.SMA20 = sma(visible, smaShortWindow)
	snap.SMA50 = sma(visible, smaMidWindow)
	snap.SMA200 = sma(visible, smaLongWindow)
	if snap.SMA50 != nil && snap.SMA200 != nil && *snap.SMA200 != 0 {
		snap.MADistance = contracts.Ptr((*snap.SMA50 - *snap.SMA200) / *snap.SMA200)
	}

	snap.Momentum12_1 = windowReturn(visible, mom12Offset, momSkipDays)
	snap.Momentum6M = windowReturn(visible, mom6Offset, 0)
	snap.Momentum3M = windowReturn(visible, mom3Offset, 0)
	snap.Momentum1M = windowReturn(visible, mom1Offset, 0)

	snap.AvgVolume20D = avgVolume(visible, volShortWindow)
	snap.AvgVolume90D = avgVolume(visible, volLongWindow)
	if snap.AvgVolume20D != nil && snap.AvgVolume90D != nil && *snap.AvgVolume90D != 0 {
		snap.RelativeVolume = contracts.Ptr(*snap.AvgVolume20D / *snap.AvgVolume90D)
	}

	snap.RSI14 = rsi(visible, rsiPeriod)
	if snap.SMA200 != nil {
		snap.PriceAbove200MA = contracts.Ptr(last.AdjClose > *snap.SMA200)
	}

	return snap
}
