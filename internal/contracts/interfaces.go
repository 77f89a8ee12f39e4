package contracts

import "context"

// PriceReader provides daily price history. Implementations must return
// series in ascending date order with no duplicate dates, and
// ErrTickerNotFound when the ticker has no data at all.
type PriceReader interface {
	GetSeries(ctx context.Context, ticker string) (PriceSeries, error)
	ListTickers(ctx context.Context) ([]string, error)
}

// SectorLookup maps a ticker to its sector identifier.
type SectorLookup interface {
	GetSector(ctx context.Context, ticker string) (string, error)
}

// Scorer turns an indicator snapshot into a 0-100 composite score.
// ok is false when the snapshot lacks inputs the scorer requires; the
// caller excludes the ticker rather than scoring it with defaults.
type Scorer interface {
	Score(snap *IndicatorSnapshot) (score float64, ok bool)
}
