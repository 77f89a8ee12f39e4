package contracts

import "time"

// IndicatorSnapshot is the point-in-time technical state of one ticker:
// everything below is computed from bars dated on or before AsOf.
//
// Pointer fields are nil when the history is too short to compute them.
// Nil means "not computable", never zero; consumers that need a field and
// find nil must exclude the ticker, not substitute a default.
type IndicatorSnapshot struct {
	Ticker        string    `json:"ticker"`
	AsOf          time.Time `json:"as_of"`
	LastPriceDate time.Time `json:"last_price_date"`
	Stale         bool      `json:"stale"` // last bar older than the staleness window

	// Trend
	SMA20      *float64 `json:"sma_20,omitempty"`
	SMA50      *float64 `json:"sma_50,omitempty"`
	SMA200     *float64 `json:"sma_200,omitempty"`
	MADistance *float64 `json:"ma_distance,omitempty"` // (SMA50-SMA200)/SMA200

	// Momentum (total returns over trading-day windows)
	Momentum12_1 *float64 `json:"momentum_12_1,omitempty"` // 12m excluding the latest 21 trading days
	Momentum6M   *float64 `json:"momentum_6m,omitempty"`
	Momentum3M   *float64 `json:"momentum_3m,omitempty"`
	Momentum1M   *float64 `json:"momentum_1m,omitempty"`

	// Volume
	AvgVolume20D   *float64 `json:"avg_volume_20d,omitempty"`
	AvgVolume90D   *float64 `json:"avg_volume_90d,omitempty"`
	RelativeVolume *float64 `json:"relative_volume,omitempty"` // 20d avg / 90d avg

	RSI14           *float64 `json:"rsi_14,omitempty"`
	PriceAbove200MA *bool    `json:"price_above_200ma,omitempty"`

	// Filled by the cross-sectional pass, not by the per-ticker builder.
	SectorRelative6M *float64 `json:"sector_relative_6m,omitempty"`
}

// Usable reports whether the snapshot may enter a cross-sectional ranking:
// it exists and its history was fresh as of AsOf.
func (s *IndicatorSnapshot) Usable() bool {
	return s != nil && !s.Stale
}

// Ptr returns a pointer to v. Snapshot fields use pointers so that "not
// computable" stays distinct from zero across serialization.
func Ptr[T any](v T) *T { return &v }
