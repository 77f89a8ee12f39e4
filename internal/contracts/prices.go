package contracts

import (
	"fmt"
	"time"
)

// PricePoint is one daily bar for one ticker. AdjClose is the split- and
// dividend-adjusted close; every derived indicator and return uses it,
// never the raw close.
type PricePoint struct {
	Ticker   string    `json:"ticker"`
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adj_close"`
	Volume   int64     `json:"volume"`
}

// PriceSeries holds a ticker's daily bars in ascending date order with no
// duplicate dates. Readers return series already in this form; Validate is
// the check applied at ingestion boundaries.
type PriceSeries []PricePoint

// Last returns the most recent point in the series.
func (s PriceSeries) Last() (PricePoint, bool) {
	if len(s) == 0 {
		return PricePoint{}, false
	}
	return s[len(s)-1], true
}

// Validate reports the first ordering or duplicate-date violation.
func (s PriceSeries) Validate() error {
	for i := 1; i < len(s); i++ {
		prev, cur := s[i-1].Date, s[i].Date
		if cur.Equal(prev) {
			return fmt.Errorf("duplicate date %s at index %d", cur.Format("2006-01-02"), i)
		}
		if cur.Before(prev) {
			return fmt.Errorf("dates out of order at index %d: %s before %s",
				i, cur.Format("2006-01-02"), prev.Format("2006-01-02"))
		}
	}
	return nil
}
