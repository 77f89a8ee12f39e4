package scoring

import "fmt"

// Recommendation is the action implied by a composite score.
type Recommendation string

const (
	Buy  Recommendation = "BUY"
	Hold Recommendation = "HOLD"
	Sell Recommendation = "SELL"
)

// Thresholds split the 0-100 score range into actions.
type Thresholds struct {
	Buy  float64 `yaml:"buy" json:"buy"`
	Sell float64 `yaml:"sell" json:"sell"`
}

// DefaultThresholds returns the standard action cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{Buy: 70, Sell: 30}
}

// Validate checks the cutoffs are ordered and inside the score range.
func (t Thresholds) Validate() error {
	if t.Buy < 0 || t.Buy > 100 || t.Sell < 0 || t.Sell > 100 {
		return fmt.Errorf("thresholds must be within 0-100: buy=%.1f sell=%.1f", t.Buy, t.Sell)
	}
	if t.Sell >= t.Buy {
		return fmt.Errorf("sell threshold %.1f must be below buy threshold %.1f", t.Sell, t.Buy)
	}
	return nil
}

// Recommend maps a composite score to an action. Names that could not be
// scored are always HOLD.
func Recommend(score float64, scored bool, t Thresholds) Recommendation {
	if !scored {
		return Hold
	}
	switch {
	case score >= t.Buy:
		return Buy
	case score <= t.Sell:
		return Sell
	default:
		return Hold
	}
}
